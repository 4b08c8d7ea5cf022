// Package feed decodes and classifies YouTrack notification feed records.
package feed

// Category classifies a notification for presentation purposes.
type Category string

const (
	// CategoryComment marks a comment added to an issue.
	CategoryComment Category = "COMMENT"
	// CategoryIssue marks a newly created issue.
	CategoryIssue Category = "ISSUE"
	// CategoryNone marks an event that fits neither bucket; the formatter
	// falls back to a generic presentation.
	CategoryNone Category = ""
)

// DecodedEvent is a feed record's metadata blob after base64 decoding,
// gzip decompression and JSON parsing.
type DecodedEvent struct {
	Header string        `json:"header"`
	Issue  IssueSnapshot `json:"issue"`
	Change *Change       `json:"change"`
}

// IssueSnapshot is the state of the issue embedded in the event.
type IssueSnapshot struct {
	ID          string        `json:"id"`
	Project     Project       `json:"project"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	Fields      []CustomField `json:"fields"`
}

// Project identifies the issue's project.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CustomField is one name/value pair of the issue snapshot. Names are
// localized by the YouTrack instance, see the alias table in classify.go.
type CustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Change describes what happened to the issue.
type Change struct {
	StartTimestamp *int64     `json:"startTimestamp"`
	EndTimestamp   *int64     `json:"endTimestamp"`
	Events         []SubEvent `json:"events"`
}

// SubEvent is a single atomic change within a Change.
type SubEvent struct {
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	AddedValues []AddedValue `json:"addedValues"`
}

// AddedValue is a display value attached to a sub-event (e.g. the text of
// an added comment).
type AddedValue struct {
	Name string `json:"name"`
}

// Timestamp derives the event time in epoch millis: startTimestamp when
// present, else endTimestamp, else zero.
func (e *DecodedEvent) Timestamp() int64 {
	if e.Change == nil {
		return 0
	}
	if e.Change.StartTimestamp != nil {
		return *e.Change.StartTimestamp
	}
	if e.Change.EndTimestamp != nil {
		return *e.Change.EndTimestamp
	}
	return 0
}

// Notification is the classified, chat-ready representation of one event.
// Optional string fields use "" for absent. Ordering key is Timestamp.
type Notification struct {
	IssueID     string
	Project     Project
	Summary     string
	Description string
	EventType   string
	Timestamp   int64
	Category    Category
	Comment     string
	State       string
	Priority    string
	Assignee    string
}
