package feed

// Some YouTrack instances return custom field names in the instance
// locale rather than English. Each logical field therefore maps to an
// ordered list of known display names; the first match wins.
var fieldAliases = map[string][]string{
	"State":    {"Stato", "State"},
	"Priority": {"Priorità", "Priority"},
	"Assignee": {"Assegnatario", "Assignee"},
}

// unassignedSentinel is the locale-dependent display value YouTrack uses
// for an issue with no assignee. It is mapped to absent, not surfaced.
const unassignedSentinel = "Non assegnato"

func fieldValue(fields []CustomField, logical string) string {
	names, ok := fieldAliases[logical]
	if !ok {
		names = []string{logical}
	}
	for _, name := range names {
		for _, f := range fields {
			if f.Name == name {
				return f.Value
			}
		}
	}
	return ""
}

// Classify maps a decoded event to its chat-ready notification.
//
// Classification precedence, first match wins:
//  1. a COMMENT sub-event with added values, or a COMMENTS "comment created"
//     sub-event → "Comment Added" / COMMENT
//  2. a "created" sub-event outside COMMENTS → "Issue Created" / ISSUE
//  3. the event's own header, or "Unknown", with no category
func Classify(event *DecodedEvent) Notification {
	var events []SubEvent
	if event.Change != nil {
		events = event.Change.Events
	}

	var comment string
	var commented bool
	for _, e := range events {
		if e.Category == "COMMENT" && len(e.AddedValues) > 0 {
			comment = e.AddedValues[0].Name
			commented = true
			break
		}
	}
	if !commented {
		for _, e := range events {
			if e.Category == "COMMENTS" && e.Name == "comment created" {
				commented = true
				break
			}
		}
	}

	eventType := event.Header
	if eventType == "" {
		eventType = "Unknown"
	}
	category := CategoryNone

	if commented {
		eventType = "Comment Added"
		category = CategoryComment
	} else {
		for _, e := range events {
			if e.Name == "created" && e.Category != "COMMENTS" {
				eventType = "Issue Created"
				category = CategoryIssue
				break
			}
		}
	}

	assignee := fieldValue(event.Issue.Fields, "Assignee")
	if assignee == unassignedSentinel {
		assignee = ""
	}

	project := event.Issue.Project
	if project.Name == "" {
		project.Name = "Unknown"
	}
	summary := event.Issue.Summary
	if summary == "" {
		summary = "No summary"
	}

	return Notification{
		IssueID:     event.Issue.ID,
		Project:     project,
		Summary:     summary,
		Description: event.Issue.Description,
		EventType:   eventType,
		Timestamp:   event.Timestamp(),
		Category:    category,
		Comment:     comment,
		State:       fieldValue(event.Issue.Fields, "State"),
		Priority:    fieldValue(event.Issue.Fields, "Priority"),
		Assignee:    assignee,
	}
}
