package youtrack

// Project is a YouTrack project reference as returned by /admin/projects.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueDraft is the payload for creating a new issue.
type IssueDraft struct {
	Project     ProjectRef `json:"project"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
}

// ProjectRef identifies the target project of a draft.
type ProjectRef struct {
	ID string `json:"id"`
}

// RawFeedRecord is one record of the YouTrack notification feed. Metadata
// is a base64-encoded, gzip-compressed JSON document; Content is free text.
type RawFeedRecord struct {
	ID       string `json:"id"`
	Type     string `json:"$type"`
	Metadata string `json:"metadata"`
	Content  string `json:"content"`
}
