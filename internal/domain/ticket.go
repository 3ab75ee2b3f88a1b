package domain

// TicketRequest carries the caller-supplied fields for one Jira issue.
// Immutable once constructed.
type TicketRequest struct {
	Summary     string
	Description string
	IssueType   string
}

// Project identifies a Jira project.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// IssueType describes one issue type available in a project.
type IssueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectDetails bundles a project with its available issue types.
type ProjectDetails struct {
	Project    Project     `json:"project"`
	IssueTypes []IssueType `json:"issue_types"`
}
