package dto

// TicketPayload is one ticket-creation entry.
type TicketPayload struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	IssueType   string `json:"issue_type"`
}

// TicketsCreateRequest is the canonical batch body for POST /generate. The
// pointer distinguishes an explicitly empty batch from an absent tickets key,
// in which case the body is parsed as a bare TicketPayload.
type TicketsCreateRequest struct {
	Tickets *[]TicketPayload `json:"tickets"`
}

// TicketsCreateResponse carries one entry per requested ticket: the raw
// upstream payload on success or an error object on rejection.
type TicketsCreateResponse struct {
	Tickets []map[string]any `json:"tickets"`
}
