package jira

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Result is the normalized outcome of one upstream call. A 2xx response
// populates Payload (and TicketID when the payload carries an id); any other
// status populates ErrDetail with the extracted error text. Transport-level
// failures never produce a Result, they are returned as errors.
type Result struct {
	StatusCode int
	Payload    map[string]any
	TicketID   string
	ErrDetail  string
}

// Failed reports whether the upstream rejected the request. Classification is
// by status, not by detail text: a rejection with an empty body is still a
// rejection.
func (r *Result) Failed() bool {
	return r.StatusCode < 200 || r.StatusCode >= 300
}

// extractErrorDetail pulls a human-readable detail out of a Jira error body.
// Well-formed bodies carry errorMessages and an errors map; anything else is
// returned verbatim.
func extractErrorDetail(body []byte) string {
	raw := strings.TrimSpace(string(body))

	var parsed struct {
		ErrorMessages []string       `json:"errorMessages"`
		Errors        map[string]any `json:"errors"`
		Status        int            `json:"status"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return raw
	}

	parts := make([]string, 0, len(parsed.ErrorMessages)+len(parsed.Errors))
	parts = append(parts, parsed.ErrorMessages...)

	fields := make([]string, 0, len(parsed.Errors))
	for field := range parsed.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %v", field, parsed.Errors[field]))
	}

	if len(parts) == 0 {
		return raw
	}
	return strings.Join(parts, "; ")
}
