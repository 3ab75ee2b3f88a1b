package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/jira-gateway/internal/config"
	"github.com/spec-kit/jira-gateway/internal/domain"
)

// Jira REST endpoints used by the gateway.
const (
	issueCreatePath     = "/rest/api/3/issue"
	issueCreateMetaPath = "/rest/api/3/issue/createmeta"
)

// Client performs authenticated calls against the Jira REST API using a
// pooled HTTP client owned by the process.
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	projectID  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.JiraConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		username:  cfg.Username,
		apiToken:  cfg.APIToken,
		projectID: cfg.ProjectID,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
		logger: logger,
	}
}

// issueFields is the project-scoped creation payload.
type issueFields struct {
	Project     issueRef `json:"project"`
	Summary     string   `json:"summary"`
	Description Document `json:"description"`
	IssueType   issueRef `json:"issuetype"`
}

type issueRef struct {
	ID string `json:"id"`
}

type createIssueRequest struct {
	Fields issueFields `json:"fields"`
}

// CreateTicket sends one issue-creation request. HTTP-level rejections are
// normalized into the Result; only transport failures return an error.
func (c *Client) CreateTicket(ctx context.Context, ticket domain.TicketRequest) (*Result, error) {
	payload := createIssueRequest{
		Fields: issueFields{
			Project:     issueRef{ID: c.projectID},
			Summary:     ticket.Summary,
			Description: DocumentFromText(ticket.Description),
			IssueType:   issueRef{ID: ticket.IssueType},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode issue payload: %w", err)
	}

	return c.do(ctx, http.MethodPost, issueCreatePath, bytes.NewReader(body))
}

// IssueMetadata fetches the create metadata for all visible projects.
func (c *Client) IssueMetadata(ctx context.Context) (*Result, error) {
	return c.do(ctx, http.MethodGet, issueCreateMetaPath, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build jira request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read jira response: %w", err)
	}

	return c.normalize(method, path, resp.StatusCode, respBody)
}

func (c *Client) normalize(method, path string, status int, body []byte) (*Result, error) {
	if status >= 200 && status < 300 {
		result := &Result{StatusCode: status}
		if len(bytes.TrimSpace(body)) == 0 {
			return result, nil
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode jira response: %w", err)
		}
		result.Payload = payload
		if id, ok := payload["id"].(string); ok {
			result.TicketID = id
		}
		return result, nil
	}

	detail := extractErrorDetail(body)
	if detail == "" {
		detail = fmt.Sprintf("status %d", status)
	}
	c.logger.Warn("jira request rejected",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("detail", detail))
	return &Result{StatusCode: status, ErrDetail: detail}, nil
}
