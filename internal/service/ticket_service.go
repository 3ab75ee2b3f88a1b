package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/jira-gateway/internal/domain"
	"github.com/spec-kit/jira-gateway/internal/jira"
	"github.com/spec-kit/jira-gateway/internal/notify"
	apperrors "github.com/spec-kit/jira-gateway/pkg/util/errorutil"
)

// UpstreamClient abstracts the Jira REST client.
type UpstreamClient interface {
	CreateTicket(ctx context.Context, ticket domain.TicketRequest) (*jira.Result, error)
	IssueMetadata(ctx context.Context) (*jira.Result, error)
}

// WebhookNotifier abstracts the best-effort outcome notifier.
type WebhookNotifier interface {
	Notify(webhookURL string, payload notify.Payload)
}

// TicketOutcome is the per-ticket entry of a batch response: either the raw
// upstream payload or an error detail, never both.
type TicketOutcome struct {
	Payload map[string]any
	Error   string
}

// TicketService orchestrates concurrent ticket creation against the upstream
// API with a per-ticket webhook notification.
type TicketService struct {
	upstream  UpstreamClient
	notifier  WebhookNotifier
	projectID string
	logger    *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(upstream UpstreamClient, notifier WebhookNotifier, projectID string, logger *zap.Logger) *TicketService {
	return &TicketService{
		upstream:  upstream,
		notifier:  notifier,
		projectID: projectID,
		logger:    logger,
	}
}

// CreateTickets fans the batch out concurrently and collects outcomes in
// input order. Upstream rejections become per-ticket error entries; a
// transport failure still notifies the webhook for its ticket, then
// propagates after all siblings have finished.
func (s *TicketService) CreateTickets(ctx context.Context, tickets []domain.TicketRequest, webhookURL string) ([]TicketOutcome, error) {
	outcomes := make([]TicketOutcome, len(tickets))
	if len(tickets) == 0 {
		return outcomes, nil
	}

	errs := make([]error, len(tickets))

	var wg sync.WaitGroup
	for i, ticket := range tickets {
		wg.Add(1)
		go func(i int, ticket domain.TicketRequest) {
			defer wg.Done()
			outcomes[i], errs[i] = s.createOne(ctx, ticket, webhookURL)
		}(i, ticket)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return outcomes, apperrors.NewUpstreamUnavailable(err)
		}
	}
	return outcomes, nil
}

// createOne performs a single upstream call and sends exactly one webhook
// notification after the attempt resolves, regardless of outcome.
func (s *TicketService) createOne(ctx context.Context, ticket domain.TicketRequest, webhookURL string) (TicketOutcome, error) {
	result, err := s.upstream.CreateTicket(ctx, ticket)
	if err != nil {
		s.logger.Error("ticket creation transport failure",
			zap.String("summary", ticket.Summary),
			zap.Error(err))
		s.notifier.Notify(webhookURL, notify.Payload{Success: false, Error: err.Error()})
		return TicketOutcome{}, err
	}

	if result.Failed() {
		s.notifier.Notify(webhookURL, notify.Payload{Success: false, Error: result.ErrDetail})
		return TicketOutcome{Error: result.ErrDetail}, nil
	}

	s.notifier.Notify(webhookURL, notify.Payload{Success: true, TicketID: result.TicketID})
	return TicketOutcome{Payload: result.Payload}, nil
}

// ProjectIssueTypes fetches the create metadata and extracts the configured
// project's details. A missing project yields a NotFound error; an upstream
// rejection is proxied with its status.
func (s *TicketService) ProjectIssueTypes(ctx context.Context) (*domain.ProjectDetails, error) {
	result, err := s.upstream.IssueMetadata(ctx)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable(err)
	}
	if result.Failed() {
		return nil, apperrors.NewUpstreamRejected(result.ErrDetail, result.StatusCode)
	}

	projects, _ := result.Payload["projects"].([]any)
	for _, raw := range projects {
		project, ok := raw.(map[string]any)
		if !ok || stringField(project, "id") != s.projectID {
			continue
		}

		details := &domain.ProjectDetails{
			Project: domain.Project{
				ID:   stringField(project, "id"),
				Key:  stringField(project, "key"),
				Name: stringField(project, "name"),
			},
			IssueTypes: []domain.IssueType{},
		}

		issueTypes, _ := project["issuetypes"].([]any)
		for _, rawType := range issueTypes {
			issueType, ok := rawType.(map[string]any)
			if !ok {
				continue
			}
			details.IssueTypes = append(details.IssueTypes, domain.IssueType{
				ID:          stringField(issueType, "id"),
				Name:        stringField(issueType, "name"),
				Description: stringField(issueType, "description"),
			})
		}
		return details, nil
	}

	return nil, apperrors.NewNotFound("project", map[string]any{"project_id": s.projectID})
}

func stringField(m map[string]any, key string) string {
	val, _ := m[key].(string)
	return val
}
