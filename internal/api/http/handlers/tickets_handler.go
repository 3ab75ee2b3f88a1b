package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jira-gateway/internal/api/dto"
	"github.com/spec-kit/jira-gateway/internal/auth"
	"github.com/spec-kit/jira-gateway/internal/domain"
	"github.com/spec-kit/jira-gateway/internal/service"
	apperrors "github.com/spec-kit/jira-gateway/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket-creation and metadata endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTickets POST /generate. Accepts a batch {"tickets": [...]} or a bare
// single ticket object, which is wrapped into a one-element batch.
func (h *TicketsHandler) CreateTickets(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("missing or invalid API key")
	}

	payloads, err := parseTicketsBody(c.Body())
	if err != nil {
		return err
	}

	tickets := make([]domain.TicketRequest, 0, len(payloads))
	for i, payload := range payloads {
		if strings.TrimSpace(payload.Summary) == "" {
			return apperrors.NewValidationError("summary required", map[string]any{"index": i})
		}
		if strings.TrimSpace(payload.IssueType) == "" {
			return apperrors.NewValidationError("issue_type required", map[string]any{"index": i})
		}
		tickets = append(tickets, domain.TicketRequest{
			Summary:     payload.Summary,
			Description: payload.Description,
			IssueType:   payload.IssueType,
		})
	}

	outcomes, err := h.service.CreateTickets(c.UserContext(), tickets, identity.WebhookURL)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(ticketsResponse(outcomes))
}

// IssueTypes GET /issue-types.
func (h *TicketsHandler) IssueTypes(c *fiber.Ctx) error {
	if _, ok := auth.IdentityFromContext(c); !ok {
		return apperrors.NewUnauthorized("missing or invalid API key")
	}

	details, err := h.service.ProjectIssueTypes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(details)
}

func parseTicketsBody(body []byte) ([]dto.TicketPayload, error) {
	var batch dto.TicketsCreateRequest
	if err := json.Unmarshal(body, &batch); err == nil && batch.Tickets != nil {
		return *batch.Tickets, nil
	}

	var single dto.TicketPayload
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	return []dto.TicketPayload{single}, nil
}

func ticketsResponse(outcomes []service.TicketOutcome) dto.TicketsCreateResponse {
	entries := make([]map[string]any, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			entries = append(entries, map[string]any{
				"error": fmt.Sprintf("Request failed: %s", outcome.Error),
			})
			continue
		}
		entries = append(entries, outcome.Payload)
	}
	return dto.TicketsCreateResponse{Tickets: entries}
}
