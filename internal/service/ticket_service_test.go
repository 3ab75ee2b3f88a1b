package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/jira-gateway/internal/domain"
	"github.com/spec-kit/jira-gateway/internal/jira"
	"github.com/spec-kit/jira-gateway/internal/notify"
	apperrors "github.com/spec-kit/jira-gateway/pkg/util/errorutil"
)

// eventLog records the interleaving of upstream completions and notifications.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.events...)
}

type fakeUpstream struct {
	log      *eventLog
	createFn func(ctx context.Context, ticket domain.TicketRequest) (*jira.Result, error)
	metaFn   func(ctx context.Context) (*jira.Result, error)
}

func (f *fakeUpstream) CreateTicket(ctx context.Context, ticket domain.TicketRequest) (*jira.Result, error) {
	result, err := f.createFn(ctx, ticket)
	if f.log != nil {
		f.log.add("upstream:" + ticket.Summary)
	}
	return result, err
}

func (f *fakeUpstream) IssueMetadata(ctx context.Context) (*jira.Result, error) {
	return f.metaFn(ctx)
}

type recordingNotifier struct {
	log *eventLog
	mu  sync.Mutex

	payloads []notify.Payload
}

func (n *recordingNotifier) Notify(webhookURL string, payload notify.Payload) {
	n.mu.Lock()
	n.payloads = append(n.payloads, payload)
	n.mu.Unlock()
	if n.log != nil {
		tag := payload.TicketID
		if tag == "" {
			tag = payload.Error
		}
		n.log.add("notify:" + tag)
	}
}

func (n *recordingNotifier) all() []notify.Payload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Payload{}, n.payloads...)
}

func successResult(id string) *jira.Result {
	return &jira.Result{
		StatusCode: http.StatusCreated,
		Payload:    map[string]any{"id": id, "key": "PRJ-" + id},
		TicketID:   id,
	}
}

func TestCreateTicketsPreservesOrder(t *testing.T) {
	// Earlier tickets resolve later, so ordered output proves index
	// addressing rather than completion order.
	delays := map[string]time.Duration{"a": 30 * time.Millisecond, "b": 15 * time.Millisecond, "c": 0}
	upstream := &fakeUpstream{
		createFn: func(_ context.Context, ticket domain.TicketRequest) (*jira.Result, error) {
			time.Sleep(delays[ticket.Summary])
			return successResult("id-" + ticket.Summary), nil
		},
	}
	notifier := &recordingNotifier{}
	svc := NewTicketService(upstream, notifier, "10000", zap.NewNop())

	tickets := []domain.TicketRequest{
		{Summary: "a", IssueType: "1"},
		{Summary: "b", IssueType: "1"},
		{Summary: "c", IssueType: "1"},
	}
	outcomes, err := svc.CreateTickets(context.Background(), tickets, "http://hook")
	if err != nil {
		t.Fatalf("CreateTickets: %v", err)
	}

	if len(outcomes) != len(tickets) {
		t.Fatalf("got %d outcomes for %d tickets", len(outcomes), len(tickets))
	}
	for i, ticket := range tickets {
		want := "id-" + ticket.Summary
		if got := outcomes[i].Payload["id"]; got != want {
			t.Errorf("outcome %d id = %v, want %q", i, got, want)
		}
	}
	if got := len(notifier.all()); got != len(tickets) {
		t.Errorf("sent %d notifications, want %d", got, len(tickets))
	}
}

func TestCreateTicketsEmptyBatch(t *testing.T) {
	upstream := &fakeUpstream{
		createFn: func(context.Context, domain.TicketRequest) (*jira.Result, error) {
			t.Fatal("upstream must not be called for an empty batch")
			return nil, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := NewTicketService(upstream, notifier, "10000", zap.NewNop())

	outcomes, err := svc.CreateTickets(context.Background(), nil, "http://hook")
	if err != nil {
		t.Fatalf("CreateTickets: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("expected empty outcomes, got %v", outcomes)
	}
	if len(notifier.all()) != 0 {
		t.Errorf("expected no notifications, got %v", notifier.all())
	}
}

func TestCreateTicketsNotifiesAfterUpstreamResolves(t *testing.T) {
	log := &eventLog{}
	upstream := &fakeUpstream{
		log: log,
		createFn: func(context.Context, domain.TicketRequest) (*jira.Result, error) {
			return successResult("123"), nil
		},
	}
	notifier := &recordingNotifier{log: log}
	svc := NewTicketService(upstream, notifier, "10000", zap.NewNop())

	if _, err := svc.CreateTickets(context.Background(), []domain.TicketRequest{{Summary: "S", IssueType: "1"}}, "http://hook"); err != nil {
		t.Fatalf("CreateTickets: %v", err)
	}

	events := log.all()
	if len(events) != 2 || events[0] != "upstream:S" || events[1] != "notify:123" {
		t.Fatalf("unexpected event order: %v", events)
	}

	payloads := notifier.all()
	if len(payloads) != 1 || !payloads[0].Success || payloads[0].TicketID != "123" || payloads[0].Error != "" {
		t.Errorf("payload = %+v", payloads[0])
	}
}

func TestCreateTicketsRejectionDoesNotFailBatch(t *testing.T) {
	upstream := &fakeUpstream{
		createFn: func(_ context.Context, ticket domain.TicketRequest) (*jira.Result, error) {
			if ticket.Summary == "bad" {
				return &jira.Result{StatusCode: http.StatusBadRequest, ErrDetail: "bad issue type"}, nil
			}
			return successResult("ok-1"), nil
		},
	}
	notifier := &recordingNotifier{}
	svc := NewTicketService(upstream, notifier, "10000", zap.NewNop())

	tickets := []domain.TicketRequest{
		{Summary: "good", IssueType: "1"},
		{Summary: "bad", IssueType: "999"},
	}
	outcomes, err := svc.CreateTickets(context.Background(), tickets, "http://hook")
	if err != nil {
		t.Fatalf("per-item rejection must not fail the batch: %v", err)
	}

	if outcomes[0].Payload["id"] != "ok-1" {
		t.Errorf("sibling outcome = %+v", outcomes[0])
	}
	if !strings.Contains(outcomes[1].Error, "bad issue type") {
		t.Errorf("rejected outcome = %+v", outcomes[1])
	}

	var failure *notify.Payload
	payloads := notifier.all()
	for i := range payloads {
		if !payloads[i].Success {
			failure = &payloads[i]
		}
	}
	if failure == nil {
		t.Fatal("expected a failure notification")
	}
	if !strings.Contains(failure.Error, "bad issue type") || failure.TicketID != "" {
		t.Errorf("failure payload = %+v", failure)
	}
}

func TestCreateTicketsTransportErrorNotifiesThenPropagates(t *testing.T) {
	transportErr := errors.New("connection reset")
	upstream := &fakeUpstream{
		createFn: func(_ context.Context, ticket domain.TicketRequest) (*jira.Result, error) {
			if ticket.Summary == "doomed" {
				return nil, transportErr
			}
			return successResult("ok-1"), nil
		},
	}
	notifier := &recordingNotifier{}
	svc := NewTicketService(upstream, notifier, "10000", zap.NewNop())

	tickets := []domain.TicketRequest{
		{Summary: "fine", IssueType: "1"},
		{Summary: "doomed", IssueType: "1"},
	}
	outcomes, err := svc.CreateTickets(context.Background(), tickets, "http://hook")
	if err == nil {
		t.Fatal("expected the transport error to propagate")
	}

	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != http.StatusBadGateway {
		t.Errorf("error = %v, want 502 domain error", err)
	}
	if !errors.Is(err, transportErr) {
		t.Errorf("error %v does not wrap the transport cause", err)
	}

	// The sibling still completed.
	if outcomes[0].Payload["id"] != "ok-1" {
		t.Errorf("sibling outcome = %+v", outcomes[0])
	}

	// Exactly one notification per ticket, including the failed one.
	payloads := notifier.all()
	if len(payloads) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(payloads))
	}
	var sawFailure bool
	for _, payload := range payloads {
		if !payload.Success {
			sawFailure = true
			if !strings.Contains(payload.Error, "connection reset") {
				t.Errorf("failure payload = %+v", payload)
			}
		}
	}
	if !sawFailure {
		t.Error("expected a failure notification for the doomed ticket")
	}
}

const metadataPayload = `{
  "projects": [
    {"id": "10000", "key": "PRJ", "name": "Project",
     "issuetypes": [
       {"id": "10001", "name": "Task", "description": "A task."},
       {"id": "10002", "name": "Bug", "description": "A bug."}
     ]},
    {"id": "20000", "key": "OTH", "name": "Other", "issuetypes": []}
  ]
}`

func metadataResult(t *testing.T) *jira.Result {
	t.Helper()
	payload := map[string]any{}
	if err := json.Unmarshal([]byte(metadataPayload), &payload); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &jira.Result{StatusCode: http.StatusOK, Payload: payload}
}

func TestProjectIssueTypes(t *testing.T) {
	upstream := &fakeUpstream{
		metaFn: func(context.Context) (*jira.Result, error) { return metadataResult(t), nil },
	}
	svc := NewTicketService(upstream, &recordingNotifier{}, "10000", zap.NewNop())

	details, err := svc.ProjectIssueTypes(context.Background())
	if err != nil {
		t.Fatalf("ProjectIssueTypes: %v", err)
	}

	if details.Project.ID != "10000" || details.Project.Key != "PRJ" || details.Project.Name != "Project" {
		t.Errorf("project = %+v", details.Project)
	}
	if len(details.IssueTypes) != 2 {
		t.Fatalf("issue types = %+v", details.IssueTypes)
	}
	if details.IssueTypes[1].Name != "Bug" || details.IssueTypes[1].Description != "A bug." {
		t.Errorf("issue type = %+v", details.IssueTypes[1])
	}
}

func TestProjectIssueTypesProjectMissing(t *testing.T) {
	upstream := &fakeUpstream{
		metaFn: func(context.Context) (*jira.Result, error) { return metadataResult(t), nil },
	}
	svc := NewTicketService(upstream, &recordingNotifier{}, "99999", zap.NewNop())

	_, err := svc.ProjectIssueTypes(context.Background())
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != http.StatusNotFound {
		t.Fatalf("error = %v, want 404", err)
	}
}

func TestProjectIssueTypesUpstreamRejected(t *testing.T) {
	upstream := &fakeUpstream{
		metaFn: func(context.Context) (*jira.Result, error) {
			return &jira.Result{StatusCode: http.StatusForbidden, ErrDetail: "no browse permission"}, nil
		},
	}
	svc := NewTicketService(upstream, &recordingNotifier{}, "10000", zap.NewNop())

	_, err := svc.ProjectIssueTypes(context.Background())
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != http.StatusForbidden {
		t.Fatalf("error = %v, want proxied 403", err)
	}
	if !strings.Contains(domainErr.Message, "no browse permission") {
		t.Errorf("message = %q", domainErr.Message)
	}
}
