package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/jira-gateway/internal/config"
)

// Payload is the outcome reported to a caller's webhook after each ticket
// attempt. TicketID is present only on success, Error only on failure.
type Payload struct {
	Success  bool   `json:"success"`
	TicketID string `json:"ticket_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Notifier posts outcome payloads to caller-supplied webhook URLs.
// Delivery is best-effort: failures are logged and never surfaced.
type Notifier struct {
	httpClient *http.Client
	timeout    config.NotifierConfig
	logger     *zap.Logger
}

// NewNotifier constructs a Notifier with a pooled HTTP client.
func NewNotifier(cfg config.NotifierConfig, logger *zap.Logger) *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		timeout:    cfg,
		logger:     logger,
	}
}

// Notify sends a single POST with the payload as JSON body. It deliberately
// uses its own detached context so a caller disconnect cannot suppress the
// notification for an attempt that already resolved.
func (n *Notifier) Notify(webhookURL string, payload Payload) {
	deliveryID := uuid.NewString()

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("encode webhook payload", zap.String("delivery_id", deliveryID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("build webhook request",
			zap.String("delivery_id", deliveryID),
			zap.String("url", webhookURL),
			zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("delivery_id", deliveryID),
			zap.String("url", webhookURL),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	n.logger.Debug("webhook delivered",
		zap.String("delivery_id", deliveryID),
		zap.String("url", webhookURL),
		zap.Bool("success", payload.Success),
		zap.Int("status", resp.StatusCode))
}
