// Package notifier forwards placed orders to the pharmacy's messaging
// webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

type Handler struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHandler(webhookURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		webhookURL: webhookURL,
		httpClient: client,
		logger:     logger,
	}
}

type webhookRequest struct {
	To        string `json:"to"`
	Reference string `json:"reference"`
	Link      string `json:"link"`
	Text      string `json:"text"`
}

// Handle delivers one order.placed event. Delivery is best effort: failures
// are logged and the message is still acknowledged.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping malformed order placed event", "error", err)
		return nil
	}

	logger := h.logger.With("order_id", event.OrderID, "reference", event.Reference)

	if h.webhookURL == "" {
		logger.Info("no messaging webhook configured", "link", event.Link)
		return nil
	}

	if err := h.send(ctx, event); err != nil {
		logger.Warn("failed to deliver order message", "error", err)
		return nil
	}

	logger.Info("order message delivered", "phone", event.Phone)
	return nil
}

func (h *Handler) send(ctx context.Context, event domain.OrderPlacedEvent) error {
	data, err := json.Marshal(webhookRequest{
		To:        event.Phone,
		Reference: event.Reference,
		Link:      event.Link,
		Text:      event.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("messaging webhook returned status %d", resp.StatusCode)
	}

	return nil
}
