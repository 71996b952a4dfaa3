// Package notify persists in-app notifications and pushes them to the
// recipient's open sessions.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/realtime"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

type Notifier struct {
	store     storage.NotificationStore
	publisher realtime.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Notifier. publisher and m may be nil.
func New(store storage.NotificationStore, publisher realtime.Publisher, m *metrics.Metrics, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{store: store, publisher: publisher, metrics: m, logger: logger}
}

// Notify stores n and then pushes it. A failed push is logged; only a
// failed write is returned.
func (s *Notifier) Notify(ctx context.Context, n *models.Notification) error {
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues(string(n.Type)).Inc()
	}
	s.logger.Debug("Notification stored", "notification_id", n.ID, "user_id", n.UserID, "type", n.Type)

	data, err := json.Marshal(ToAPI(*n))
	if err != nil {
		return nil
	}
	s.Push(ctx, n.UserID, api.Event{Type: api.EventNotification, Data: data})
	return nil
}

// Push sends an event without storing anything.
func (s *Notifier) Push(ctx context.Context, userID string, event api.Event) {
	if s.publisher == nil || userID == "" {
		return
	}
	if err := s.publisher.Publish(ctx, userID, event); err != nil {
		s.logger.Warn("Realtime publish failed", "user_id", userID, "type", event.Type, "error", err)
	}
}

// Metadata encodes a notification's metadata object.
func Metadata(fields map[string]string) string {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// ToAPI converts a stored notification to its wire form.
func ToAPI(n models.Notification) api.Notification {
	var metadata json.RawMessage
	if n.Metadata != "" && json.Valid([]byte(n.Metadata)) {
		metadata = json.RawMessage(n.Metadata)
	}
	return api.Notification{
		ID:        n.ID,
		SenderID:  n.SenderID,
		TripID:    n.TripID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Metadata:  metadata,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
