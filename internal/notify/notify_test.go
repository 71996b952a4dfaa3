package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

type memoryNotifications struct {
	storage.NotificationStore
	created []models.Notification
	fail    error
}

func (m *memoryNotifications) CreateNotification(_ context.Context, n *models.Notification) error {
	if m.fail != nil {
		return m.fail
	}
	n.ID = "n1"
	m.created = append(m.created, *n)
	return nil
}

type recordingPublisher struct {
	userIDs []string
	events  []api.Event
	fail    error
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, event api.Event) error {
	p.userIDs = append(p.userIDs, userID)
	p.events = append(p.events, event)
	return p.fail
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNotify(t *testing.T) {
	store := &memoryNotifications{}
	pub := &recordingPublisher{}
	n := &models.Notification{
		UserID:   "u2",
		SenderID: "u1",
		Title:    "New Expense Split",
		Message:  "You owe 25.00 for Dinner",
		Type:     models.NotificationExpense,
		Metadata: Metadata(map[string]string{"expense_id": "e1", "amount": "25.00"}),
	}

	if err := New(store, pub, nil, quiet()).Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("stored = %d, want 1", len(store.created))
	}
	if len(pub.events) != 1 || pub.userIDs[0] != "u2" || pub.events[0].Type != api.EventNotification {
		t.Fatalf("published = %v %+v", pub.userIDs, pub.events)
	}

	var got api.Notification
	if err := json.Unmarshal(pub.events[0].Data, &got); err != nil {
		t.Fatalf("event data: %v", err)
	}
	if got.ID != "n1" || got.Message != n.Message {
		t.Errorf("pushed %+v", got)
	}
	var meta map[string]string
	if err := json.Unmarshal(got.Metadata, &meta); err != nil || meta["expense_id"] != "e1" {
		t.Errorf("metadata = %s (%v)", got.Metadata, err)
	}
}

func TestNotify_StoreFailure(t *testing.T) {
	store := &memoryNotifications{fail: errors.New("disk full")}
	pub := &recordingPublisher{}

	err := New(store, pub, nil, quiet()).Notify(context.Background(), &models.Notification{UserID: "u2"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(pub.events) != 0 {
		t.Error("published a notification that was never stored")
	}
}

func TestNotify_PublishFailureIsNotReturned(t *testing.T) {
	pub := &recordingPublisher{fail: errors.New("redis down")}
	err := New(&memoryNotifications{}, pub, nil, quiet()).Notify(context.Background(), &models.Notification{UserID: "u2"})
	if err != nil {
		t.Errorf("Notify = %v, want nil", err)
	}
}
