package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestNotificationService(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register("Alice", "alice@example.com")
	bob := env.register("Bob", "bob@example.com")
	ctx := context.Background()

	bobRef := alice.addFriend(t, "Bob", "bob@example.com")
	for _, title := range []string{"Dinner", "Taxi"} {
		alice.saveExpense(t, &api.SaveExpenseRequest{
			Title: title, Amount: dec("20"),
			Form: api.SplitForm{Split: true, IncludeOwner: true, FriendIDs: []string{bobRef.ID}},
		})
	}

	list := bob.listNotifications(t)
	if len(list.Notifications) != 2 || list.UnreadCount != 2 {
		t.Fatalf("notifications = %d unread = %d, want 2 and 2", len(list.Notifications), list.UnreadCount)
	}
	first := list.Notifications[0].ID

	t.Run("another user cannot mark it read", func(t *testing.T) {
		_, err := alice.notifications.MarkRead.CallUnary(ctx, connect.NewRequest(&api.IDRequest{ID: first}))
		expectCode(t, err, connect.CodeNotFound)
	})

	t.Run("mark one read", func(t *testing.T) {
		if _, err := bob.notifications.MarkRead.CallUnary(ctx, connect.NewRequest(&api.IDRequest{ID: first})); err != nil {
			t.Fatalf("MarkRead failed: %v", err)
		}
		if got := bob.listNotifications(t).UnreadCount; got != 1 {
			t.Errorf("unread = %d, want 1", got)
		}
		unread, err := bob.notifications.ListNotifications.CallUnary(ctx, connect.NewRequest(&api.ListNotificationsRequest{UnreadOnly: true}))
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(unread.Msg.Notifications) != 1 || unread.Msg.Notifications[0].ID == first {
			t.Errorf("unread notifications = %+v", unread.Msg.Notifications)
		}
	})

	t.Run("mark all read", func(t *testing.T) {
		resp, err := bob.notifications.MarkAllRead.CallUnary(ctx, connect.NewRequest(&api.Empty{}))
		if err != nil {
			t.Fatalf("MarkAllRead failed: %v", err)
		}
		if resp.Msg.Updated != 1 {
			t.Errorf("updated = %d, want 1", resp.Msg.Updated)
		}
		if got := bob.listNotifications(t).UnreadCount; got != 0 {
			t.Errorf("unread = %d, want 0", got)
		}
	})
}
