package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const notificationColumns = `id, user_id, COALESCE(sender_id, '') AS sender_id,
	COALESCE(trip_id, '') AS trip_id, title, message, type, metadata, is_read, created_at`

// CreateNotification inserts a notification, assigning ID and CreatedAt when empty.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}
	if n.Metadata == "" {
		n.Metadata = "{}"
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO notifications (id, user_id, sender_id, trip_id, title, message, type, metadata, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		n.ID, n.UserID, nullable(n.SenderID), nullable(n.TripID),
		n.Title, n.Message, n.Type, n.Metadata, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns userID's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND is_read = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC, id`

	var out []models.Notification
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead marks one of userID's notifications as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`),
		true, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of userID as read.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?`),
		true, userID, false,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count marked notifications: %w", err)
	}
	return n, nil
}

// CountUnreadNotifications returns the number of unread notifications.
func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?`),
		userID, false,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
