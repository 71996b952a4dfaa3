package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const friendColumns = `id, owner_id, name, COALESCE(email, '') AS email,
	COALESCE(linked_user_id, '') AS linked_user_id, created_at`

// CreateFriend inserts a friend record, assigning ID and CreatedAt when empty.
func (s *Store) CreateFriend(ctx context.Context, friend *models.Friend) error {
	if friend.ID == "" {
		friend.ID = uuid.New().String()
	}
	if friend.CreatedAt == 0 {
		friend.CreatedAt = time.Now().Unix()
	}
	friend.Email = normalizeEmail(friend.Email)

	query := s.db.Rebind(`
		INSERT INTO friends (id, owner_id, name, email, linked_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		friend.ID, friend.OwnerID, friend.Name,
		nullable(friend.Email), nullable(friend.LinkedUserID), friend.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create friend: %w", err)
	}
	return nil
}

// GetFriend retrieves a friend by ID.
func (s *Store) GetFriend(ctx context.Context, id string) (*models.Friend, error) {
	friend := &models.Friend{}
	query := s.db.Rebind(`SELECT ` + friendColumns + ` FROM friends WHERE id = ?`)
	if err := s.db.GetContext(ctx, friend, query, id); err != nil {
		return nil, notFound(err, "friend", id)
	}
	return friend, nil
}

// GetFriends retrieves the friends with the given IDs.
func (s *Store) GetFriends(ctx context.Context, ids []string) ([]models.Friend, error) {
	return getFriends(ctx, s.db, ids)
}

func getFriends(ctx context.Context, q sqlx.ExtContext, ids []string) ([]models.Friend, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := in(q, `SELECT `+friendColumns+` FROM friends WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build friends query: %w", err)
	}
	var friends []models.Friend
	if err := sqlx.SelectContext(ctx, q, &friends, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	return friends, nil
}

// ListFriends returns the friends owned by ownerID, by name.
func (s *Store) ListFriends(ctx context.Context, ownerID string) ([]models.Friend, error) {
	var friends []models.Friend
	query := s.db.Rebind(`SELECT ` + friendColumns + ` FROM friends WHERE owner_id = ? ORDER BY name, id`)
	if err := s.db.SelectContext(ctx, &friends, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}

// ListFriendsLinkedTo returns every friend record resolving to userID.
func (s *Store) ListFriendsLinkedTo(ctx context.Context, userID string) ([]models.Friend, error) {
	var friends []models.Friend
	query := s.db.Rebind(`SELECT ` + friendColumns + ` FROM friends WHERE linked_user_id = ? ORDER BY created_at, id`)
	if err := s.db.SelectContext(ctx, &friends, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list linked friends: %w", err)
	}
	return friends, nil
}

// UpdateFriend updates name, email and link of an existing friend.
func (s *Store) UpdateFriend(ctx context.Context, friend *models.Friend) error {
	friend.Email = normalizeEmail(friend.Email)
	query := s.db.Rebind(`UPDATE friends SET name = ?, email = ?, linked_user_id = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		friend.Name, nullable(friend.Email), nullable(friend.LinkedUserID), friend.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update friend: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("friend %s: %w", friend.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteFriend removes a friend; their split rows and trip memberships cascade.
func (s *Store) DeleteFriend(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var paid int
		if err := tx.GetContext(ctx, &paid, tx.Rebind(`SELECT COUNT(*) FROM expenses WHERE payer_id = ?`), id); err != nil {
			return fmt.Errorf("failed to count paid expenses: %w", err)
		}
		if paid > 0 {
			return fmt.Errorf("friend %s paid %d expenses: %w", id, paid, storage.ErrInUse)
		}

		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM friends WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete friend: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("friend %s: %w", id, storage.ErrNotFound)
		}
		return nil
	})
}

// LinkFriendsByEmail links unlinked friend records carrying email to userID.
// A user's own friend records are never linked to themselves.
func (s *Store) LinkFriendsByEmail(ctx context.Context, email, userID string) (int64, error) {
	query := s.db.Rebind(`
		UPDATE friends SET linked_user_id = ?
		WHERE email = ? AND linked_user_id IS NULL AND owner_id <> ?
	`)
	result, err := s.db.ExecContext(ctx, query, userID, normalizeEmail(email), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to link friends: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count linked friends: %w", err)
	}
	return n, nil
}
