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

const tripColumns = `id, owner_id, name, description, created_at`

// CreateTrip persists a new trip together with its members.
func (s *Store) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO trips (id, owner_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)`),
			trip.ID, trip.OwnerID, trip.Name, trip.Description, trip.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip: %w", err)
		}

		for _, member := range trip.Members {
			if err := addMember(ctx, tx, trip.ID, member.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetTrip retrieves a trip by ID, including its members.
func (s *Store) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	trip := &models.Trip{}
	query := s.db.Rebind(`SELECT ` + tripColumns + ` FROM trips WHERE id = ?`)
	if err := s.db.GetContext(ctx, trip, query, id); err != nil {
		return nil, notFound(err, "trip", id)
	}

	trips := []models.Trip{*trip}
	if err := s.loadMembers(ctx, trips); err != nil {
		return nil, err
	}
	return &trips[0], nil
}

// ListTripsForUser returns trips owned by userID or where one of the members
// is linked to userID, newest first.
func (s *Store) ListTripsForUser(ctx context.Context, userID string) ([]models.Trip, error) {
	query := s.db.Rebind(`
		SELECT ` + tripColumns + ` FROM trips
		WHERE owner_id = ?
		   OR id IN (
			SELECT tm.trip_id FROM trip_members tm
			JOIN friends f ON f.id = tm.friend_id
			WHERE f.linked_user_id = ?
		   )
		ORDER BY created_at DESC, id
	`)

	var trips []models.Trip
	if err := s.db.SelectContext(ctx, &trips, query, userID, userID); err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	if err := s.loadMembers(ctx, trips); err != nil {
		return nil, err
	}
	return trips, nil
}

type memberRow struct {
	TripID string `db:"trip_id"`
	models.Friend
}

func (s *Store) loadMembers(ctx context.Context, trips []models.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	ids := make([]string, len(trips))
	byID := make(map[string]*models.Trip, len(trips))
	for i := range trips {
		ids[i] = trips[i].ID
		byID[trips[i].ID] = &trips[i]
	}

	query, args, err := in(s.db, `
		SELECT tm.trip_id, f.id, f.owner_id, f.name, COALESCE(f.email, '') AS email,
		       COALESCE(f.linked_user_id, '') AS linked_user_id, f.created_at
		FROM trip_members tm
		JOIN friends f ON f.id = tm.friend_id
		WHERE tm.trip_id IN (?)
		ORDER BY f.name, f.id
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to build members query: %w", err)
	}

	var rows []memberRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("failed to get trip members: %w", err)
	}
	for _, row := range rows {
		trip := byID[row.TripID]
		trip.Members = append(trip.Members, row.Friend)
	}
	return nil
}

// AddTripMember adds a friend to a trip. Adding an existing member is a no-op.
func (s *Store) AddTripMember(ctx context.Context, tripID, friendID string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return addMember(ctx, tx, tripID, friendID)
	})
}

func addMember(ctx context.Context, tx *sqlx.Tx, tripID, friendID string) error {
	var exists int
	err := tx.GetContext(ctx, &exists,
		tx.Rebind(`SELECT COUNT(*) FROM trip_members WHERE trip_id = ? AND friend_id = ?`),
		tripID, friendID,
	)
	if err != nil {
		return fmt.Errorf("failed to check trip member: %w", err)
	}
	if exists > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO trip_members (trip_id, friend_id) VALUES (?, ?)`),
		tripID, friendID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip member: %w", err)
	}
	return nil
}

// RemoveTripMember removes a friend from a trip.
func (s *Store) RemoveTripMember(ctx context.Context, tripID, friendID string) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM trip_members WHERE trip_id = ? AND friend_id = ?`),
		tripID, friendID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove trip member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s of trip %s: %w", friendID, tripID, storage.ErrNotFound)
	}
	return nil
}

// DeleteTrip removes a trip; its members and expenses cascade.
func (s *Store) DeleteTrip(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM trips WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("trip %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
