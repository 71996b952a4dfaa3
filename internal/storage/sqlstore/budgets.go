package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const budgetColumns = `id, user_id, COALESCE(category_id, '') AS category_id, period, amount,
	COALESCE(start_date, '') AS start_date, COALESCE(end_date, '') AS end_date, created_at, updated_at`

// CreateBudget inserts a budget, assigning ID and timestamps.
func (s *Store) CreateBudget(ctx context.Context, b *models.Budget) error {
	now := time.Now().Unix()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt, b.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO budgets (id, user_id, category_id, period, amount, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		b.ID, b.UserID, nullable(b.CategoryID), b.Period, b.Amount,
		nullable(b.StartDate), nullable(b.EndDate), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	b := &models.Budget{}
	query := s.db.Rebind(`SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`)
	if err := s.db.GetContext(ctx, b, query, id); err != nil {
		return nil, notFound(err, "budget", id)
	}
	return b, nil
}

// ListBudgets returns userID's budgets, newest first.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]models.Budget, error) {
	var out []models.Budget
	query := s.db.Rebind(`SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ? ORDER BY created_at DESC, id`)
	if err := s.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return out, nil
}

// UpdateBudget rewrites category, period, amount and dates.
func (s *Store) UpdateBudget(ctx context.Context, b *models.Budget) error {
	b.UpdatedAt = time.Now().Unix()
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE budgets SET category_id = ?, period = ?, amount = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`),
		nullable(b.CategoryID), b.Period, b.Amount, nullable(b.StartDate), nullable(b.EndDate), b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %s: %w", b.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM budgets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
