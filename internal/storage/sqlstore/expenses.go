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

const expenseColumns = `id, user_id, title, COALESCE(note, '') AS note, amount, currency, date,
	COALESCE(category_id, '') AS category_id, COALESCE(trip_id, '') AS trip_id,
	COALESCE(payer_id, '') AS payer_id, is_settlement,
	COALESCE(payment_mode, '') AS payment_mode, created_at, updated_at`

const splitColumns = `id, expense_id, COALESCE(friend_id, '') AS friend_id,
	COALESCE(owed_to_friend_id, '') AS owed_to_friend_id, share_amount`

// SaveExpense upserts the expense and replaces its split rows atomically.
func (s *Store) SaveExpense(ctx context.Context, expense *models.Expense) error {
	now := time.Now().Unix()
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now
	if expense.Date == "" {
		expense.Date = time.Now().Format(models.DateLayout)
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE expenses SET title = ?, note = ?, amount = ?, currency = ?, date = ?,
				category_id = ?, trip_id = ?, payer_id = ?, is_settlement = ?,
				payment_mode = ?, updated_at = ?
			WHERE id = ?
		`),
			expense.Title, nullable(expense.Note), expense.Amount, expense.Currency, expense.Date,
			nullable(expense.CategoryID), nullable(expense.TripID), nullable(expense.PayerID), expense.IsSettlement,
			nullable(expense.PaymentMode), expense.UpdatedAt,
			expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}

		if n, _ := result.RowsAffected(); n == 0 {
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO expenses (id, user_id, title, note, amount, currency, date, category_id,
					trip_id, payer_id, is_settlement, payment_mode, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`),
				expense.ID, expense.UserID, expense.Title, nullable(expense.Note), expense.Amount,
				expense.Currency, expense.Date, nullable(expense.CategoryID), nullable(expense.TripID),
				nullable(expense.PayerID), expense.IsSettlement, nullable(expense.PaymentMode),
				expense.CreatedAt, expense.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM expense_splits WHERE expense_id = ?`), expense.ID); err != nil {
			return fmt.Errorf("failed to delete splits: %w", err)
		}

		for i := range expense.Splits {
			split := &expense.Splits[i]
			split.ID = uuid.New().String()
			split.ExpenseID = expense.ID
			_, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO expense_splits (id, expense_id, seq, friend_id, owed_to_friend_id, share_amount)
				VALUES (?, ?, ?, ?, ?, ?)
			`),
				split.ID, split.ExpenseID, i,
				nullable(split.FriendID), nullable(split.OwedToFriendID), split.ShareAmount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
		return nil
	})
}

// GetExpense retrieves an expense by ID, including its split rows.
func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense := &models.Expense{}
	query := s.db.Rebind(`SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`)
	if err := s.db.GetContext(ctx, expense, query, id); err != nil {
		return nil, notFound(err, "expense", id)
	}

	expenses := []models.Expense{*expense}
	if err := s.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return &expenses[0], nil
}

// ListVisibleExpenses returns the expenses userID owns or is named in
// through a linked friend record.
func (s *Store) ListVisibleExpenses(ctx context.Context, userID string, filter storage.ExpenseFilter) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + ` FROM expenses
		WHERE (
			user_id = ?
			OR payer_id IN (SELECT id FROM friends WHERE linked_user_id = ?)
			OR id IN (
				SELECT es.expense_id FROM expense_splits es
				JOIN friends f ON f.id = es.friend_id OR f.id = es.owed_to_friend_id
				WHERE f.linked_user_id = ?
			)
		)`
	args := []any{userID, userID, userID}

	switch {
	case filter.TripID != "":
		query += ` AND trip_id = ?`
		args = append(args, filter.TripID)
	case filter.PersonalOnly:
		query += ` AND trip_id IS NULL`
	}
	if filter.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.From != "" {
		query += ` AND date >= ?`
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += ` AND date <= ?`
		args = append(args, filter.To)
	}
	if filter.ExcludeSettlements {
		query += ` AND is_settlement = ?`
		args = append(args, false)
	}
	query += ` ORDER BY date DESC, created_at DESC, id`

	var expenses []models.Expense
	if err := s.db.SelectContext(ctx, &expenses, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	if err := s.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// ListTripExpenses returns all expenses of a trip, newest first.
func (s *Store) ListTripExpenses(ctx context.Context, tripID string) ([]models.Expense, error) {
	var expenses []models.Expense
	query := s.db.Rebind(`SELECT ` + expenseColumns + ` FROM expenses WHERE trip_id = ? ORDER BY date DESC, created_at DESC, id`)
	if err := s.db.SelectContext(ctx, &expenses, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to list trip expenses: %w", err)
	}
	if err := s.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) loadSplits(ctx context.Context, expenses []models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	ids := make([]string, len(expenses))
	byID := make(map[string]*models.Expense, len(expenses))
	for i := range expenses {
		ids[i] = expenses[i].ID
		byID[expenses[i].ID] = &expenses[i]
	}

	query, args, err := in(s.db, `SELECT `+splitColumns+` FROM expense_splits WHERE expense_id IN (?) ORDER BY expense_id, seq`, ids)
	if err != nil {
		return fmt.Errorf("failed to build splits query: %w", err)
	}

	var splits []models.Split
	if err := s.db.SelectContext(ctx, &splits, query, args...); err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	for _, split := range splits {
		e := byID[split.ExpenseID]
		e.Splits = append(e.Splits, split)
	}
	return nil
}

// DeleteExpense removes an expense; its split rows cascade.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM expenses WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
