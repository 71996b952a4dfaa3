// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInUse is returned when a record cannot be deleted because the
	// ledger still depends on it.
	ErrInUse = errors.New("record is still referenced")
)

// ExpenseFilter narrows ListVisibleExpenses. Zero fields do not filter.
type ExpenseFilter struct {
	// TripID restricts to one trip ledger.
	TripID string
	// PersonalOnly restricts to the personal ledger (no trip).
	PersonalOnly bool
	CategoryID   string
	// From and To bound Expense.Date inclusively (models.DateLayout).
	From string
	To   string
	// ExcludeSettlements drops settlement-flagged expenses.
	ExcludeSettlements bool
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns ErrNotFound for an unknown email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// FriendStore persists friend references.
type FriendStore interface {
	CreateFriend(ctx context.Context, friend *models.Friend) error
	GetFriend(ctx context.Context, id string) (*models.Friend, error)
	// GetFriends returns the friends with the given ids; unknown ids are skipped.
	GetFriends(ctx context.Context, ids []string) ([]models.Friend, error)
	ListFriends(ctx context.Context, ownerID string) ([]models.Friend, error)
	// ListFriendsLinkedTo returns every friend record, of any owner, that
	// resolves to userID.
	ListFriendsLinkedTo(ctx context.Context, userID string) ([]models.Friend, error)
	UpdateFriend(ctx context.Context, friend *models.Friend) error
	// DeleteFriend removes a friend and the split rows naming them. It
	// returns ErrInUse while the friend is the payer of an expense.
	DeleteFriend(ctx context.Context, id string) error
	// LinkFriendsByEmail links every unlinked friend record with the given
	// email to userID and returns how many were linked.
	LinkFriendsByEmail(ctx context.Context, email, userID string) (int64, error)
}

// TripStore persists trips and their membership.
type TripStore interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	// GetTrip returns the trip with its members.
	GetTrip(ctx context.Context, id string) (*models.Trip, error)
	// ListTripsForUser returns trips owned by userID or with a member
	// linked to userID.
	ListTripsForUser(ctx context.Context, userID string) ([]models.Trip, error)
	AddTripMember(ctx context.Context, tripID, friendID string) error
	RemoveTripMember(ctx context.Context, tripID, friendID string) error
	DeleteTrip(ctx context.Context, id string) error
}

// ExpenseStore persists expenses and their split rows.
type ExpenseStore interface {
	// SaveExpense inserts or updates the expense and replaces all of its
	// split rows in one transaction. ID and timestamps are assigned when empty.
	SaveExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	// ListVisibleExpenses returns expenses owned by userID or naming a
	// friend reference linked to userID, newest first.
	ListVisibleExpenses(ctx context.Context, userID string, filter ExpenseFilter) ([]models.Expense, error)
	// ListTripExpenses returns every expense of the trip, whoever recorded it.
	ListTripExpenses(ctx context.Context, tripID string) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	// MarkNotificationRead returns ErrNotFound unless the notification
	// exists and belongs to userID.
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
}

// BudgetStore persists category budgets.
type BudgetStore interface {
	CreateBudget(ctx context.Context, budget *models.Budget) error
	GetBudget(ctx context.Context, id string) (*models.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]models.Budget, error)
	UpdateBudget(ctx context.Context, budget *models.Budget) error
	DeleteBudget(ctx context.Context, id string) error
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	FriendStore
	TripStore
	ExpenseStore
	NotificationStore
	BudgetStore

	// Close releases any resources held by the store.
	Close() error
}
