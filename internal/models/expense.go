package models

import "github.com/shopspring/decimal"

// DateLayout is the storage format of Expense.Date.
const DateLayout = "2006-01-02"

// Expense represents one spending event or a recorded settlement.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `db:"id"`

	// UserID is the owner: the account that recorded the expense. Only the
	// owner may edit or delete it.
	UserID string `db:"user_id"`

	Title string `db:"title"`
	Note  string `db:"note"`

	// Amount is the expense total.
	Amount decimal.Decimal `db:"amount"`

	// Currency is an ISO code. All amounts in one ledger are assumed to share it.
	Currency string `db:"currency"`

	// Date is the day the money was spent, formatted with DateLayout.
	Date string `db:"date"`

	CategoryID string `db:"category_id"`

	// TripID places the expense in a trip ledger; "" means the personal ledger.
	TripID string `db:"trip_id"`

	// PayerID is the friend reference that paid; "" means the owner paid.
	PayerID string `db:"payer_id"`

	// IsSettlement marks a recorded repayment rather than real spending.
	IsSettlement bool `db:"is_settlement"`

	// PaymentMode is free-form ("online", "cash", ...).
	PaymentMode string `db:"payment_mode"`

	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`

	// Splits are the ledger lines of this expense. They are replaced as a
	// unit whenever the expense is saved.
	Splits []Split `db:"-"`
}

// Split is one ledger line: FriendID owes OwedToFriendID ShareAmount.
// An empty side denotes the expense owner.
type Split struct {
	ID             string          `db:"id"`
	ExpenseID      string          `db:"expense_id"`
	FriendID       string          `db:"friend_id"`
	OwedToFriendID string          `db:"owed_to_friend_id"`
	ShareAmount    decimal.Decimal `db:"share_amount"`
}
