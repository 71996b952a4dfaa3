package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Empty is the request or response of procedures that carry no fields.
type Empty struct{}

// Participant keys on the wire: "self" for the viewing account (or, inside
// an expense, its owner), "friend:<id>" and "account:<id>".

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse answers Register and Login.
type AuthResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

type Friend struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	LinkedUserID string `json:"linked_user_id,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

type CreateFriendRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type UpdateFriendRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type FriendResponse struct {
	Friend Friend `json:"friend"`
}

type ListFriendsResponse struct {
	Friends []Friend `json:"friends"`
}

// IDRequest addresses one record by id.
type IDRequest struct {
	ID string `json:"id"`
}

type Trip struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []Friend `json:"members"`
	CreatedAt   int64    `json:"created_at"`
}

type CreateTripRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"member_ids,omitempty"`
}

type TripMemberRequest struct {
	TripID   string `json:"trip_id"`
	FriendID string `json:"friend_id"`
}

type TripResponse struct {
	Trip Trip `json:"trip"`
}

type ListTripsResponse struct {
	Trips []Trip `json:"trips"`
}

// SplitForm is the split configuration of an expense.
type SplitForm struct {
	Split        bool     `json:"split"`
	IncludeOwner bool     `json:"include_owner"`
	FriendIDs    []string `json:"friend_ids,omitempty"`
	// PayerID is the paying friend, or empty when the owner paid.
	PayerID string `json:"payer_id,omitempty"`
}

// SplitRow is one ledger line. Empty ids denote the expense owner.
//
// Share is exact: an even split of 100 three ways is 33.3333333333333333
// (16 decimal places), and the payer's own part carries the remainder.
// Sums of shares reproduce the total; ShareDisplay is the same value
// rounded to cents for presentation and must not be summed.
type SplitRow struct {
	DebtorID     string          `json:"debtor_id,omitempty"`
	CreditorID   string          `json:"creditor_id,omitempty"`
	Share        decimal.Decimal `json:"share"`
	ShareDisplay string          `json:"share_display"`
}

type Expense struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Title        string          `json:"title"`
	Note         string          `json:"note,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Date         string          `json:"date"`
	CategoryID   string          `json:"category_id,omitempty"`
	TripID       string          `json:"trip_id,omitempty"`
	PayerID      string          `json:"payer_id,omitempty"`
	IsSettlement bool            `json:"is_settlement"`
	PaymentMode  string          `json:"payment_mode,omitempty"`
	Splits       []SplitRow      `json:"splits"`
	// PersonalShare is the caller's exact part of Amount, at the same
	// precision as SplitRow.Share. PersonalShareDisplay is it rounded to cents.
	PersonalShare        decimal.Decimal `json:"personal_share"`
	PersonalShareDisplay string          `json:"personal_share_display"`
	CreatedAt            int64           `json:"created_at"`
	UpdatedAt            int64           `json:"updated_at"`
}

// SaveExpenseRequest creates an expense, or replaces it when ID is set.
type SaveExpenseRequest struct {
	ID          string          `json:"id,omitempty"`
	Title       string          `json:"title"`
	Note        string          `json:"note,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Date        string          `json:"date,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	TripID      string          `json:"trip_id,omitempty"`
	PaymentMode string          `json:"payment_mode,omitempty"`
	Form        SplitForm       `json:"form"`
}

type ExpenseResponse struct {
	Expense Expense `json:"expense"`
	// Form is the split configuration that reproduces Expense.Splits.
	Form SplitForm `json:"form"`
}

type ListExpensesRequest struct {
	TripID       string `json:"trip_id,omitempty"`
	PersonalOnly bool   `json:"personal_only,omitempty"`
	CategoryID   string `json:"category_id,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type SpendingSummaryRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type CategorySpend struct {
	CategoryID string          `json:"category_id"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

type SpendingSummaryResponse struct {
	Categories []CategorySpend `json:"categories"`
	Total      decimal.Decimal `json:"total"`
}

// BalancesRequest selects a scope: a trip, or the personal ledger when
// TripID is empty.
type BalancesRequest struct {
	TripID string `json:"trip_id,omitempty"`
}

type Balance struct {
	Participant string          `json:"participant"`
	Name        string          `json:"name"`
	Paid        decimal.Decimal `json:"paid"`
	Share       decimal.Decimal `json:"share"`
	Net         decimal.Decimal `json:"net"`
}

type Transfer struct {
	From     string          `json:"from"`
	FromName string          `json:"from_name"`
	To       string          `json:"to"`
	ToName   string          `json:"to_name"`
	Amount   decimal.Decimal `json:"amount"`
}

type BalancesResponse struct {
	Balances  []Balance  `json:"balances"`
	Transfers []Transfer `json:"transfers"`
}

// FriendBalance is the caller's own position with one friend: what the
// caller owes them and what they owe the caller. Debts between two other
// people never show up here.
type FriendBalance struct {
	// FriendID is the friend record id, or a participant key for someone
	// the caller has no friend record for.
	FriendID string          `json:"friend_id"`
	Name     string          `json:"name"`
	Paid     decimal.Decimal `json:"paid"`
	UserOwes decimal.Decimal `json:"user_owes"`
	TheyOwe  decimal.Decimal `json:"they_owe"`
	// Net is TheyOwe - UserOwes; positive means the friend owes the caller.
	Net decimal.Decimal `json:"net"`
}

type FriendBalancesResponse struct {
	Friends []FriendBalance `json:"friends"`
	ToGet   decimal.Decimal `json:"to_get"`
	ToPay   decimal.Decimal `json:"to_pay"`
}

// RecordSettlementRequest records that From paid To Amount. From and To
// are participant keys of the caller's roster; one of them is usually "self".
type RecordSettlementRequest struct {
	TripID   string          `json:"trip_id,omitempty"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
	Date     string          `json:"date,omitempty"`
}

type SendReminderRequest struct {
	FriendID string `json:"friend_id"`
	TripID   string `json:"trip_id,omitempty"`
}

type SendReminderResponse struct {
	NotificationID string `json:"notification_id"`
}

type Notification struct {
	ID        string          `json:"id"`
	SenderID  string          `json:"sender_id,omitempty"`
	TripID    string          `json:"trip_id,omitempty"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt int64           `json:"created_at"`
}

type ListNotificationsRequest struct {
	UnreadOnly bool `json:"unread_only,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// Event is pushed over the realtime channel.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Realtime event types.
const (
	EventLedgerChanged = "ledger.changed"
	EventNotification  = "notification"
)

// Budget caps personal spending in a category, or overall when CategoryID
// is empty, per period ("monthly" or "weekly").
type Budget struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id,omitempty"`
	Period     string          `json:"period"`
	Amount     decimal.Decimal `json:"amount"`
	StartDate  string          `json:"start_date,omitempty"`
	EndDate    string          `json:"end_date,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`
}

// SaveBudgetRequest creates a budget, or updates the budget ID names.
type SaveBudgetRequest struct {
	ID         string          `json:"id,omitempty"`
	CategoryID string          `json:"category_id,omitempty"`
	Period     string          `json:"period,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	StartDate  string          `json:"start_date,omitempty"`
	EndDate    string          `json:"end_date,omitempty"`
}

type BudgetResponse struct {
	Budget Budget `json:"budget"`
}

type ListBudgetsResponse struct {
	Budgets []Budget `json:"budgets"`
}

// BudgetUsageRequest picks the period to report by a day inside it;
// empty means today.
type BudgetUsageRequest struct {
	Date string `json:"date,omitempty"`
}

type BudgetUsage struct {
	Budget    Budget          `json:"budget"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Count     int             `json:"count"`
}

type BudgetUsageResponse struct {
	Usage []BudgetUsage `json:"usage"`
}
