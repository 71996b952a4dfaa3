package models

// NotificationType categorises a notification.
type NotificationType string

const (
	NotificationExpense    NotificationType = "expense"
	NotificationSettlement NotificationType = "settlement"
	NotificationReminder   NotificationType = "reminder"
)

// Notification is an in-app message addressed to one account.
type Notification struct {
	ID string `db:"id"`

	// UserID is the recipient.
	UserID string `db:"user_id"`

	// SenderID is the account whose action produced the notification.
	SenderID string `db:"sender_id"`

	// TripID is set when the notification concerns a trip ledger.
	TripID string `db:"trip_id"`

	Title   string           `db:"title"`
	Message string           `db:"message"`
	Type    NotificationType `db:"type"`

	// Metadata is a JSON object, e.g. {"expense_id": "...", "amount": "12.50"}.
	Metadata string `db:"metadata"`

	IsRead    bool  `db:"is_read"`
	CreatedAt int64 `db:"created_at"`
}
