package models

// Trip is a named group with its own ledger. Expenses that reference a trip
// never mix with the personal ledger or with other trips.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string `db:"id"`

	// OwnerID is the account that created the trip.
	OwnerID string `db:"owner_id"`

	Name        string `db:"name"`
	Description string `db:"description"`

	// Members are the owner's friend references taking part in the trip.
	// The owner is always implicitly a member.
	Members []Friend `db:"-"`

	CreatedAt int64 `db:"created_at"`
}
