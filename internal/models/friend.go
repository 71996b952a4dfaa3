package models

// Friend is a contact record owned by one account.
//
// Two friend records owned by different accounts can denote the same real
// person; they are recognised as such when both carry the same LinkedUserID.
type Friend struct {
	// ID is the unique identifier for the friend record (UUID format).
	ID string `db:"id"`

	// OwnerID is the account that created and exclusively owns the record.
	OwnerID string `db:"owner_id"`

	// Name is the display name chosen by the owner.
	Name string `db:"name"`

	// Email is optional. When it matches a registered account the record is
	// linked to that account.
	Email string `db:"email"`

	// LinkedUserID is the account this friend is, or "" when unlinked.
	LinkedUserID string `db:"linked_user_id"`

	CreatedAt int64 `db:"created_at"`
}

// Linked reports whether the friend resolves to a registered account.
func (f *Friend) Linked() bool {
	return f.LinkedUserID != ""
}
