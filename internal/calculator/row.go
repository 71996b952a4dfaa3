package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Epsilon is the currency-unit tolerance below which an amount is rounding
// noise rather than debt.
var Epsilon = decimal.New(1, -2)

var (
	// ErrMalformedRow is returned when a split row has no valid debtor/creditor pair.
	ErrMalformedRow = errors.New("malformed split row")
	// ErrNonPositiveShare is returned when a split row carries a share <= 0.
	ErrNonPositiveShare = errors.New("split share must be positive")
)

// SplitRow is one ledger line of an expense: Debtor owes Creditor Share.
//
// At most one side is Self. Both sides may be friends when a friend paid and
// another friend owes them. Account participants never appear in rows.
type SplitRow struct {
	Debtor   Participant
	Creditor Participant
	Share    decimal.Decimal
}

// NewSplitRow validates and returns a split row.
func NewSplitRow(debtor, creditor Participant, share decimal.Decimal) (SplitRow, error) {
	row := SplitRow{Debtor: debtor, Creditor: creditor, Share: share}
	if err := row.Validate(); err != nil {
		return SplitRow{}, err
	}
	return row, nil
}

// Validate reports why a row is malformed, or nil.
func (r SplitRow) Validate() error {
	if r.Debtor.kind == KindAccount || r.Creditor.kind == KindAccount {
		return fmt.Errorf("%w: account participant in row", ErrMalformedRow)
	}
	if r.Debtor.IsSelf() && r.Creditor.IsSelf() {
		return fmt.Errorf("%w: both sides are the owner", ErrMalformedRow)
	}
	if r.Debtor == r.Creditor {
		return fmt.Errorf("%w: debtor and creditor are both %s", ErrMalformedRow, r.Debtor)
	}
	if (r.Debtor.kind == KindFriend && r.Debtor.id == "") || (r.Creditor.kind == KindFriend && r.Creditor.id == "") {
		return fmt.Errorf("%w: empty friend reference", ErrMalformedRow)
	}
	if !r.Share.IsPositive() {
		return ErrNonPositiveShare
	}
	return nil
}

// Valid is shorthand for Validate() == nil.
func (r SplitRow) Valid() bool { return r.Validate() == nil }

// Expense is the slice of an expense record the calculator reads.
type Expense struct {
	ID           string
	OwnerID      string
	Total        decimal.Decimal
	Payer        Participant // Self when the owner paid
	TripID       string
	IsSettlement bool
	Rows         []SplitRow
}
