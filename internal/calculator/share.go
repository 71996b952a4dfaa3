// Package calculator holds the debt-splitting engine: personal shares,
// per-participant balances, settlement minimization and split construction.
//
// Everything here is a pure function of its inputs. Storage, transport and
// notification delivery live in other packages.
package calculator

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// Calculator evaluates expenses against a friend-identity resolver.
type Calculator struct {
	resolver Resolver
	logger   *slog.Logger
}

// New returns a Calculator. A nil resolver treats every friend reference as
// unlinked; a nil logger uses slog.Default().
func New(resolver Resolver, logger *slog.Logger) *Calculator {
	if resolver == nil {
		resolver = noLinks{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{resolver: resolver, logger: logger}
}

// PersonalShare returns the amount viewerID is responsible for in e.
// An empty viewerID, or the owner's id, selects the owner's perspective.
// The result is never negative.
func (c *Calculator) PersonalShare(e Expense, viewerID string) decimal.Decimal {
	asOwner := viewerID == "" || viewerID == e.OwnerID

	if len(e.Rows) == 0 {
		if asOwner && e.Payer.IsSelf() {
			return nonNegative(e.Total)
		}
		return decimal.Zero
	}

	if !asOwner {
		return c.linkedShare(e, viewerID)
	}

	if e.Payer.IsSelf() {
		owedToOwner := decimal.Zero
		for _, row := range c.validRows(e) {
			if !row.Debtor.IsSelf() && row.Creditor.IsSelf() {
				owedToOwner = owedToOwner.Add(row.Share)
			}
		}
		return nonNegative(e.Total.Sub(owedToOwner))
	}

	for _, row := range c.validRows(e) {
		if row.Debtor.IsSelf() && row.Creditor == e.Payer {
			return row.Share
		}
	}
	return decimal.Zero
}

// linkedShare finds the row in which a friend reference linked to viewerID
// appears on either side.
func (c *Calculator) linkedShare(e Expense, viewerID string) decimal.Decimal {
	for _, row := range c.validRows(e) {
		if c.resolvesTo(row.Debtor, viewerID) || c.resolvesTo(row.Creditor, viewerID) {
			return row.Share
		}
	}
	return decimal.Zero
}

func (c *Calculator) resolvesTo(p Participant, accountID string) bool {
	id, ok := p.FriendID()
	if !ok {
		return false
	}
	linked, ok := c.resolver.Resolve(id)
	return ok && linked == accountID
}

// validRows returns the well-formed rows of e, logging the rest.
func (c *Calculator) validRows(e Expense) []SplitRow {
	valid := make([]SplitRow, 0, len(e.Rows))
	for _, row := range e.Rows {
		if err := row.Validate(); err != nil {
			c.logger.Warn("Skipping malformed split row",
				"expense_id", e.ID,
				"debtor", row.Debtor.Key(),
				"creditor", row.Creditor.Key(),
				"error", err,
			)
			continue
		}
		valid = append(valid, row)
	}
	return valid
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
