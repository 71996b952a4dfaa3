package calculator

import "github.com/shopspring/decimal"

// FriendBalance is the viewer's direct position with one friend.
type FriendBalance struct {
	Friend   Participant
	Paid     decimal.Decimal // expense totals the friend fronted
	UserOwes decimal.Decimal // viewer owes the friend
	TheyOwe  decimal.Decimal // friend owes the viewer
}

// Net returns TheyOwe - UserOwes. Positive means the friend owes the viewer.
func (b FriendBalance) Net() decimal.Decimal {
	return b.TheyOwe.Sub(b.UserOwes)
}

type pairBucket struct {
	identity string
	refs     []Participant
	paid     decimal.Decimal
	userOwes decimal.Decimal
	theyOwe  decimal.Decimal
}

// FriendBalances computes the viewer's pairwise position with every friend
// over the given expenses. Only rows with the viewer on exactly one side
// count; a row between two friends moves nothing between the viewer and
// either of them.
//
// Identities fold the same way AggregateBalances folds them, and duplicate
// roster references for one identity divide its totals evenly. Contributors
// that match no roster reference are appended after the roster entries.
// Self in the roster is ignored.
func (c *Calculator) FriendBalances(viewerID string, expenses []Expense, roster []Participant) []FriendBalance {
	var order []*pairBucket
	byIdentity := make(map[string]*pairBucket)
	get := func(identity string) *pairBucket {
		b, ok := byIdentity[identity]
		if !ok {
			b = &pairBucket{identity: identity}
			byIdentity[identity] = b
			order = append(order, b)
		}
		return b
	}

	viewer := c.identity(Self(), viewerID)
	seen := make(map[string]bool, len(roster))
	for _, p := range roster {
		if p.IsSelf() || seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		identity := c.identity(p, viewerID)
		if identity == viewer {
			continue
		}
		b := get(identity)
		b.refs = append(b.refs, p)
	}

	for _, e := range expenses {
		owner := e.OwnerID
		if viewerID == "" {
			owner = ""
		}
		if payer := c.identity(e.Payer, owner); payer != viewer {
			b := get(payer)
			b.paid = b.paid.Add(e.Total)
		}
		for _, row := range c.validRows(e) {
			debtor := c.identity(row.Debtor, owner)
			creditor := c.identity(row.Creditor, owner)
			switch {
			case creditor == viewer && debtor != viewer:
				b := get(debtor)
				b.theyOwe = b.theyOwe.Add(row.Share)
			case debtor == viewer && creditor != viewer:
				b := get(creditor)
				b.userOwes = b.userOwes.Add(row.Share)
			}
		}
	}

	out := make([]FriendBalance, 0, len(order))
	for _, b := range order {
		refs := b.refs
		if len(refs) == 0 {
			refs = []Participant{participantFor(b.identity)}
		}
		n := decimal.NewFromInt(int64(len(refs)))
		for _, ref := range refs {
			fb := FriendBalance{Friend: ref, Paid: b.paid, UserOwes: b.userOwes, TheyOwe: b.theyOwe}
			if len(refs) > 1 {
				fb.Paid = b.paid.Div(n)
				fb.UserOwes = b.userOwes.Div(n)
				fb.TheyOwe = b.theyOwe.Div(n)
			}
			out = append(out, fb)
		}
	}
	return out
}
