package calculator

import (
	"github.com/shopspring/decimal"
)

// Balance is one participant's position within a scope.
type Balance struct {
	Participant Participant
	Paid        decimal.Decimal // expense totals fronted
	Share       decimal.Decimal // amounts owed across all expenses
}

// Net returns Paid - Share. Positive means the participant is owed money.
func (b Balance) Net() decimal.Decimal {
	return b.Paid.Sub(b.Share)
}

// BalanceSheet is the result of AggregateBalances.
type BalanceSheet struct {
	entries []Balance
	index   map[string]int
	folded  []Balance
}

// Entries returns one balance per roster reference, in roster order,
// followed by contributors that matched no roster reference.
func (s *BalanceSheet) Entries() []Balance {
	out := make([]Balance, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the balance of a roster reference or extra contributor.
func (s *BalanceSheet) Get(p Participant) (Balance, bool) {
	i, ok := s.index[p.Key()]
	if !ok {
		return Balance{}, false
	}
	return s.entries[i], true
}

// Settleable returns one folded balance per real identity, represented by
// the first roster reference for that identity. This is the input
// MinimizeSettlements expects.
func (s *BalanceSheet) Settleable() []Balance {
	out := make([]Balance, len(s.folded))
	copy(out, s.folded)
	return out
}

// Total returns the sum of net balances. It is zero for a closed scope.
func (s *BalanceSheet) Total() decimal.Decimal {
	total := decimal.Zero
	for _, b := range s.folded {
		total = total.Add(b.Net())
	}
	return total
}

type bucket struct {
	identity string
	refs     []Participant
	paid     decimal.Decimal
	share    decimal.Decimal
}

// AggregateBalances computes paid, share and net per participant over the
// expenses of one scope. viewerID is the account the roster's Self denotes.
// An empty viewerID treats every expense as the viewer's own: each
// expense's owner is Self, and folding applies to friend links only.
//
// Contributions are folded by identity: the owner of an expense and any
// friend reference linked to that owner's account count as one person, as do
// friend references owned by different accounts but linked to the same one.
// When several roster references share an identity, the identity's totals
// are divided evenly across them. A friend reference resolving to the viewer
// is merged into Self when the roster contains Self.
//
// Each payer absorbs whatever part of the total the split rows leave
// unassigned, so the net balances of a scope always sum to zero.
func (c *Calculator) AggregateBalances(viewerID string, expenses []Expense, roster []Participant) *BalanceSheet {
	var order []*bucket
	byIdentity := make(map[string]*bucket)
	get := func(identity string) *bucket {
		b, ok := byIdentity[identity]
		if !ok {
			b = &bucket{identity: identity}
			byIdentity[identity] = b
			order = append(order, b)
		}
		return b
	}

	viewerIdentity := c.identity(Self(), viewerID)
	hasSelf := false
	for _, p := range roster {
		if p.IsSelf() {
			hasSelf = true
			break
		}
	}

	seen := make(map[string]bool, len(roster))
	for _, p := range roster {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		identity := c.identity(p, viewerID)
		if hasSelf && !p.IsSelf() && identity == viewerIdentity {
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
		payer := get(c.identity(e.Payer, owner))
		payer.paid = payer.paid.Add(e.Total)

		assigned := decimal.Zero
		for _, row := range c.validRows(e) {
			debtor := get(c.identity(row.Debtor, owner))
			debtor.share = debtor.share.Add(row.Share)
			assigned = assigned.Add(row.Share)
		}
		payer.share = payer.share.Add(e.Total.Sub(assigned))
	}

	sheet := &BalanceSheet{index: make(map[string]int)}
	for _, b := range order {
		if len(b.refs) == 0 {
			b.refs = []Participant{participantFor(b.identity)}
		}
		sheet.folded = append(sheet.folded, Balance{Participant: b.refs[0], Paid: b.paid, Share: b.share})

		n := decimal.NewFromInt(int64(len(b.refs)))
		for _, ref := range b.refs {
			entry := Balance{Participant: ref, Paid: b.paid, Share: b.share}
			if len(b.refs) > 1 {
				entry.Paid = b.paid.Div(n)
				entry.Share = b.share.Div(n)
			}
			sheet.index[ref.Key()] = len(sheet.entries)
			sheet.entries = append(sheet.entries, entry)
		}
	}
	return sheet
}

// identity returns the folding key of p as seen by ownerID.
func (c *Calculator) identity(p Participant, ownerID string) string {
	switch p.kind {
	case KindSelf:
		if ownerID == "" {
			return selfKey
		}
		return accountPre + ownerID
	case KindFriend:
		if linked, ok := c.resolver.Resolve(p.id); ok {
			return accountPre + linked
		}
		return friendPref + p.id
	default:
		return accountPre + p.id
	}
}

func participantFor(identity string) Participant {
	p, ok := ParseParticipant(identity)
	if !ok {
		return Self()
	}
	return p
}
