package calculator

import (
	"github.com/shopspring/decimal"
)

// SplitForm is the split configuration submitted with an expense.
type SplitForm struct {
	// Split is false when the expense is entirely the payer's.
	Split bool
	// IncludeOwner counts the expense owner as a participant.
	IncludeOwner bool
	// Friends lists participating friend references. A paying friend is
	// listed here when they also carry a share.
	Friends []string
	// Payer is Self when the owner paid.
	Payer Participant
	Total decimal.Decimal
}

// Participants returns the deduplicated friend list and the participant count.
func (f SplitForm) Participants() ([]string, int) {
	friends := dedupe(f.Friends)
	count := len(friends)
	if f.IncludeOwner {
		count++
	}
	return friends, count
}

// BuildSplitRows returns the ledger rows for an evenly split expense. Each
// participant other than the payer owes the payer total/count. The result
// is empty when splitting is off, nobody participates, or total <= 0.
func BuildSplitRows(form SplitForm) []SplitRow {
	friends, count := form.Participants()
	if !form.Split || count == 0 || !form.Total.IsPositive() {
		return nil
	}
	if form.Payer.Kind() == KindAccount {
		return nil
	}

	perShare := form.Total.Div(decimal.NewFromInt(int64(count)))

	var rows []SplitRow
	if form.Payer.IsSelf() {
		for _, id := range friends {
			rows = append(rows, SplitRow{Debtor: Friend(id), Creditor: Self(), Share: perShare})
		}
		return rows
	}

	payerID, _ := form.Payer.FriendID()
	for _, id := range friends {
		if id == payerID {
			continue
		}
		rows = append(rows, SplitRow{Debtor: Friend(id), Creditor: form.Payer, Share: perShare})
	}
	if form.IncludeOwner {
		rows = append(rows, SplitRow{Debtor: Self(), Creditor: form.Payer, Share: perShare})
	}
	return rows
}

// ReconstructForm recovers the form that produced e's rows, for editing.
// Whether the payer carried a share is inferred from the part of the total
// the rows leave unassigned.
func ReconstructForm(e Expense) SplitForm {
	form := SplitForm{Payer: e.Payer, Total: e.Total}

	var rows []SplitRow
	for _, row := range e.Rows {
		if row.Valid() {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		form.IncludeOwner = true
		return form
	}
	form.Split = true

	assigned := decimal.Zero
	for _, row := range rows {
		assigned = assigned.Add(row.Share)
		if id, ok := row.Debtor.FriendID(); ok {
			form.Friends = append(form.Friends, id)
		}
	}
	form.Friends = dedupe(form.Friends)
	payerCarriesShare := e.Total.Sub(assigned).GreaterThan(Epsilon)

	if e.Payer.IsSelf() {
		form.IncludeOwner = payerCarriesShare
		return form
	}

	for _, row := range rows {
		if row.Debtor.IsSelf() {
			form.IncludeOwner = true
			break
		}
	}
	if payerCarriesShare {
		payerID, _ := e.Payer.FriendID()
		form.Friends = append(form.Friends, payerID)
	}
	return form
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
