package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is a suggested payment that moves Amount from From to To.
type Transfer struct {
	From   Participant
	To     Participant
	Amount decimal.Decimal
}

type position struct {
	who       Participant
	remaining decimal.Decimal // always positive
}

// MinimizeSettlements returns transfers that bring every balance within
// Epsilon of zero. The largest debtor is matched against the largest creditor
// until either side runs out; ties keep input order. Amounts within Epsilon
// are treated as already settled and never emitted.
func MinimizeSettlements(balances []Balance) []Transfer {
	var debtors, creditors []position
	for _, b := range balances {
		net := b.Net()
		switch {
		case net.LessThan(Epsilon.Neg()):
			debtors = append(debtors, position{who: b.Participant, remaining: net.Neg()})
		case net.GreaterThan(Epsilon):
			creditors = append(creditors, position{who: b.Participant, remaining: net})
		}
	}

	// Most negative debtor and most positive creditor first.
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].remaining.GreaterThan(debtors[j].remaining)
	})
	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].remaining.GreaterThan(creditors[j].remaining)
	})

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := decimal.Min(debtor.remaining, creditor.remaining)
		if amount.GreaterThan(Epsilon) {
			transfers = append(transfers, Transfer{
				From:   debtor.who,
				To:     creditor.who,
				Amount: amount,
			})
		}

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if debtor.remaining.LessThan(Epsilon) {
			i++
		}
		if creditor.remaining.LessThan(Epsilon) {
			j++
		}
	}
	return transfers
}
