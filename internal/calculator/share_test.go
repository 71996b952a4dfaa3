package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPersonalShare(t *testing.T) {
	dir := NewDirectory(
		FriendRef{ID: "alice", Name: "Alice", LinkedAccount: "acct-alice"},
		FriendRef{ID: "bob", Name: "Bob"},
	)
	calc := quietCalculator(dir)

	tests := []struct {
		name    string
		expense Expense
		viewer  string
		want    string
	}{
		{
			name: "owner paid, one friend owes half",
			expense: Expense{OwnerID: "owner", Total: dec("100"), Payer: Self(), Rows: []SplitRow{
				{Debtor: Friend("bob"), Creditor: Self(), Share: dec("50")},
			}},
			want: "50",
		},
		{
			name: "owner paid for three friends only",
			expense: Expense{OwnerID: "owner", Total: dec("300"), Payer: Self(), Rows: []SplitRow{
				{Debtor: Friend("a"), Creditor: Self(), Share: dec("100")},
				{Debtor: Friend("b"), Creditor: Self(), Share: dec("100")},
				{Debtor: Friend("c"), Creditor: Self(), Share: dec("100")},
			}},
			viewer: "owner",
			want:   "0",
		},
		{
			name: "friend paid, owner owes the payer",
			expense: Expense{OwnerID: "owner", Total: dec("90"), Payer: Friend("alice"), Rows: []SplitRow{
				{Debtor: Friend("bob"), Creditor: Friend("alice"), Share: dec("30")},
				{Debtor: Self(), Creditor: Friend("alice"), Share: dec("30")},
			}},
			want: "30",
		},
		{
			name: "friend paid, owner not in the split",
			expense: Expense{OwnerID: "owner", Total: dec("90"), Payer: Friend("alice"), Rows: []SplitRow{
				{Debtor: Friend("bob"), Creditor: Friend("alice"), Share: dec("45")},
			}},
			want: "0",
		},
		{
			name:    "no rows and owner paid",
			expense: Expense{OwnerID: "owner", Total: dec("42.50"), Payer: Self()},
			want:    "42.50",
		},
		{
			name:    "no rows viewed by someone else",
			expense: Expense{OwnerID: "owner", Total: dec("42.50"), Payer: Self()},
			viewer:  "acct-alice",
			want:    "0",
		},
		{
			name:    "no rows and a friend paid",
			expense: Expense{OwnerID: "owner", Total: dec("42.50"), Payer: Friend("alice")},
			want:    "0",
		},
		{
			name: "linked friend sees their debtor row",
			expense: Expense{OwnerID: "owner", Total: dec("100"), Payer: Self(), Rows: []SplitRow{
				{Debtor: Friend("alice"), Creditor: Self(), Share: dec("50")},
			}},
			viewer: "acct-alice",
			want:   "50",
		},
		{
			name: "linked friend who paid sees the row crediting them",
			expense: Expense{OwnerID: "owner", Total: dec("90"), Payer: Friend("alice"), Rows: []SplitRow{
				{Debtor: Self(), Creditor: Friend("alice"), Share: dec("45")},
			}},
			viewer: "acct-alice",
			want:   "45",
		},
		{
			name: "viewer not in any row",
			expense: Expense{OwnerID: "owner", Total: dec("100"), Payer: Self(), Rows: []SplitRow{
				{Debtor: Friend("bob"), Creditor: Self(), Share: dec("50")},
			}},
			viewer: "stranger",
			want:   "0",
		},
		{
			name: "rows exceeding the total clamp to zero",
			expense: Expense{OwnerID: "owner", Total: dec("10"), Payer: Self(), Rows: []SplitRow{
				{Debtor: Friend("bob"), Creditor: Self(), Share: dec("15")},
			}},
			want: "0",
		},
		{
			name: "malformed rows contribute nothing",
			expense: Expense{OwnerID: "owner", Total: dec("50"), Payer: Self(), Rows: []SplitRow{
				{Debtor: Self(), Creditor: Self(), Share: dec("10")},
				{Debtor: Friend("bob"), Creditor: Friend("bob"), Share: dec("10")},
				{Debtor: Friend("bob"), Creditor: Self(), Share: decimal.Zero},
				{Debtor: Friend("bob"), Creditor: Self(), Share: dec("20")},
			}},
			want: "30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.PersonalShare(tt.expense, tt.viewer)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("PersonalShare() = %v, want %s", got, tt.want)
			}
			if got.IsNegative() {
				t.Errorf("PersonalShare() = %v, want >= 0", got)
			}
		})
	}
}

func TestNewSplitRow(t *testing.T) {
	tests := []struct {
		name     string
		debtor   Participant
		creditor Participant
		share    string
		wantErr  bool
	}{
		{"friend owes owner", Friend("a"), Self(), "1", false},
		{"owner owes friend", Self(), Friend("a"), "1", false},
		{"friend owes friend", Friend("a"), Friend("b"), "1", false},
		{"owner owes owner", Self(), Self(), "1", true},
		{"friend owes themself", Friend("a"), Friend("a"), "1", true},
		{"empty friend id", Friend(""), Self(), "1", true},
		{"account in a row", Account("u1"), Self(), "1", true},
		{"zero share", Friend("a"), Self(), "0", true},
		{"negative share", Friend("a"), Self(), "-3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitRow(tt.debtor, tt.creditor, dec(tt.share))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSplitRow() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseParticipant(t *testing.T) {
	for _, p := range []Participant{Self(), Friend("f-1"), Account("u-1")} {
		got, ok := ParseParticipant(p.Key())
		if !ok || got != p {
			t.Errorf("ParseParticipant(%q) = %v, %v", p.Key(), got, ok)
		}
	}
	if p, ok := ParseParticipant(""); !ok || !p.IsSelf() {
		t.Errorf("ParseParticipant(\"\") = %v, %v, want self", p, ok)
	}
	for _, bad := range []string{"friend:", "account:", "nobody"} {
		if _, ok := ParseParticipant(bad); ok {
			t.Errorf("ParseParticipant(%q) ok, want failure", bad)
		}
	}
}
