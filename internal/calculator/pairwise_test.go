package calculator

import "testing"

func friendBalance(t *testing.T, got []FriendBalance, p Participant) FriendBalance {
	t.Helper()
	for _, b := range got {
		if b.Friend == p {
			return b
		}
	}
	t.Fatalf("no balance for %s", p)
	return FriendBalance{}
}

func TestFriendBalances(t *testing.T) {
	calc := quietCalculator(nil)
	roster := []Participant{Self(), Friend("b"), Friend("c")}

	tests := []struct {
		name     string
		expenses []Expense
		wantNet  map[string]string
		wantPaid map[string]string
	}{
		{
			name: "friend paid, other friend owes the payer",
			expenses: []Expense{{ID: "e1", OwnerID: "me", Total: dec("60"), Payer: Friend("b"), Rows: []SplitRow{
				{Debtor: Friend("c"), Creditor: Friend("b"), Share: dec("30")},
			}}},
			wantNet:  map[string]string{"b": "0", "c": "0"},
			wantPaid: map[string]string{"b": "60", "c": "0"},
		},
		{
			name: "friend paid for viewer and another friend",
			expenses: []Expense{{ID: "e1", OwnerID: "me", Total: dec("90"), Payer: Friend("b"), Rows: []SplitRow{
				{Debtor: Self(), Creditor: Friend("b"), Share: dec("30")},
				{Debtor: Friend("c"), Creditor: Friend("b"), Share: dec("30")},
			}}},
			wantNet:  map[string]string{"b": "-30", "c": "0"},
			wantPaid: map[string]string{"b": "90", "c": "0"},
		},
		{
			name: "viewer paid, both friends owe",
			expenses: []Expense{{ID: "e1", OwnerID: "me", Total: dec("90"), Payer: Self(), Rows: []SplitRow{
				{Debtor: Friend("b"), Creditor: Self(), Share: dec("30")},
				{Debtor: Friend("c"), Creditor: Self(), Share: dec("30")},
			}}},
			wantNet:  map[string]string{"b": "30", "c": "30"},
			wantPaid: map[string]string{"b": "0", "c": "0"},
		},
		{
			name: "settlement cancels debt",
			expenses: []Expense{
				{ID: "e1", OwnerID: "me", Total: dec("40"), Payer: Self(), Rows: []SplitRow{
					{Debtor: Friend("c"), Creditor: Self(), Share: dec("20")},
				}},
				{ID: "s1", OwnerID: "me", Total: dec("20"), Payer: Friend("c"), IsSettlement: true, Rows: []SplitRow{
					{Debtor: Self(), Creditor: Friend("c"), Share: dec("20")},
				}},
			},
			wantNet:  map[string]string{"b": "0", "c": "0"},
			wantPaid: map[string]string{"b": "0", "c": "20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.FriendBalances("me", tt.expenses, roster)
			if len(got) != 2 {
				t.Fatalf("balances = %d, want 2", len(got))
			}
			for id, want := range tt.wantNet {
				b := friendBalance(t, got, Friend(id))
				if !b.Net().Equal(dec(want)) {
					t.Errorf("%s net = %v, want %s", id, b.Net(), want)
				}
				if !b.Paid.Equal(dec(tt.wantPaid[id])) {
					t.Errorf("%s paid = %v, want %s", id, b.Paid, tt.wantPaid[id])
				}
			}
		})
	}
}

// An expense owned by the friend's account reaches the viewer through the
// friend's reference to them and lands on the viewer's own reference to
// that account.
func TestFriendBalances_FoldsLinkedDuplicates(t *testing.T) {
	dir := NewDirectory(
		FriendRef{ID: "u1-bob", LinkedAccount: "u2"},
		FriendRef{ID: "u1-bobby", LinkedAccount: "u2"},
		FriendRef{ID: "u2-alice", LinkedAccount: "u1"},
	)
	expenses := []Expense{
		{ID: "mine", OwnerID: "u1", Total: dec("100"), Payer: Self(), Rows: []SplitRow{
			{Debtor: Friend("u1-bob"), Creditor: Self(), Share: dec("50")},
		}},
		{ID: "theirs", OwnerID: "u2", Total: dec("60"), Payer: Self(), Rows: []SplitRow{
			{Debtor: Friend("u2-alice"), Creditor: Self(), Share: dec("30")},
		}},
	}

	got := quietCalculator(dir).FriendBalances("u1", expenses, []Participant{Self(), Friend("u1-bob"), Friend("u1-bobby")})
	if len(got) != 2 {
		t.Fatalf("balances = %d, want 2 (no unfolded extras)", len(got))
	}
	for _, id := range []string{"u1-bob", "u1-bobby"} {
		b := friendBalance(t, got, Friend(id))
		if !b.TheyOwe.Equal(dec("25")) || !b.UserOwes.Equal(dec("15")) || !b.Paid.Equal(dec("30")) {
			t.Errorf("%s = theyOwe %v userOwes %v paid %v, want 25/15/30", id, b.TheyOwe, b.UserOwes, b.Paid)
		}
		if !b.Net().Equal(dec("10")) {
			t.Errorf("%s net = %v, want 10", id, b.Net())
		}
	}
}

func TestFriendBalances_UnknownContributor(t *testing.T) {
	e := Expense{ID: "e1", OwnerID: "me", Total: dec("10"), Payer: Friend("stranger"), Rows: []SplitRow{
		{Debtor: Self(), Creditor: Friend("stranger"), Share: dec("10")},
	}}
	got := quietCalculator(nil).FriendBalances("me", []Expense{e}, []Participant{Self()})
	if len(got) != 1 || got[0].Friend != Friend("stranger") {
		t.Fatalf("balances = %+v, want one entry for friend:stranger", got)
	}
	if !got[0].Net().Equal(dec("-10")) {
		t.Errorf("net = %v, want -10", got[0].Net())
	}
}
