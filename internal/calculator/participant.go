package calculator

import "strings"

// Kind distinguishes the participant variants.
type Kind int

const (
	// KindSelf is the account that owns the expense (or, in a balance sheet,
	// the viewing account).
	KindSelf Kind = iota
	// KindFriend is a contact record owned by some account.
	KindFriend
	// KindAccount is a registered account that only appears in balance
	// sheets, for contributors that no roster reference resolves to.
	KindAccount
)

const (
	selfKey    = "self"
	friendPref = "friend:"
	accountPre = "account:"
)

// Participant identifies one side of a split row or a balance sheet entry.
// The zero value is Self.
type Participant struct {
	kind Kind
	id   string
}

// Self returns the owner sentinel.
func Self() Participant {
	return Participant{kind: KindSelf}
}

// Friend returns a participant for the given friend reference.
func Friend(id string) Participant {
	return Participant{kind: KindFriend, id: id}
}

// Account returns a participant for a registered account.
func Account(userID string) Participant {
	return Participant{kind: KindAccount, id: userID}
}

// ParseParticipant is the inverse of Participant.Key. An empty string is Self.
func ParseParticipant(key string) (Participant, bool) {
	switch {
	case key == "" || key == selfKey:
		return Self(), true
	case strings.HasPrefix(key, friendPref) && len(key) > len(friendPref):
		return Friend(strings.TrimPrefix(key, friendPref)), true
	case strings.HasPrefix(key, accountPre) && len(key) > len(accountPre):
		return Account(strings.TrimPrefix(key, accountPre)), true
	}
	return Participant{}, false
}

// Kind reports the participant variant.
func (p Participant) Kind() Kind { return p.kind }

// IsSelf reports whether p is the owner sentinel.
func (p Participant) IsSelf() bool { return p.kind == KindSelf }

// FriendID returns the friend reference id when p is a friend.
func (p Participant) FriendID() (string, bool) {
	if p.kind != KindFriend {
		return "", false
	}
	return p.id, true
}

// AccountID returns the account id when p is an account.
func (p Participant) AccountID() (string, bool) {
	if p.kind != KindAccount {
		return "", false
	}
	return p.id, true
}

// Key is a stable string form, usable as a map key and on the wire.
func (p Participant) Key() string {
	switch p.kind {
	case KindFriend:
		return friendPref + p.id
	case KindAccount:
		return accountPre + p.id
	default:
		return selfKey
	}
}

func (p Participant) String() string { return p.Key() }
