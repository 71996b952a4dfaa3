package calculator

// Resolver maps a friend reference to the account it is linked to.
type Resolver interface {
	// Resolve returns the linked account id, or ok=false for an unlinked
	// or unknown reference.
	Resolve(friendID string) (accountID string, ok bool)
}

// FriendRef is the identity slice of a friend record.
type FriendRef struct {
	ID            string
	Name          string
	LinkedAccount string
}

// Directory is an in-memory Resolver built from friend records.
type Directory struct {
	refs map[string]FriendRef
}

// NewDirectory indexes the given friend references by id.
func NewDirectory(refs ...FriendRef) *Directory {
	d := &Directory{refs: make(map[string]FriendRef, len(refs))}
	for _, ref := range refs {
		d.refs[ref.ID] = ref
	}
	return d
}

// Add indexes one more reference, replacing any previous entry with the same id.
func (d *Directory) Add(ref FriendRef) {
	d.refs[ref.ID] = ref
}

// Resolve implements Resolver.
func (d *Directory) Resolve(friendID string) (string, bool) {
	ref, ok := d.refs[friendID]
	if !ok || ref.LinkedAccount == "" {
		return "", false
	}
	return ref.LinkedAccount, true
}

// Name returns the display name of a friend reference.
func (d *Directory) Name(friendID string) string {
	return d.refs[friendID].Name
}

// noLinks resolves nothing; every friend reference is its own identity.
type noLinks struct{}

func (noLinks) Resolve(string) (string, bool) { return "", false }
