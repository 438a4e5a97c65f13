package relay

import "sync"

// IdentityIndex maps a user to the set of their live connection IDs,
// supporting multi-device fan-out. Entries are pruned as soon as a user's
// set empties; the index never leaks empty sets.
type IdentityIndex struct {
	mu     sync.RWMutex
	byUser map[string]map[string]struct{}
}

func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{byUser: make(map[string]map[string]struct{})}
}

// Add is idempotent: adding the same connection twice has no further effect.
func (ix *IdentityIndex) Add(userID, connID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	set := ix.byUser[userID]
	if set == nil {
		set = make(map[string]struct{})
		ix.byUser[userID] = set
	}
	set[connID] = struct{}{}
}

func (ix *IdentityIndex) Remove(userID, connID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	set := ix.byUser[userID]
	if set == nil {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(ix.byUser, userID)
	}
}

// ConnectionsFor returns the user's live connection IDs, possibly empty.
func (ix *IdentityIndex) ConnectionsFor(userID string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	set := ix.byUser[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Contains reports whether connID is bound to userID.
func (ix *IdentityIndex) Contains(userID, connID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.byUser[userID][connID]
	return ok
}

// Len is the number of distinct users with at least one connection.
func (ix *IdentityIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byUser)
}
