package relay

import (
	"sync"
	"time"
)

// UsageTracker records which connections are actively using a resource (a
// model ID in practice) with last-activity timestamps. Presence/telemetry
// only; nothing here affects routing.
type UsageTracker struct {
	mu         sync.RWMutex
	byResource map[string]map[string]time.Time
}

func NewUsageTracker() *UsageTracker {
	return &UsageTracker{byResource: make(map[string]map[string]time.Time)}
}

// Touch upserts the last-activity timestamp for (resource, conn).
func (u *UsageTracker) Touch(resourceID, connID string, ts time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	set := u.byResource[resourceID]
	if set == nil {
		set = make(map[string]time.Time)
		u.byResource[resourceID] = set
	}
	set[connID] = ts
}

// ReleaseConnection removes connID from every resource and prunes resources
// left empty. Called exactly once from disconnect cleanup.
func (u *UsageTracker) ReleaseConnection(connID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for res, set := range u.byResource {
		if _, ok := set[connID]; !ok {
			continue
		}
		delete(set, connID)
		if len(set) == 0 {
			delete(u.byResource, res)
		}
	}
}

// ActiveResources lists the resource IDs with at least one active
// connection.
func (u *UsageTracker) ActiveResources() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, 0, len(u.byResource))
	for res := range u.byResource {
		out = append(out, res)
	}
	return out
}

func (u *UsageTracker) ResourceCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.byResource)
}
