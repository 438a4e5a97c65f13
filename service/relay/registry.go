package relay

import (
	"sync"
	"time"

	"RelayGate/tools/errs"
)

type connRecord struct {
	client    *Client
	identity  *Identity
	createdAt time.Time
	heartbeat time.Time
}

// Registry is the single source of truth for live connections and their
// bound identities. All operations are O(1) map lookups under one lock.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*connRecord
	clock  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*connRecord),
		clock:  time.Now,
	}
}

// Register records a freshly accepted connection. A duplicate identifier is
// an error for the caller to log; the existing connection is left alone.
func (r *Registry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byConn[c.ConnID]; exists {
		return errs.ErrInternal.WithDetail("connection id already registered: " + c.ConnID)
	}
	now := r.clock()
	r.byConn[c.ConnID] = &connRecord{client: c, createdAt: now, heartbeat: now}
	return nil
}

// BindIdentity attaches (or replaces) the identity of a live connection and
// returns the previously bound identity, if any, so the caller can unwind
// index entries.
func (r *Registry) BindIdentity(connID string, id *Identity) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byConn[connID]
	if !ok {
		return nil, errs.ErrNotRegistered.WithDetail("conn=" + connID)
	}
	prev := rec.identity
	rec.identity = id
	return prev, nil
}

// Lookup returns the identity currently bound to connID, or nil if the
// connection is unauthenticated. The second result reports whether the
// connection is registered at all.
func (r *Registry) Lookup(connID string) (*Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	return rec.identity, true
}

// Client returns the transport handle for outbound delivery.
func (r *Registry) Client(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	return rec.client, true
}

// Remove deletes the connection and returns its last-bound identity, which
// drives the cascading cleanup of the identity index and usage tracker.
func (r *Registry) Remove(connID string) (*Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(r.byConn, connID)
	return rec.identity, true
}

// Touch refreshes the heartbeat timestamp, called on every inbound frame and
// pong.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	if rec, ok := r.byConn[connID]; ok {
		rec.heartbeat = r.clock()
	}
	r.mu.Unlock()
}

// CreatedAt reports when the connection was registered; used by the
// per-user limit to pick the oldest connection for eviction.
func (r *Registry) CreatedAt(connID string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byConn[connID]
	if !ok {
		return time.Time{}, false
	}
	return rec.createdAt, true
}

// Stale lists connections whose last heartbeat is older than ttl.
func (r *Registry) Stale(ttl time.Duration) []string {
	cutoff := r.clock().Add(-ttl)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for id, rec := range r.byConn {
		if rec.heartbeat.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
