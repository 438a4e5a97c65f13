package presence

import (
	"sync"
	"time"

	"RelayGate/tools/errs"
)

// Status is a user-visible availability state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return Status(s), true
	default:
		return "", false
	}
}

// UserPresence tracks availability for one user across all their sessions.
type UserPresence struct {
	UserID       string `json:"user_id"`
	Status       Status `json:"status"`
	LastSeen     int64  `json:"last_seen"` // unix seconds
	CustomStatus string `json:"custom_status,omitempty"`
	SessionCount int    `json:"session_count"`
}

// TypingIndicator marks a user typing in a room; it expires on its own if
// the stop event never arrives.
type TypingIndicator struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	RoomID    string `json:"room_id"`
	StartedAt int64  `json:"started_at"`

	expiresAt time.Time
}

// Manager owns presence state. Offline users are kept around with their
// last-seen timestamp until Prune discards the stale ones.
type Manager struct {
	mu        sync.RWMutex
	presences map[string]*UserPresence
	typing    map[string][]TypingIndicator // room -> indicators

	typingTimeout time.Duration
	clock         func() time.Time
}

func NewManager(typingTimeout time.Duration) *Manager {
	if typingTimeout <= 0 {
		typingTimeout = 5 * time.Second
	}
	return &Manager{
		presences:     make(map[string]*UserPresence),
		typing:        make(map[string][]TypingIndicator),
		typingTimeout: typingTimeout,
		clock:         time.Now,
	}
}

// Online records a new authenticated session for the user.
func (m *Manager) Online(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.presences[userID]
	if p == nil {
		p = &UserPresence{UserID: userID}
		m.presences[userID] = p
	}
	p.SessionCount++
	p.Status = StatusOnline
	p.LastSeen = m.clock().Unix()
}

// Offline records the end of one session. It returns true when that was the
// user's last session and they are now fully offline.
func (m *Manager) Offline(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.presences[userID]
	if p == nil {
		return false
	}
	if p.SessionCount > 0 {
		p.SessionCount--
	}
	if p.SessionCount == 0 {
		p.Status = StatusOffline
		p.LastSeen = m.clock().Unix()
		return true
	}
	return false
}

// SetStatus applies a client-supplied availability update.
func (m *Manager) SetStatus(userID string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.presences[userID]
	if p == nil {
		return errs.ErrTargetNotFound.WithDetail("user=" + userID)
	}
	p.Status = status
	p.LastSeen = m.clock().Unix()
	return nil
}

// StartTyping records (or refreshes) the user's indicator: a repeated start
// replaces the old entry so the expiry moves with the latest event.
func (m *Manager) StartTyping(userID, userName, roomID string) {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.pruneTypingLocked(roomID, now)
	kept := make([]TypingIndicator, 0, len(list)+1)
	for _, t := range list {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	m.typing[roomID] = append(kept, TypingIndicator{
		UserID:    userID,
		UserName:  userName,
		RoomID:    roomID,
		StartedAt: now.Unix(),
		expiresAt: now.Add(m.typingTimeout),
	})
}

func (m *Manager) StopTyping(userID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.typing[roomID]
	kept := list[:0]
	for _, t := range list {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(m.typing, roomID)
	} else {
		m.typing[roomID] = kept
	}
}

// TypingIn returns the unexpired typing indicators for a room.
func (m *Manager) TypingIn(roomID string) []TypingIndicator {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.pruneTypingLocked(roomID, now)
	out := make([]TypingIndicator, len(list))
	copy(out, list)
	return out
}

func (m *Manager) pruneTypingLocked(roomID string, now time.Time) []TypingIndicator {
	list := m.typing[roomID]
	kept := list[:0]
	for _, t := range list {
		if t.expiresAt.After(now) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(m.typing, roomID)
		return nil
	}
	m.typing[roomID] = kept
	return kept
}

// Snapshot returns presence for the requested users; unknown users come back
// as offline entries so the response shape is stable.
func (m *Manager) Snapshot(userIDs []string) map[string]UserPresence {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]UserPresence, len(userIDs))
	for _, id := range userIDs {
		if p, ok := m.presences[id]; ok {
			out[id] = *p
		} else {
			out[id] = UserPresence{UserID: id, Status: StatusOffline}
		}
	}
	return out
}

// Prune drops offline users whose last activity is older than maxAge.
func (m *Manager) Prune(maxAge time.Duration) int {
	cutoff := m.clock().Add(-maxAge).Unix()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, p := range m.presences {
		if p.SessionCount == 0 && p.LastSeen < cutoff {
			delete(m.presences, id)
			n++
		}
	}
	return n
}
