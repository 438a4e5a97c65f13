package relay

import "sync"

// RoomManager is the in-process implementation of Membership. Rooms are
// dynamic subscriber sets: created on first join, pruned on last leave.
type RoomManager struct {
	mu     sync.RWMutex
	byRoom map[string]map[string]struct{}
	byConn map[string]map[string]struct{} // reverse index for LeaveAll
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		byRoom: make(map[string]map[string]struct{}),
		byConn: make(map[string]map[string]struct{}),
	}
}

func (rm *RoomManager) Join(room, connID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.byRoom[room] == nil {
		rm.byRoom[room] = make(map[string]struct{})
	}
	rm.byRoom[room][connID] = struct{}{}
	if rm.byConn[connID] == nil {
		rm.byConn[connID] = make(map[string]struct{})
	}
	rm.byConn[connID][room] = struct{}{}
}

func (rm *RoomManager) Leave(room, connID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.leaveLocked(room, connID)
}

func (rm *RoomManager) leaveLocked(room, connID string) {
	if set := rm.byRoom[room]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(rm.byRoom, room)
		}
	}
	if rooms := rm.byConn[connID]; rooms != nil {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(rm.byConn, connID)
		}
	}
}

// LeaveAll removes the connection from every room it joined, part of the
// disconnect cascade.
func (rm *RoomManager) LeaveAll(connID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for room := range rm.byConn[connID] {
		rm.leaveLocked(room, connID)
	}
}

// MembersOf satisfies Membership.
func (rm *RoomManager) MembersOf(room string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	set := rm.byRoom[room]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (rm *RoomManager) Len() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.byRoom)
}
