package relay

import (
	"context"
	"sync"
	"time"

	"RelayGate/logger"
	"RelayGate/metrics"
	"RelayGate/service/presence"
	"RelayGate/tools/errs"
	"RelayGate/tools/safe"
)

// Options tunes the relay server. Zero values fall back to the defaults
// below.
type Options struct {
	SessionTTL    time.Duration // heartbeat age before the sweeper drops a conn
	SweepEvery    time.Duration
	MaxPerUser    int // <=0 unlimited
	AuthTimeout   time.Duration
	FanoutWorkers int
	FanoutQueue   int
	SendQueue     int

	// Inbound rate limit per connection: RateLimitEvents per
	// RateLimitWindow with RateLimitBurst extra headroom. Events <=0
	// disables limiting.
	RateLimitEvents int
	RateLimitBurst  int
	RateLimitWindow time.Duration

	// Membership overrides the fan-out subscriber source; nil uses the
	// server's own RoomManager.
	Membership Membership
}

func (o *Options) norm() {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 120 * time.Second
	}
	if o.SweepEvery <= 0 {
		o.SweepEvery = 30 * time.Second
	}
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = 5 * time.Second
	}
	if o.SendQueue <= 0 {
		o.SendQueue = 256
	}
	if o.RateLimitWindow <= 0 {
		o.RateLimitWindow = time.Minute
	}
}

// Server ties the pools together and owns their consistency. Individual
// pools guard themselves; stateMu provides the cross-pool guarantee: the
// disconnect cascade runs under the write lock, every reader and single-pool
// mutation runs under the read lock, so nobody observes a half-removed
// connection.
type Server struct {
	registry   *Registry
	index      *IdentityIndex
	usage      *UsageTracker
	rooms      *RoomManager
	presence   *presence.Manager
	membership Membership
	auth       Authenticator
	disp       *Dispatcher
	fanout     *Fanout
	limiter    *RateLimiter // nil when limiting is disabled

	opts     Options
	stateMu  sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewServer(auth Authenticator, pres *presence.Manager, opts Options) *Server {
	opts.norm()
	s := &Server{
		registry: NewRegistry(),
		index:    NewIdentityIndex(),
		usage:    NewUsageTracker(),
		rooms:    NewRoomManager(),
		presence: pres,
		auth:     auth,
		disp:     NewDispatcher(),
		fanout:   NewFanout(opts.FanoutWorkers, opts.FanoutQueue),
		opts:     opts,
		stopCh:   make(chan struct{}),
	}
	s.membership = opts.Membership
	if s.membership == nil {
		s.membership = s.rooms
	}
	if opts.RateLimitEvents > 0 {
		s.limiter = NewRateLimiter(opts.RateLimitEvents, opts.RateLimitBurst, opts.RateLimitWindow)
	}
	safe.Go("relay-sweeper", s.sweeper)
	return s
}

func (s *Server) Dispatcher() *Dispatcher     { return s.disp }
func (s *Server) Rooms() *RoomManager         { return s.rooms }
func (s *Server) Presence() *presence.Manager { return s.presence }
func (s *Server) Registry() *Registry         { return s.registry }
func (s *Server) Index() *IdentityIndex       { return s.index }
func (s *Server) Usage() *UsageTracker        { return s.usage }
func (s *Server) AuthTimeout() time.Duration  { return s.opts.AuthTimeout }
func (s *Server) SendQueue() int              { return s.opts.SendQueue }

// Accept registers a freshly upgraded connection. A duplicate ID is logged
// and refused without touching the existing connection.
func (s *Server) Accept(c *Client) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if err := s.registry.Register(c); err != nil {
		logger.Errorf("[relay] accept conn=%s err=%v", c.ConnID, err)
		return err
	}
	metrics.ActiveSessions.Set(float64(s.registry.Len()))
	logger.Infof("[relay] registered conn=%s", c.ConnID)
	return nil
}

// Authenticate delegates the token to the auth backend and, on success,
// binds the identity and indexes the connection. The backend call happens
// before any lock is taken so a slow backend never stalls other
// connections.
func (s *Server) Authenticate(ctx context.Context, connID, token string) (*Identity, error) {
	if token == "" {
		metrics.AuthFailures.Inc()
		return nil, errs.ErrAuthFailure.WithDetail("empty token")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.AuthTimeout)
	defer cancel()
	id, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		metrics.AuthFailures.Inc()
		return nil, err
	}

	var evict *Client

	s.stateMu.RLock()
	prev, err := s.registry.BindIdentity(connID, id)
	if err != nil {
		// Lost a race with disconnect; the cascade already ran.
		s.stateMu.RUnlock()
		return nil, err
	}
	if prev != nil && prev.ID != id.ID {
		s.index.Remove(prev.ID, connID)
		s.presence.Offline(prev.ID)
	}
	fresh := !s.index.Contains(id.ID, connID)
	s.index.Add(id.ID, connID)
	if fresh {
		s.presence.Online(id.ID)
	}
	if s.opts.MaxPerUser > 0 {
		evict = s.pickEvictionLocked(id.ID, connID)
	}
	metrics.ConnectedUsers.Set(float64(s.index.Len()))
	s.stateMu.RUnlock()

	if evict != nil {
		logger.Warnf("[relay] user=%s over connection limit, evicting conn=%s", id.ID, evict.ConnID)
		evict.Close() // its read loop runs the cascade
	}
	logger.Infof("[relay] authenticated conn=%s user=%s", connID, id.ID)
	return id, nil
}

// pickEvictionLocked returns the oldest connection of the user when the
// per-user limit is exceeded, never the one that just authenticated.
func (s *Server) pickEvictionLocked(userID, keepConnID string) *Client {
	conns := s.index.ConnectionsFor(userID)
	if len(conns) <= s.opts.MaxPerUser {
		return nil
	}
	var oldestID string
	var oldestAt time.Time
	for _, id := range conns {
		if id == keepConnID {
			continue
		}
		at, ok := s.registry.CreatedAt(id)
		if !ok {
			continue
		}
		if oldestID == "" || at.Before(oldestAt) {
			oldestID, oldestAt = id, at
		}
	}
	if oldestID == "" {
		return nil
	}
	c, _ := s.registry.Client(oldestID)
	return c
}

// Disconnect runs the cleanup cascade exactly once per connection: registry
// removal, then identity index, rooms, usage, and presence, all inside one
// critical section. Callers may race; whoever wins the registry removal does
// the rest.
func (s *Server) Disconnect(connID string) {
	s.stateMu.Lock()
	id, ok := s.registry.Remove(connID)
	if !ok {
		s.stateMu.Unlock()
		return
	}
	if id != nil {
		s.index.Remove(id.ID, connID)
	}
	s.rooms.LeaveAll(connID)
	s.usage.ReleaseConnection(connID)
	if s.limiter != nil {
		s.limiter.Release(connID)
	}
	if id != nil {
		s.presence.Offline(id.ID)
	}
	metrics.ActiveSessions.Set(float64(s.registry.Len()))
	metrics.ConnectedUsers.Set(float64(s.index.Len()))
	s.stateMu.Unlock()

	if id != nil {
		logger.Infof("[relay] removed conn=%s user=%s", connID, id.ID)
	} else {
		logger.Infof("[relay] removed conn=%s (unauthenticated)", connID)
	}
}

// Touch refreshes the connection heartbeat.
func (s *Server) Touch(connID string) {
	s.registry.Touch(connID)
}

// allowEvent applies the per-connection inbound rate limit. A limited event
// is counted and dropped; the connection stays up.
func (s *Server) allowEvent(connID string) bool {
	if s.limiter == nil {
		return true
	}
	if s.limiter.Allow(connID) {
		return true
	}
	metrics.EventsRateLimited.Inc()
	return false
}

// TrackUsage records resource activity for a registered (not necessarily
// authenticated) connection.
func (s *Server) TrackUsage(connID, resourceID string) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if _, ok := s.registry.Client(connID); !ok {
		return errs.ErrNotRegistered.WithDetail("conn=" + connID)
	}
	s.usage.Touch(resourceID, connID, time.Now())
	return nil
}

// JoinRoom subscribes a registered connection to a room.
func (s *Server) JoinRoom(connID, room string) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if _, ok := s.registry.Client(connID); !ok {
		return errs.ErrNotRegistered.WithDetail("conn=" + connID)
	}
	s.rooms.Join(room, connID)
	return nil
}

func (s *Server) LeaveRoom(connID, room string) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	s.rooms.Leave(room, connID)
}

// EmitToSession delivers one event to one connection.
func (s *Server) EmitToSession(connID, event string, data interface{}) error {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		return errs.ErrInternal.WithDetail(err.Error())
	}
	s.stateMu.RLock()
	c, ok := s.registry.Client(connID)
	s.stateMu.RUnlock()
	if !ok {
		return errs.ErrTargetNotFound.WithDetail("session=" + connID)
	}
	if err := c.Enqueue(payload); err != nil {
		metrics.DeliveryFailures.Inc()
		return err
	}
	metrics.Deliveries.Inc()
	return nil
}

// EmitToUser delivers an event to every connection of the user and returns
// how many deliveries succeeded. A user with no live connections is
// TargetNotFound; individual delivery failures are isolated.
func (s *Server) EmitToUser(userID, event string, data interface{}) (int, error) {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		return 0, errs.ErrInternal.WithDetail(err.Error())
	}

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	conns := s.index.ConnectionsFor(userID)
	if len(conns) == 0 {
		return 0, errs.ErrTargetNotFound.WithDetail("user=" + userID)
	}
	sent := 0
	for _, connID := range conns {
		c, ok := s.registry.Client(connID)
		if !ok {
			continue
		}
		if err := c.Enqueue(payload); err != nil {
			metrics.DeliveryFailures.Inc()
			logger.Debugf("[relay] emit drop user=%s conn=%s err=%v", userID, connID, err)
			continue
		}
		metrics.Deliveries.Inc()
		sent++
	}
	return sent, nil
}

// BroadcastToRoom fans an event out to every subscriber of the room except
// excludeConnID (empty string excludes nobody). It returns the number of
// members targeted; delivery itself is asynchronous and best-effort.
func (s *Server) BroadcastToRoom(room, event string, data interface{}, excludeConnID string) (int, error) {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		return 0, errs.ErrInternal.WithDetail(err.Error())
	}

	s.stateMu.RLock()
	members := s.membership.MembersOf(room)
	clients := make([]*Client, 0, len(members))
	for _, connID := range members {
		if connID == excludeConnID {
			continue
		}
		if c, ok := s.registry.Client(connID); ok {
			clients = append(clients, c)
		}
	}
	s.stateMu.RUnlock()

	s.fanout.Broadcast(clients, payload)
	return len(clients), nil
}

// Stats reports (distinct authenticated users, live sessions) for the
// health endpoint.
func (s *Server) Stats() (users, sessions int) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.index.Len(), s.registry.Len()
}

func (s *Server) sweeper() {
	t := time.NewTicker(s.opts.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
			for _, connID := range s.registry.Stale(s.opts.SessionTTL) {
				logger.Warnf("[relay] sweeping stale conn=%s", connID)
				c, _ := s.registry.Client(connID)
				s.Disconnect(connID)
				if c != nil {
					c.Close()
				}
			}
			s.presence.Prune(time.Hour)
			if s.limiter != nil {
				s.limiter.PruneIdle(10 * time.Minute)
			}
		}
	}
}

// Close stops the sweeper and fan-out workers. Live connections are closed
// by their own read loops as the process shuts down.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.fanout.Close()
	})
}
