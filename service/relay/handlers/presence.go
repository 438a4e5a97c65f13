package handlers

import (
	"encoding/json"
	"fmt"

	"RelayGate/logger"
	"RelayGate/service/presence"
	"RelayGate/service/relay"
)

// PresenceStatusHandler applies a user-supplied availability update.
type PresenceStatusHandler struct{}

func NewPresenceStatusHandler() relay.Handler { return &PresenceStatusHandler{} }

func (h *PresenceStatusHandler) Type() relay.EventType { return relay.EventPresence }

func (h *PresenceStatusHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	id, _ := ctx.S.Registry().Lookup(c.ConnID)
	if id == nil {
		logger.Warnf("[presence] conn=%s not authenticated, ignored", c.ConnID)
		return nil
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return fmt.Errorf("presence payload: %w", err)
	}
	status, ok := presence.ParseStatus(payload.Status)
	if !ok {
		return fmt.Errorf("presence: invalid status %q", payload.Status)
	}
	return ctx.S.Presence().SetStatus(id.ID, status)
}

type typingPayload struct {
	RoomID string `json:"room_id"`
}

// TypingStartHandler records the indicator and tells the rest of the room.
type TypingStartHandler struct{}

func NewTypingStartHandler() relay.Handler { return &TypingStartHandler{} }

func (h *TypingStartHandler) Type() relay.EventType { return relay.EventTypingStart }

func (h *TypingStartHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	id, _ := ctx.S.Registry().Lookup(c.ConnID)
	if id == nil {
		logger.Warnf("[typing:start] conn=%s not authenticated, ignored", c.ConnID)
		return nil
	}

	var p typingPayload
	if err := json.Unmarshal(f.Data, &p); err != nil || p.RoomID == "" {
		return fmt.Errorf("typing:start: missing room_id")
	}

	ctx.S.Presence().StartTyping(id.ID, id.Name, p.RoomID)
	_, err := ctx.S.BroadcastToRoom(p.RoomID, "typing:start", map[string]string{
		"user_id":   id.ID,
		"user_name": id.Name,
		"room_id":   p.RoomID,
	}, c.ConnID)
	return err
}

// TypingStopHandler clears the indicator and tells the rest of the room.
type TypingStopHandler struct{}

func NewTypingStopHandler() relay.Handler { return &TypingStopHandler{} }

func (h *TypingStopHandler) Type() relay.EventType { return relay.EventTypingStop }

func (h *TypingStopHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	id, _ := ctx.S.Registry().Lookup(c.ConnID)
	if id == nil {
		return nil
	}

	var p typingPayload
	if err := json.Unmarshal(f.Data, &p); err != nil || p.RoomID == "" {
		return fmt.Errorf("typing:stop: missing room_id")
	}

	ctx.S.Presence().StopTyping(id.ID, p.RoomID)
	_, err := ctx.S.BroadcastToRoom(p.RoomID, "typing:stop", map[string]string{
		"user_id": id.ID,
		"room_id": p.RoomID,
	}, c.ConnID)
	return err
}
