package handlers

import (
	"encoding/json"
	"fmt"

	"RelayGate/logger"
	"RelayGate/service/relay"
)

const channelRoomPrefix = "channel:"

type channelPayload struct {
	ChannelID string          `json:"channel_id"`
	MessageID string          `json:"message_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func decodeChannelPayload(data json.RawMessage) (*channelPayload, error) {
	var p channelPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("channel payload: %w", err)
	}
	if p.ChannelID == "" {
		return nil, fmt.Errorf("channel payload: missing channel_id")
	}
	return &p, nil
}

// ChannelEventHandler re-emits a channel event to every other subscriber of
// the channel's room, attaching the sender's identity (empty object when
// unauthenticated) as provenance.
type ChannelEventHandler struct{}

func NewChannelEventHandler() relay.Handler { return &ChannelEventHandler{} }

func (h *ChannelEventHandler) Type() relay.EventType { return relay.EventChannel }

func (h *ChannelEventHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	p, err := decodeChannelPayload(f.Data)
	if err != nil {
		return err
	}

	id, registered := ctx.S.Registry().Lookup(c.ConnID)
	if !registered {
		logger.Debugf("[channel-events] conn=%s not registered, dropped", c.ConnID)
		return nil
	}

	data := p.Data
	if data == nil {
		data = json.RawMessage(`{}`)
	}
	out := map[string]interface{}{
		"channel_id": p.ChannelID,
		"message_id": p.MessageID,
		"data":       data,
		"user":       id.Provenance(),
	}

	room := channelRoomPrefix + p.ChannelID
	n, err := ctx.S.BroadcastToRoom(room, "channel-events", out, c.ConnID)
	if err != nil {
		return err
	}
	logger.Debugf("[channel-events] room=%s targets=%d from=%s", room, n, c.ConnID)
	return nil
}

// ChannelJoinHandler subscribes the connection to a channel room.
type ChannelJoinHandler struct{}

func NewChannelJoinHandler() relay.Handler { return &ChannelJoinHandler{} }

func (h *ChannelJoinHandler) Type() relay.EventType { return relay.EventChannelJoin }

func (h *ChannelJoinHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	p, err := decodeChannelPayload(f.Data)
	if err != nil {
		return err
	}
	if err := ctx.S.JoinRoom(c.ConnID, channelRoomPrefix+p.ChannelID); err != nil {
		logger.Debugf("[channel-join] dropped conn=%s err=%v", c.ConnID, err)
		return nil
	}
	logger.Infof("[channel-join] conn=%s channel=%s", c.ConnID, p.ChannelID)
	return nil
}

// ChannelLeaveHandler unsubscribes the connection from a channel room.
type ChannelLeaveHandler struct{}

func NewChannelLeaveHandler() relay.Handler { return &ChannelLeaveHandler{} }

func (h *ChannelLeaveHandler) Type() relay.EventType { return relay.EventChannelLeave }

func (h *ChannelLeaveHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	p, err := decodeChannelPayload(f.Data)
	if err != nil {
		return err
	}
	ctx.S.LeaveRoom(c.ConnID, channelRoomPrefix+p.ChannelID)
	logger.Infof("[channel-leave] conn=%s channel=%s", c.ConnID, p.ChannelID)
	return nil
}

// JoinChannelsHandler subscribes an authenticated connection to a batch of
// channel rooms; the client learns its channel list from the backend API.
type JoinChannelsHandler struct{}

func NewJoinChannelsHandler() relay.Handler { return &JoinChannelsHandler{} }

func (h *JoinChannelsHandler) Type() relay.EventType { return relay.EventJoinChannels }

func (h *JoinChannelsHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	id, registered := ctx.S.Registry().Lookup(c.ConnID)
	if !registered || id == nil {
		logger.Warnf("[join-channels] conn=%s not authenticated, ignored", c.ConnID)
		return nil
	}

	var payload struct {
		ChannelIDs []string `json:"channel_ids"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return fmt.Errorf("join-channels payload: %w", err)
	}
	for _, ch := range payload.ChannelIDs {
		if ch == "" {
			continue
		}
		if err := ctx.S.JoinRoom(c.ConnID, channelRoomPrefix+ch); err != nil {
			logger.Debugf("[join-channels] conn=%s channel=%s err=%v", c.ConnID, ch, err)
		}
	}
	logger.Infof("[join-channels] user=%s conn=%s channels=%d", id.ID, c.ConnID, len(payload.ChannelIDs))
	return nil
}
