package relay

import (
	"encoding/json"
	"fmt"
)

// EventType is the closed set of inbound event tags. Anything else decodes
// to EventUnknown and is logged and dropped.
type EventType string

const (
	EventUserJoin     EventType = "user-join"
	EventJoinChannels EventType = "join-channels"
	EventUsage        EventType = "usage"
	EventChat         EventType = "chat-events"
	EventChannel      EventType = "channel-events"
	EventChannelJoin  EventType = "channel-join"
	EventChannelLeave EventType = "channel-leave"
	EventPresence     EventType = "presence:status"
	EventTypingStart  EventType = "typing:start"
	EventTypingStop   EventType = "typing:stop"
	EventUnknown      EventType = ""
)

func classify(event string) EventType {
	switch EventType(event) {
	case EventUserJoin, EventJoinChannels, EventUsage, EventChat, EventChannel,
		EventChannelJoin, EventChannelLeave, EventPresence, EventTypingStart,
		EventTypingStop:
		return EventType(event)
	default:
		return EventUnknown
	}
}

// Frame is one wire message: an event tag plus an opaque payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`

	typ EventType
}

func (f *Frame) Type() EventType { return f.typ }

// ParseFrame decodes a raw inbound message. Classification happens exactly
// once here; handlers switch on Frame.Type, never on the raw string.
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	f.typ = classify(f.Event)
	return &f, nil
}

// EncodeFrame builds an outbound wire message.
func EncodeFrame(event string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(&Frame{Event: event, Data: payload})
}

// AuthPayload is the credential carried by a user-join frame. The nested
// form {"auth":{"token":...}} matches existing clients; a bare token is
// accepted too.
type AuthPayload struct {
	Auth struct {
		Token string `json:"token"`
	} `json:"auth"`
	Token string `json:"token"`
}

func (p *AuthPayload) token() string {
	if p.Auth.Token != "" {
		return p.Auth.Token
	}
	return p.Token
}

// ExtractToken pulls the credential out of a user-join payload, empty when
// absent.
func ExtractToken(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var p AuthPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ""
	}
	return p.token()
}
