package handlers

import (
	"RelayGate/logger"
	"RelayGate/service/relay"
)

// ChatEventHandler is a passthrough: chat processing happens over the HTTP
// API, the relay only observes these signals.
type ChatEventHandler struct{}

func NewChatEventHandler() relay.Handler { return &ChatEventHandler{} }

func (h *ChatEventHandler) Type() relay.EventType { return relay.EventChat }

func (h *ChatEventHandler) Handle(_ *relay.Context, f *relay.Frame, c *relay.Client) error {
	logger.Debugf("[chat-events] conn=%s len=%d", c.ConnID, len(f.Data))
	return nil
}
