package handlers

import (
	"encoding/json"
	"fmt"

	"RelayGate/logger"
	"RelayGate/service/relay"
)

// UsageHandler records model activity pings. Registration is required,
// authentication is not; a conn that raced its own disconnect is dropped
// silently.
type UsageHandler struct{}

func NewUsageHandler() relay.Handler { return &UsageHandler{} }

func (h *UsageHandler) Type() relay.EventType { return relay.EventUsage }

func (h *UsageHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	var payload struct {
		Model string `json:"model"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil || payload.Model == "" {
		return fmt.Errorf("usage: missing model id")
	}
	if err := ctx.S.TrackUsage(c.ConnID, payload.Model); err != nil {
		logger.Debugf("[usage] dropped conn=%s err=%v", c.ConnID, err)
	}
	return nil
}
