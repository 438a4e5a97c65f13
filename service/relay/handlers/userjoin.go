package handlers

import (
	"context"

	"RelayGate/logger"
	"RelayGate/service/relay"
)

// UserJoinHandler runs the explicit identity claim: delegate the token to
// the auth backend, bind on success, and ack with the public identity.
// Failure is silent on the wire (existing clients expect no rejection
// payload) and logged at warn.
type UserJoinHandler struct{}

func NewUserJoinHandler() relay.Handler { return &UserJoinHandler{} }

func (h *UserJoinHandler) Type() relay.EventType { return relay.EventUserJoin }

func (h *UserJoinHandler) Handle(ctx *relay.Context, f *relay.Frame, c *relay.Client) error {
	token := relay.ExtractToken(f.Data)
	id, err := ctx.S.Authenticate(context.Background(), c.ConnID, token)
	if err != nil {
		logger.Warnf("[user-join] auth failed conn=%s err=%v", c.ConnID, err)
		return nil
	}

	ack, err := relay.EncodeFrame("user-join", map[string]string{
		"id":   id.ID,
		"name": id.Name,
	})
	if err != nil {
		return err
	}
	if err := c.Enqueue(ack); err != nil {
		logger.Debugf("[user-join] ack drop conn=%s err=%v", c.ConnID, err)
	}
	return nil
}
