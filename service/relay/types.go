package relay

import (
	"context"
	"encoding/json"
)

// Identity is the authenticated principal as returned by the auth backend.
// It is immutable once bound to a connection; re-authentication binds a
// fresh value.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`

	// Raw is the backend's response body verbatim, re-emitted as provenance
	// on broadcasts so fields the relay does not model survive the hop.
	Raw json.RawMessage `json:"-"`
}

// Provenance returns the identity as it should appear on relayed events.
// A nil identity yields an empty object (unauthenticated sender).
func (id *Identity) Provenance() json.RawMessage {
	if id == nil {
		return json.RawMessage(`{}`)
	}
	if len(id.Raw) > 0 {
		return id.Raw
	}
	b, err := json.Marshal(id)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// Authenticator exchanges a credential token for an identity. Implemented by
// service/authclient against the HTTP backend; faked in tests.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// Membership supplies the subscriber set of a room at broadcast time. The
// router fans out through this interface and never stores membership itself;
// the in-process RoomManager is the default implementation.
type Membership interface {
	MembersOf(room string) []string
}

// Context is passed to event handlers.
type Context struct {
	S *Server
}

// Handler processes one inbound event type.
type Handler interface {
	Type() EventType
	Handle(ctx *Context, f *Frame, c *Client) error
}
