package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"RelayGate/logger"
	"RelayGate/tools/errs"
)

const (
	writeWait  = 5 * time.Second
	pingEvery  = 25 * time.Second
	pongWait   = 60 * time.Second
	maxMsgSize = 1 << 20
)

// Client is one live transport session. The websocket is written only by the
// writer goroutine; everything else enqueues onto Send. A single user may
// hold several clients, each tracked separately.
type Client struct {
	ConnID string
	Send   chan []byte

	ws        *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an accepted websocket. ws may be nil in tests; deliveries
// are then observable on Send directly.
func NewClient(connID string, ws *websocket.Conn, sendQueue int) *Client {
	if sendQueue <= 0 {
		sendQueue = 256
	}
	return &Client{
		ConnID: connID,
		Send:   make(chan []byte, sendQueue),
		ws:     ws,
		done:   make(chan struct{}),
	}
}

// Enqueue hands a payload to the writer goroutine. It never blocks: a closed
// client or a full queue is a delivery failure the caller tolerates.
func (c *Client) Enqueue(payload []byte) error {
	select {
	case <-c.done:
		return errs.ErrDeliveryFailure.WithDetail("connection closed")
	default:
	}
	select {
	case c.Send <- payload:
		return nil
	default:
		return errs.ErrDeliveryFailure.WithDetail("send queue full")
	}
}

// Close releases the writer goroutine. Safe to call multiple times and from
// any goroutine; Send is never closed so concurrent Enqueue cannot panic.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// writePump drains Send onto the websocket and keeps the connection alive
// with pings. It owns all writes; it exits when Close is called or a write
// fails, closing the socket either way so the read loop unblocks.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-c.Send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debugf("[client] write failed conn=%s err=%v", c.ConnID, err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
