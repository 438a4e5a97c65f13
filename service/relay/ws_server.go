package relay

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"RelayGate/logger"
	"RelayGate/metrics"
	"RelayGate/tools/safe"
)

// HandleWS returns the gin handler that upgrades /ws requests and runs the
// connection's read loop. checkOrigin may be nil to allow any origin.
func (s *Server) HandleWS(checkOrigin func(*http.Request) bool) gin.HandlerFunc {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin,
	}

	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Infof("[ws] upgrade failed: %v", err)
			return
		}
		s.serveConn(ws, c.Query("token"))
	}
}

// serveConn owns one connection from accept to cascade. The writer
// goroutine has exclusive write access; this goroutine only reads.
func (s *Server) serveConn(ws *websocket.Conn, connectToken string) {
	connID := uuid.NewString()
	client := NewClient(connID, ws, s.opts.SendQueue)

	if err := s.Accept(client); err != nil {
		_ = ws.Close()
		return
	}
	safe.Go("ws-writer-"+connID, client.writePump)

	defer func() {
		s.Disconnect(connID)
		client.Close()
	}()

	ws.SetReadLimit(maxMsgSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		s.Touch(connID)
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Credential supplied at connect time: authenticate before the first
	// read. Failure is not fatal, the connection stays open unauthenticated.
	if connectToken != "" {
		if _, err := s.Authenticate(context.Background(), connID, connectToken); err != nil {
			logger.Warnf("[ws] connect auth failed conn=%s err=%v", connID, err)
		}
	}

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			s.logReadExit(connID, err)
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.Touch(connID)

		if !s.allowEvent(connID) {
			logger.Debugf("[ws] rate limited conn=%s, dropped", connID)
			continue
		}

		f, perr := ParseFrame(data)
		if perr != nil {
			logger.Debugf("[ws] bad frame conn=%s err=%v len=%d", connID, perr, len(data))
			continue
		}
		if f.Type() == EventUnknown {
			metrics.EventsReceived.WithLabelValues("unknown").Inc()
			logger.Debugf("[ws] unknown event %q conn=%s, dropped", f.Event, connID)
			continue
		}
		metrics.EventsReceived.WithLabelValues(f.Event).Inc()

		if !s.disp.Handles(f.Type()) {
			logger.Debugf("[ws] no handler for event %q conn=%s, dropped", f.Event, connID)
			continue
		}
		if err := s.disp.Dispatch(&Context{S: s}, f, client); err != nil {
			// Handler failures are recovered locally; the connection and its
			// peers are unaffected.
			logger.Warnf("[ws] handler %s failed conn=%s err=%v", f.Event, connID, err)
		}
	}
}

func (s *Server) logReadExit(connID string, err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		logger.Infof("[ws] peer closed conn=%s", connID)
	default:
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			logger.Infof("[ws] read timeout conn=%s", connID)
			return
		}
		logger.Infof("[ws] read error conn=%s err=%v", connID, err)
	}
}
