package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/framereview/annotations/internal/channel"
	ws "github.com/gorilla/websocket"
)

const (
	sendChSize = 1024
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// connection is one subscribed collaborator with a single write goroutine.
type connection struct {
	conn   *ws.Conn
	sendCh channel.Channel[[]byte]
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func newConnection(conn *ws.Conn, logger *slog.Logger) *connection {
	return &connection{
		conn:   conn,
		sendCh: channel.New[[]byte](sendChSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// send pushes data to the write loop. Non-blocking; drops if channel full.
func (c *connection) send(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	if !c.sendCh.TrySend(data) {
		c.logger.Warn("WebSocket send channel full, dropping message", "remote", c.conn.RemoteAddr().String())
	}
}

// writeLoop drains sendCh and writes messages to the WebSocket. It returns
// on error or shutdown.
func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh.Receive():
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("WebSocket SetWriteDeadline error", "error", err)
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.logger.Debug("WebSocket write error", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages and notices when the peer goes away.
func (c *connection) readLoop() {
	defer c.close()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// close sends a close frame and stops both loops. Safe to call repeatedly.
func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		_ = c.conn.Close()
	})
}
