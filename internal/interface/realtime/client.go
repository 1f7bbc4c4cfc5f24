package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// client is one websocket connection with a reader and a writer goroutine.
// Only the writer touches the connection's write side.
type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, h *Hub, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

// ID returns the connection id.
func (c *client) ID() string {
	return c.id
}

// Emit queues an event for the writer. Frames for a closed connection or
// a full queue are dropped.
func (c *client) Emit(event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		c.hub.log.Error("failed to encode frame", logger.ConnID(c.id), logger.Event(event), logger.Err(err))
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- frame:
	default:
		c.hub.log.Warn("send queue full, frame dropped", logger.ConnID(c.id), logger.Event(event))
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *client) readPump() {
	defer c.hub.unregister(c)

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("connection closed unexpectedly", logger.ConnID(c.id), logger.Err(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))

		env, err := ParseEnvelope(frame)
		if err != nil {
			c.hub.log.Debug("malformed frame dropped", logger.ConnID(c.id), logger.Err(err))
			continue
		}
		if !c.hub.allow(c, env.Event) {
			continue
		}
		c.hub.dispatch(c, env)
	}
}

func (c *client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	var refresh <-chan time.Time
	if c.hub.presence != nil {
		t := time.NewTicker(cfg.PresenceRefresh)
		defer t.Stop()
		refresh = t.C
	}

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-refresh:
			c.hub.heartbeat(c)
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(cfg.WriteWait))
			return
		}
	}
}
