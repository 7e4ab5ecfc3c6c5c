// Package signal is the websocket event adapter: it upgrades connections,
// decodes inbound client events, drives the core registry, and fans the
// resulting events out to the right audience.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avelis/huddle/internal/config"
	"github.com/avelis/huddle/internal/core"
	"github.com/avelis/huddle/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn is an indirection over *websocket.Conn to ease testing.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

type Controller struct {
	Registry   *core.Registry
	Strict     bool
	ReadLimit  int64
	SendBuffer int

	conns atomic.Int64
}

func NewController(reg *core.Registry, cfg *config.Config) *Controller {
	return &Controller{
		Registry:   reg,
		Strict:     cfg.StrictMembership,
		ReadLimit:  cfg.ReadLimit,
		SendBuffer: cfg.SendBuffer,
	}
}

// Connections reports the number of live websocket connections,
// for the health endpoint.
func (ctl *Controller) Connections() int64 {
	return ctl.conns.Load()
}

type WsSignalConn struct {
	conn wsConn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and starts the connection's pumps. The
// connection id comes from the client-token middleware cookie.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	cid := domain.ConnID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("conn", string(cid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.SendBuffer),
	}

	lc := core.NewLifecycle()
	ctl.conns.Add(1)
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cid, lc, conn)
}

// broadcast sends an encoded event to every recipient in the snapshot.
// Slow receivers just drop the frame; delivery is best effort.
func (ctl *Controller) broadcast(recipients []core.Recipient, v any) {
	for _, rc := range recipients {
		ctl.sendJSON(rc.Conn, v)
	}
}

// broadcastFrom sends to every recipient except the acting connection.
// Room-scoped events are addressed room minus sender, and a recipient
// snapshot may still contain the sender when it removed someone else.
func (ctl *Controller) broadcastFrom(cid domain.ConnID, recipients []core.Recipient, v any) {
	for _, rc := range recipients {
		if rc.ID == cid {
			continue
		}
		ctl.sendJSON(rc.Conn, v)
	}
}
