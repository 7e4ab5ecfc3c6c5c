package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avelis/huddle/internal/core"
	"github.com/avelis/huddle/internal/domain"
)

const writeTimeout = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cid domain.ConnID, lc *core.Lifecycle, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(cid)).Msg("readPump closing")
		if lc.Terminate() {
			ctl.onDisconnect(cid)
		}
		ctl.conns.Add(-1)
		c.Close()
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleEvent(cid, lc, c, data)
		}
	}
}

// handleEvent maps each inbound client event to exactly one registry
// operation; the handlers decide the outbound audience.
func (ctl *Controller) handleEvent(cid domain.ConnID, lc *core.Lifecycle, c *WsSignalConn, data []byte) {
	if !lc.Alive() {
		return
	}

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "create_room":
		ctl.handleCreateRoom(cid, lc, c, data)
	case "join_room":
		ctl.handleJoinRoom(cid, lc, c, data)
	case "get_room_users":
		ctl.handleGetRoomUsers(cid, c, data)
	case "send_message":
		ctl.handleSendMessage(cid, c, data)
	case "leave_room":
		ctl.handleLeaveRoom(cid, lc, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

// onDisconnect is the terminal cleanup path, driven by transport closure.
func (ctl *Controller) onDisconnect(cid domain.ConnID) {
	code, remaining, ok := ctl.Registry.Disconnect(cid)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(cid)).Str("code", string(code)).Msg("disconnect cleanup")
	ctl.broadcast(remaining, userLeftEvent{Type: "user_left", ID: cid})
}

func (ctl *Controller) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c core.SignalConnection, code string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": code,
	})
}
