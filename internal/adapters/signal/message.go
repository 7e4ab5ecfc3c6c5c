package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avelis/huddle/internal/domain"
)

// handleSendMessage is a pure relay: the payload is passed through
// verbatim to the room's other members under the new_message type.
// Nothing is persisted. Without strict membership the room code is taken
// on trust from the sender.
func (ctl *Controller) handleSendMessage(
	cid domain.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad send_message payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	codeVal, _ := msg["roomCode"].(string)
	code := domain.RoomCode(codeVal)

	if ctl.Strict && !ctl.Registry.IsMember(code, cid) {
		ctl.sendError(conn, "not_a_member")
		return
	}

	recipients, ok := ctl.Registry.Recipients(code, cid)
	if !ok {
		log.Debug().Str("module", "signal").Str("conn", string(cid)).Str("code", codeVal).Msg("send_message to unknown room")
		return
	}

	msg["type"] = "new_message"
	ctl.broadcast(recipients, msg)
}
