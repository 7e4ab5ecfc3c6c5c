package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/avelis/huddle/internal/core"
	"github.com/avelis/huddle/internal/domain"
)

type userPayload struct {
	Name string `json:"name"`
}

type userJoinedEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type userLeftEvent struct {
	Type string        `json:"type"`
	ID   domain.ConnID `json:"id"`
}

func (ctl *Controller) handleCreateRoom(
	cid domain.ConnID,
	lc *core.Lifecycle,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Type     string      `json:"type"`
		RoomName string      `json:"roomName"`
		User     userPayload `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create_room payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	member, err := domain.NewMember(cid, p.User.Name)
	if err != nil {
		ctl.sendError(conn, "invalid_name")
		return
	}

	// A connection holds at most one membership; leave the current room
	// before creating the next one.
	ctl.leaveCurrent(cid, lc)

	room, err := ctl.Registry.CreateRoom(domain.RoomName(p.RoomName), member, conn)
	if errors.Is(err, core.ErrCodeSpaceExhausted) {
		ctl.sendError(conn, "capacity_exhausted")
		return
	}
	if err != nil {
		ctl.sendError(conn, "create_failed")
		return
	}
	if err := lc.EnterRoom(); err != nil {
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(cid)).Str("code", string(room.Code)).Msg("create_room")
	ctl.sendJSON(conn, struct {
		Type    string          `json:"type"`
		Name    domain.RoomName `json:"name"`
		Code    domain.RoomCode `json:"code"`
		Members []domain.Member `json:"members"`
	}{
		Type:    "room_created",
		Name:    room.Name,
		Code:    room.Code,
		Members: room.Members,
	})
}

func (ctl *Controller) handleJoinRoom(
	cid domain.ConnID,
	lc *core.Lifecycle,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Type     string      `json:"type"`
		RoomCode string      `json:"roomCode"`
		User     userPayload `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join_room payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	member, err := domain.NewMember(cid, p.User.Name)
	if err != nil {
		ctl.sendError(conn, "invalid_name")
		return
	}

	// Check the target before leaving the current room, so a join to an
	// unknown code mutates nothing.
	code := domain.RoomCode(p.RoomCode)
	if _, ok := ctl.Registry.Members(code); !ok {
		ctl.sendJSON(conn, map[string]any{"type": "room_not_found"})
		return
	}

	ctl.leaveCurrent(cid, lc)

	room, others, err := ctl.Registry.JoinRoom(code, member, conn)
	if errors.Is(err, core.ErrRoomNotFound) {
		// The room emptied out between the check and the join.
		ctl.sendJSON(conn, map[string]any{"type": "room_not_found"})
		return
	}
	if err != nil {
		ctl.sendError(conn, "join_failed")
		return
	}
	if err := lc.EnterRoom(); err != nil {
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(cid)).Str("code", string(room.Code)).Msg("join_room")
	ctl.sendJSON(conn, struct {
		Type    string            `json:"type"`
		Room    core.RoomSnapshot `json:"room"`
		Members []domain.Member   `json:"members"`
	}{
		Type:    "room_joined",
		Room:    room,
		Members: room.Members,
	})
	ctl.broadcast(others, userJoinedEvent{Type: "user_joined", Name: member.Name})
}

// handleGetRoomUsers answers only when the room exists; a miss is a
// silent no-op on the wire.
func (ctl *Controller) handleGetRoomUsers(
	cid domain.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad get_room_users payload")
		return
	}

	members, ok := ctl.Registry.Members(domain.RoomCode(p.RoomCode))
	if !ok {
		log.Debug().Str("module", "signal").Str("conn", string(cid)).Str("code", p.RoomCode).Msg("get_room_users on unknown room")
		return
	}
	ctl.sendJSON(conn, struct {
		Type    string          `json:"type"`
		Members []domain.Member `json:"members"`
	}{
		Type:    "room_users",
		Members: members,
	})
}

func (ctl *Controller) handleLeaveRoom(
	cid domain.ConnID,
	lc *core.Lifecycle,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Type     string        `json:"type"`
		RoomCode string        `json:"roomCode"`
		UserID   domain.ConnID `json:"userId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave_room payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	code := domain.RoomCode(p.RoomCode)
	if ctl.Strict && !ctl.Registry.IsMember(code, cid) {
		ctl.sendError(conn, "not_a_member")
		return
	}

	target := p.UserID
	if target == "" {
		target = cid
	}

	left, remaining := ctl.Registry.Leave(code, target)
	if !left {
		return
	}
	if target == cid {
		lc.LeaveRoom()
	}

	log.Info().Str("module", "signal").Str("conn", string(cid)).Str("code", string(code)).Str("target", string(target)).Msg("leave_room")
	ctl.broadcastFrom(cid, remaining, userLeftEvent{Type: "user_left", ID: target})
}

// leaveCurrent evicts the connection from whatever room it is in,
// notifying the members left behind. Used when a connection creates or
// joins a room while still holding a membership.
func (ctl *Controller) leaveCurrent(cid domain.ConnID, lc *core.Lifecycle) {
	code, ok := ctl.Registry.RoomOf(cid)
	if !ok {
		return
	}
	left, remaining := ctl.Registry.Leave(code, cid)
	if left {
		lc.LeaveRoom()
		ctl.broadcast(remaining, userLeftEvent{Type: "user_left", ID: cid})
	}
}
