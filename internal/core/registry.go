package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avelis/huddle/internal/domain"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
	ErrNotAMember         = errors.New("not a member of the room")
)

const defaultCodeAttempts = 16

type memberEntry struct {
	meta *domain.Member
	conn SignalConnection
}

type roomState struct {
	room    domain.Room
	members []memberEntry // insertion order = join order
}

// Registry owns both the room map and the presence map. Every public
// operation mutates them inside one critical section, so the two
// structures can never be observed out of step. It never closes
// adapter-owned connections.
type Registry struct {
	mu       sync.Mutex
	codes    CodeGenerator
	attempts int
	rooms    map[domain.RoomCode]*roomState
	presence map[domain.ConnID]domain.RoomCode
}

// NewRegistry builds an empty registry. attempts bounds how many codes
// CreateRoom draws before giving up with ErrCodeSpaceExhausted;
// non-positive values fall back to the default.
func NewRegistry(codes CodeGenerator, attempts int) *Registry {
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}
	return &Registry{
		codes:    codes,
		attempts: attempts,
		rooms:    make(map[domain.RoomCode]*roomState),
		presence: make(map[domain.ConnID]domain.RoomCode),
	}
}

// CreateRoom generates a free code, creates the room with the creator as
// its only member, and records presence. A caller already in a room must
// leave it first; the adapter enforces that ordering.
func (r *Registry) CreateRoom(name domain.RoomName, creator *domain.Member, conn SignalConnection) (RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code domain.RoomCode
	for i := 0; i < r.attempts; i++ {
		candidate := r.codes.Generate()
		if _, taken := r.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		log.Warn().Str("module", "core.registry").Int("attempts", r.attempts).Msg("code space exhausted")
		return RoomSnapshot{}, ErrCodeSpaceExhausted
	}

	st := &roomState{
		room:    domain.Room{Code: code, Name: name},
		members: []memberEntry{{meta: creator, conn: conn}},
	}
	r.rooms[code] = st
	r.presence[creator.ID] = code

	log.Info().Str("module", "core.registry").Str("code", string(code)).Str("conn", string(creator.ID)).Msg("room created")
	return snapshot(st), nil
}

// JoinRoom appends a member to an existing room and records presence.
// The returned recipients are the members that were already in the room,
// captured under the lock for the user_joined fan-out.
func (r *Registry) JoinRoom(code domain.RoomCode, joiner *domain.Member, conn SignalConnection) (RoomSnapshot, []Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[code]
	if !ok {
		return RoomSnapshot{}, nil, ErrRoomNotFound
	}

	others := recipients(st, joiner.ID)
	st.members = append(st.members, memberEntry{meta: joiner, conn: conn})
	r.presence[joiner.ID] = code

	log.Info().Str("module", "core.registry").Str("code", string(code)).Str("conn", string(joiner.ID)).Int("members", len(st.members)).Msg("member joined")
	return snapshot(st), others, nil
}

// Members returns the room's member list in join order. The second
// return is false when the room does not exist.
func (r *Registry) Members(code domain.RoomCode) ([]domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[code]
	if !ok {
		return nil, false
	}
	return memberList(st), true
}

// Leave removes the member with the given connection id, deleting the
// room in the same step when it empties. Idempotent: a second call for an
// absent member changes nothing. The returned recipients are the members
// still in the room afterward (empty when the room was deleted).
func (r *Registry) Leave(code domain.RoomCode, cid domain.ConnID) (bool, []Recipient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(code, cid)
}

// Disconnect resolves the connection's room through presence and, if it
// has one, behaves like Leave for that pair. Presence for the connection
// is cleared unconditionally afterward.
func (r *Registry) Disconnect(cid domain.ConnID) (domain.RoomCode, []Recipient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.presence[cid]
	var remaining []Recipient
	if ok {
		_, remaining = r.leaveLocked(code, cid)
	}
	delete(r.presence, cid)
	return code, remaining, ok
}

// Recipients snapshots a room's connections minus one, for the message
// relay fan-out. The second return is false when the room does not exist.
func (r *Registry) Recipients(code domain.RoomCode, exclude domain.ConnID) ([]Recipient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[code]
	if !ok {
		return nil, false
	}
	return recipients(st, exclude), true
}

// RoomOf reports which room the connection is currently in, if any.
func (r *Registry) RoomOf(cid domain.ConnID) (domain.RoomCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.presence[cid]
	return code, ok
}

// IsMember reports whether the connection is part of the room's member
// list. Used by the strict-membership relay checks.
func (r *Registry) IsMember(code domain.RoomCode, cid domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[code]
	if !ok {
		return false
	}
	for _, m := range st.members {
		if m.meta.ID == cid {
			return true
		}
	}
	return false
}

// Rooms lists all live rooms for the REST surface.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RoomInfo, 0, len(r.rooms))
	for _, st := range r.rooms {
		out = append(out, RoomInfo{Code: st.room.Code, Name: st.room.Name, MemberCount: len(st.members)})
	}
	return out
}

func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// leaveLocked is the single removal path shared by Leave and Disconnect.
// Callers hold r.mu.
func (r *Registry) leaveLocked(code domain.RoomCode, cid domain.ConnID) (bool, []Recipient) {
	st, ok := r.rooms[code]
	if !ok {
		return false, nil
	}

	idx := -1
	for i, m := range st.members {
		if m.meta.ID == cid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	st.members = append(st.members[:idx], st.members[idx+1:]...)
	delete(r.presence, cid)

	if len(st.members) == 0 {
		delete(r.rooms, code)
		log.Info().Str("module", "core.registry").Str("code", string(code)).Msg("room deleted, last member left")
		return true, nil
	}

	log.Info().Str("module", "core.registry").Str("code", string(code)).Str("conn", string(cid)).Int("members", len(st.members)).Msg("member left")
	return true, recipients(st, "")
}

func snapshot(st *roomState) RoomSnapshot {
	return RoomSnapshot{Code: st.room.Code, Name: st.room.Name, Members: memberList(st)}
}

func memberList(st *roomState) []domain.Member {
	out := make([]domain.Member, 0, len(st.members))
	for _, m := range st.members {
		out = append(out, *m.meta)
	}
	return out
}

func recipients(st *roomState, exclude domain.ConnID) []Recipient {
	out := make([]Recipient, 0, len(st.members))
	for _, m := range st.members {
		if m.meta.ID == exclude {
			continue
		}
		out = append(out, Recipient{ID: m.meta.ID, Conn: m.conn})
	}
	return out
}
