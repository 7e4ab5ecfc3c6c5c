package core

import "github.com/avelis/huddle/internal/domain"

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// CodeGenerator produces candidate room codes. It performs no uniqueness
// check; collision handling belongs to the registry.
type CodeGenerator interface {
	Generate() domain.RoomCode
}

// RoomSnapshot is a read-only view of a room for APIs and wire events
// (no transport fields). Members are in join order.
type RoomSnapshot struct {
	Code    domain.RoomCode `json:"code"`
	Name    domain.RoomName `json:"name"`
	Members []domain.Member `json:"members"`
}

// Recipient pairs a member's connection id with its transport endpoint,
// captured under the registry lock so fan-out can run outside it.
type Recipient struct {
	ID   domain.ConnID
	Conn SignalConnection
}

type RoomInfo struct {
	Code        domain.RoomCode `json:"code"`
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}
