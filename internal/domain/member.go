package domain

import "errors"

const MaxDisplayNameLen = 36

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
)

// ConnID is the opaque identifier of one client connection. It is minted
// by the transport layer and stays stable for the connection's lifetime.
type ConnID string

// Member is one connection's membership record within a room.
type Member struct {
	ID   ConnID `json:"id"`
	Name string `json:"name"`
}

// NewMember is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewMember(id ConnID, name string) (*Member, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return nil, ErrNameTooLong
	}
	return &Member{ID: id, Name: name}, nil
}
