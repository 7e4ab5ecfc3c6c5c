// Package domain contains entities without logic, just meta-data.
package domain

type (
	RoomName string
	RoomCode string
)

// Room is the identity of a chat room. The code is assigned once at
// creation and never changes; membership lives in the core registry.
type Room struct {
	Code RoomCode `json:"code"`
	Name RoomName `json:"name"`
}
