package entity

// Player is one seat in a room. The mark is an explicit field, not a
// position in the player list.
type Player struct {
	ID   string `json:"id"`
	Mark string `json:"mark"`
}

// User binds a live connection to its chosen nickname. RoomID is set
// while the user occupies a seat in a room, it stays empty for
// spectators.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RoomID string `json:"room_id,omitempty"`
}
