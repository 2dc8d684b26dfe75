package websocket

import "encoding/json"

// Inbound actions.
const (
	ActionSetNickname  = "setNickname"
	ActionCreateRoom   = "createRoom"
	ActionGetRoomList  = "getRoomList"
	ActionJoinRoom     = "joinRoom"
	ActionMakeMove     = "makeMove"
	ActionRestartGame  = "restartGame"
	ActionLobbyMessage = "lobbyMessage"
	ActionGameMessage  = "gameMessage"
)

// Outbound actions.
const (
	ActionPlayerSymbol = "playerSymbol"
	ActionBoardUpdate  = "boardUpdate"
	ActionGameOver     = "gameOver"
	ActionUserList     = "userList"
	ActionRoomList     = "roomList"
	ActionStartGame    = "startGame"
	ActionChatMessage  = "chatMessage"
	ActionOpponentLeft = "opponentLeft"
)

const SpectatorSymbol = "spectator"

// Message is the envelope for every frame in both directions: an
// action tag plus an action-specific payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type NicknamePayload struct {
	Nickname string `json:"nickname"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type MovePayload struct {
	RoomID string `json:"roomId"`
	Cell   int    `json:"cellIndex"`
}

type ChatPayload struct {
	RoomID string `json:"roomId,omitempty"`
	Text   string `json:"text"`
}

// BoardUpdate is the authoritative room snapshot. CurrentTurn is null
// once the game is over.
type BoardUpdate struct {
	Board       [9]string `json:"board"`
	CurrentTurn *string   `json:"currentTurn"`
}

type ChatMessage struct {
	From   string `json:"from"`
	Text   string `json:"text"`
	RoomID string `json:"roomId,omitempty"`
}
