package entity

import (
	"fmt"

	"github.com/barkwolwol/tictactoe-server/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX    = "X"
	PlayerO    = "O"
	ResultDraw = "draw"

	EmptyCell = ""

	MaxPlayers = 2
)

// WinCombos lists the eight winning triples in a fixed order:
// rows first, then columns, then diagonals. The scan order is part of
// the contract, results must be reproducible.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Room is a named game instance: the board, the turn state machine and
// up to two player memberships.
type Room struct {
	ID      string    `json:"id"`
	Board   [9]string `json:"board"`
	Winner  string    `json:"winner,omitempty"`
	Status  string    `json:"status"`
	Turn    string    `json:"player_turn,omitempty"`
	Players []*Player `json:"players,omitempty"`
}

func NewRoom(id string) *Room {
	return &Room{
		ID:     id,
		Board:  [9]string{},
		Turn:   PlayerX,
		Status: StatusWaiting,
	}
}

// AddPlayer appends a membership entry. The mark is stored explicitly
// on the entry: the first player gets X, the second O, and the mark
// never changes afterwards even if the other entry is removed.
func (that *Room) AddPlayer(id string) (*Player, error) {
	if that.PlayerByID(id) != nil {
		return nil, fmt.Errorf("%w: player %s", apperror.ErrAlreadyInRoom, id)
	}

	if that.IsFull() {
		return nil, fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.ID)
	}

	mark := PlayerX
	for _, player := range that.Players {
		if player.Mark == PlayerX {
			mark = PlayerO
		}
	}

	player := &Player{ID: id, Mark: mark}
	that.Players = append(that.Players, player)

	// a finished room stays finished until an explicit restart
	if that.IsFull() && that.IsWaiting() {
		that.Status = StatusOngoing
	}

	return player, nil
}

// RemovePlayer drops the membership entry for id and reports whether it
// was present. Remaining entries keep their marks.
func (that *Room) RemovePlayer(id string) bool {
	for i, player := range that.Players {
		if player.ID == id {
			that.Players = append(that.Players[:i], that.Players[i+1:]...)
			return true
		}
	}

	return false
}

func (that *Room) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}

	return nil
}

func (that *Room) IsFull() bool {
	return len(that.Players) == MaxPlayers
}

func (that *Room) IsEmpty() bool {
	return len(that.Players) == 0
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Room) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// DetermineGameResult scans the winning triples in their fixed order
// and returns the winning mark, ResultDraw when the board is full with
// no winner, or EmptyCell while the game is still open.
func (that *Room) DetermineGameResult() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range that.Board {
		if cell == EmptyCell {
			return EmptyCell
		}
	}

	return ResultDraw
}

// UpdateGameState moves the session to finished when the board is
// terminal, clearing the turn so no further moves are accepted.
func (that *Room) UpdateGameState() {
	switch winner := that.DetermineGameResult(); winner {
	case PlayerX, PlayerO:
		that.Winner = winner
		that.Status = StatusFinished
		that.Turn = EmptyCell
	case ResultDraw:
		that.Winner = ResultDraw
		that.Status = StatusFinished
		that.Turn = EmptyCell
	default:
		that.Status = StatusOngoing
	}
}

// MakeTurn applies one move for playerMark. On rejection the room is
// left untouched and a sentinel error names the reason.
func (that *Room) MakeTurn(playerMark string, cell int) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Turn != playerMark {
		return apperror.ErrNotYourTurn
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.Board[cell] = playerMark

	if that.Turn == PlayerX {
		that.Turn = PlayerO
	} else {
		that.Turn = PlayerX
	}

	that.UpdateGameState()

	return nil
}

// Restart is a forced reset: empty board, X to move, any recorded
// outcome cleared. Legal at any point, including mid-game. The room
// goes back to waiting unless both seats are taken.
func (that *Room) Restart() {
	that.Board = [9]string{}
	that.Winner = ""
	that.Turn = PlayerX

	if that.IsFull() {
		that.Status = StatusOngoing
	} else {
		that.Status = StatusWaiting
	}
}

func (that *Room) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	default:
		return nil
	}
}
