package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkwolwol/tictactoe-server/internal/apperror"
)

func TestRoom_DetermineGameResult(t *testing.T) {
	t.Run("Every winning triple is detected for both marks", func(t *testing.T) {
		for _, mark := range []string{PlayerX, PlayerO} {
			for _, combo := range WinCombos {
				t.Run(fmt.Sprintf("%s wins on %v", mark, combo), func(t *testing.T) {
					// Given: a board where the triple is fully held by one mark
					room := NewRoom("r1")
					for _, cell := range combo {
						room.Board[cell] = mark
					}

					// When: determining the game result
					result := room.DetermineGameResult()

					// Then: that mark should be the winner
					assert.Equal(t, mark, result)
				})
			}
		}
	})

	t.Run("Returns draw when the board is full with no winner", func(t *testing.T) {
		// Given: a fully occupied board with no winning triple
		room := NewRoom("r1")
		room.Board = [9]string{
			PlayerX, PlayerO, PlayerX,
			PlayerO, PlayerX, PlayerO,
			PlayerO, PlayerX, PlayerO,
		}

		// When: determining the game result
		result := room.DetermineGameResult()

		// Then: the result should be a draw
		assert.Equal(t, ResultDraw, result)
	})

	t.Run("Returns empty while the game is still open", func(t *testing.T) {
		// Given: a board with moves left
		room := NewRoom("r1")
		room.Board = [9]string{
			PlayerX, PlayerO, EmptyCell,
			EmptyCell, PlayerX, EmptyCell,
			EmptyCell, EmptyCell, PlayerO,
		}

		// When: determining the game result
		result := room.DetermineGameResult()

		// Then: there should be no outcome yet
		assert.Equal(t, EmptyCell, result)
	})
}

func TestRoom_MakeTurn(t *testing.T) {
	t.Run("Accepted move writes the mark and flips the turn", func(t *testing.T) {
		// Given: an ongoing game with X to move
		room := NewRoom("r1")
		room.Status = StatusOngoing

		// When: X plays cell 0
		err := room.MakeTurn(PlayerX, 0)
		require.NoError(t, err)

		// Then: the cell holds X and it is O's turn
		assert.Equal(t, PlayerX, room.Board[0])
		assert.Equal(t, PlayerO, room.Turn)
		assert.Equal(t, StatusOngoing, room.Status)
	})

	t.Run("Move on an occupied cell leaves the room unchanged", func(t *testing.T) {
		// Given: an ongoing game where cell 0 is taken by X
		room := NewRoom("r1")
		room.Status = StatusOngoing
		require.NoError(t, room.MakeTurn(PlayerX, 0))

		before := *room

		// When: O plays the same cell
		err := room.MakeTurn(PlayerO, 0)

		// Then: the move is rejected and nothing moved
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, before, *room)
	})

	t.Run("Move out of turn leaves the room unchanged", func(t *testing.T) {
		// Given: an ongoing game with X to move
		room := NewRoom("r1")
		room.Status = StatusOngoing

		before := *room

		// When: O tries to move first
		err := room.MakeTurn(PlayerO, 1)

		// Then: the move is rejected and nothing moved
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, before, *room)
	})

	t.Run("Out of range cell indices are rejected", func(t *testing.T) {
		room := NewRoom("r1")
		room.Status = StatusOngoing

		assert.ErrorIs(t, room.MakeTurn(PlayerX, 9), apperror.ErrInvalidCell)
		assert.ErrorIs(t, room.MakeTurn(PlayerX, -1), apperror.ErrInvalidCell)
	})

	t.Run("No moves are accepted before the game started", func(t *testing.T) {
		// Given: a waiting room
		room := NewRoom("r1")

		// When: X tries to move
		err := room.MakeTurn(PlayerX, 0)

		// Then: the move is rejected
		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("No moves are accepted after the game finished", func(t *testing.T) {
		// Given: a game X already won
		room := NewRoom("r1")
		room.Status = StatusOngoing
		require.NoError(t, room.MakeTurn(PlayerX, 0))
		require.NoError(t, room.MakeTurn(PlayerO, 3))
		require.NoError(t, room.MakeTurn(PlayerX, 1))
		require.NoError(t, room.MakeTurn(PlayerO, 4))
		require.NoError(t, room.MakeTurn(PlayerX, 2))
		require.Equal(t, StatusFinished, room.Status)

		before := *room

		// When: O plays after the game is over
		err := room.MakeTurn(PlayerO, 5)

		// Then: the move is rejected and nothing moved
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Equal(t, before, *room)
	})

	t.Run("Winning move finishes the game and clears the turn", func(t *testing.T) {
		// Given: X one move away from the top row
		room := NewRoom("r1")
		room.Status = StatusOngoing
		room.Board = [9]string{
			PlayerX, PlayerX, EmptyCell,
			PlayerO, PlayerO, EmptyCell,
			EmptyCell, EmptyCell, EmptyCell,
		}

		// When: X completes the triple
		err := room.MakeTurn(PlayerX, 2)
		require.NoError(t, err)

		// Then: the game is finished, X won, no further turn
		assert.Equal(t, StatusFinished, room.Status)
		assert.Equal(t, PlayerX, room.Winner)
		assert.Equal(t, EmptyCell, room.Turn)
	})

	t.Run("Last cell without a winner ends in a draw", func(t *testing.T) {
		// Given: a board with one empty cell and no winning triple
		room := NewRoom("r1")
		room.Status = StatusOngoing
		room.Board = [9]string{
			PlayerX, PlayerO, PlayerX,
			PlayerO, PlayerX, PlayerO,
			PlayerO, PlayerX, EmptyCell,
		}

		// When: X fills the last cell
		err := room.MakeTurn(PlayerX, 8)
		require.NoError(t, err)

		// Then: the game is a draw
		assert.Equal(t, StatusFinished, room.Status)
		assert.Equal(t, ResultDraw, room.Winner)
		assert.Equal(t, EmptyCell, room.Turn)
	})
}

func TestRoom_AddPlayer(t *testing.T) {
	t.Run("First player gets X, second gets O, third is rejected", func(t *testing.T) {
		// Given: a fresh room
		room := NewRoom("r1")

		// When: two players take their seats
		first, err := room.AddPlayer("conn-a")
		require.NoError(t, err)
		second, err := room.AddPlayer("conn-b")
		require.NoError(t, err)

		// Then: marks are assigned in order and the room is ongoing
		assert.Equal(t, PlayerX, first.Mark)
		assert.Equal(t, PlayerO, second.Mark)
		assert.Equal(t, StatusOngoing, room.Status)

		// And: a third join never changes the list
		_, err = room.AddPlayer("conn-c")
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Len(t, room.Players, 2)
	})

	t.Run("Remaining player keeps their mark after the opponent leaves", func(t *testing.T) {
		// Given: a full room
		room := NewRoom("r1")
		_, err := room.AddPlayer("conn-a")
		require.NoError(t, err)
		_, err = room.AddPlayer("conn-b")
		require.NoError(t, err)

		// When: the X player leaves and a new player joins
		require.True(t, room.RemovePlayer("conn-a"))
		joined, err := room.AddPlayer("conn-c")
		require.NoError(t, err)

		// Then: the O seat stayed O and the newcomer took X
		assert.Equal(t, PlayerO, room.PlayerByID("conn-b").Mark)
		assert.Equal(t, PlayerX, joined.Mark)
	})

	t.Run("Seating the same connection twice is rejected", func(t *testing.T) {
		room := NewRoom("r1")
		_, err := room.AddPlayer("conn-a")
		require.NoError(t, err)

		_, err = room.AddPlayer("conn-a")
		assert.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
	})
}

func TestRoom_Restart(t *testing.T) {
	t.Run("Restart mid-game resets board, turn and outcome", func(t *testing.T) {
		// Given: a full room with a game in flight
		room := NewRoom("r1")
		_, err := room.AddPlayer("conn-a")
		require.NoError(t, err)
		_, err = room.AddPlayer("conn-b")
		require.NoError(t, err)
		require.NoError(t, room.MakeTurn(PlayerX, 4))

		// When: the game is force-reset
		room.Restart()

		// Then: nine empty cells, X to move, still ongoing, no outcome
		assert.Equal(t, [9]string{}, room.Board)
		assert.Equal(t, PlayerX, room.Turn)
		assert.Equal(t, StatusOngoing, room.Status)
		assert.Empty(t, room.Winner)

		// And: membership is untouched
		assert.Len(t, room.Players, 2)
	})

	t.Run("Restart with an open seat waits for the second player", func(t *testing.T) {
		// Given: a room with a single player
		room := NewRoom("r1")
		_, err := room.AddPlayer("conn-a")
		require.NoError(t, err)

		// When: the game is force-reset
		room.Restart()

		// Then: the room waits instead of letting one player play alone
		assert.Equal(t, StatusWaiting, room.Status)
	})
}
