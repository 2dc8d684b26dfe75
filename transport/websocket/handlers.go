package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/barkwolwol/tictactoe-server/internal/entity"
)

func (that *Server) handleSetNickname(ctx context.Context, client *Client, msg *Message) error {
	var payload NicknamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	names, err := that.manager.SetNickname(ctx, client.id, payload.Nickname)
	if err != nil {
		return fmt.Errorf("failed to set nickname: %w", err)
	}

	that.hub.Broadcast(ActionUserList, names)

	return nil
}

func (that *Server) handleCreateRoom(ctx context.Context, client *Client, msg *Message) error {
	var payload RoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	result, err := that.manager.CreateRoom(ctx, client.id, payload.RoomID)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	that.hub.JoinGroup(result.Room.ID, client)
	that.hub.SendTo(client.id, ActionPlayerSymbol, result.Player.Mark)
	that.hub.SendTo(client.id, ActionBoardUpdate, snapshot(result.Room))

	that.broadcastRoomList(ctx)

	return nil
}

func (that *Server) handleGetRoomList(ctx context.Context, client *Client, _ *Message) error {
	ids, err := that.manager.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	that.hub.SendTo(client.id, ActionRoomList, ids)

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, client *Client, msg *Message) error {
	var payload RoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	result, err := that.manager.JoinRoom(ctx, client.id, payload.RoomID)
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.hub.JoinGroup(result.Room.ID, client)

	if result.Spectator {
		that.hub.SendTo(client.id, ActionPlayerSymbol, SpectatorSymbol)
		that.hub.SendTo(client.id, ActionBoardUpdate, snapshot(result.Room))

		return nil
	}

	that.hub.SendTo(client.id, ActionPlayerSymbol, result.Player.Mark)

	if result.Started {
		that.hub.SendToRoom(result.Room.ID, ActionStartGame, result.Room.ID)
		that.hub.SendToRoom(result.Room.ID, ActionBoardUpdate, snapshot(result.Room))

		return nil
	}

	that.hub.SendTo(client.id, ActionBoardUpdate, snapshot(result.Room))

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, client *Client, msg *Message) error {
	var payload MovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	room, err := that.manager.MakeMove(ctx, client.id, payload.RoomID, payload.Cell)
	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	that.hub.SendToRoom(room.ID, ActionBoardUpdate, snapshot(room))

	if room.IsFinished() {
		that.hub.SendToRoom(room.ID, ActionGameOver, room.Winner)
	}

	return nil
}

func (that *Server) handleRestartGame(ctx context.Context, client *Client, msg *Message) error {
	var payload RoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	room, err := that.manager.Restart(ctx, payload.RoomID)
	if err != nil {
		return fmt.Errorf("failed to restart game: %w", err)
	}

	that.hub.SendToRoom(room.ID, ActionBoardUpdate, snapshot(room))
	// a null outcome clears any game-over banner on the clients
	that.hub.SendToRoom(room.ID, ActionGameOver, nil)

	return nil
}

func (that *Server) handleLobbyMessage(ctx context.Context, client *Client, msg *Message) error {
	var payload ChatPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	that.hub.Broadcast(ActionChatMessage, ChatMessage{
		From: that.senderName(ctx, client.id),
		Text: payload.Text,
	})

	return nil
}

func (that *Server) handleGameMessage(ctx context.Context, client *Client, msg *Message) error {
	var payload ChatPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	that.hub.SendToRoom(payload.RoomID, ActionChatMessage, ChatMessage{
		From:   that.senderName(ctx, client.id),
		Text:   payload.Text,
		RoomID: payload.RoomID,
	})

	return nil
}

// senderName resolves the sender's nickname, falling back to the
// connection id for connections that never declared one.
func (that *Server) senderName(ctx context.Context, connID string) string {
	user, err := that.manager.GetUser(ctx, connID)
	if err != nil || user.Name == "" {
		return connID
	}

	return user.Name
}

// snapshot converts a room into the wire-level board update. The turn
// is null once the game stopped accepting moves.
func snapshot(room *entity.Room) BoardUpdate {
	update := BoardUpdate{Board: room.Board}

	if room.Turn != entity.EmptyCell {
		turn := room.Turn
		update.CurrentTurn = &turn
	}

	return update
}
