package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/barkwolwol/tictactoe-server/internal/apperror"
	"github.com/barkwolwol/tictactoe-server/internal/entity"
)

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}

type userRepo interface {
	CreateOrUpdate(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	DeleteByID(ctx context.Context, id string) error
	ListNames(ctx context.Context) ([]string, error)
}

// JoinResult describes what happened to a join request: either a seat
// was taken (Player set, Started when the seat was the second one) or
// the room was already full and the caller becomes a spectator.
type JoinResult struct {
	Room      *entity.Room
	Player    *entity.Player
	Spectator bool
	Started   bool
}

// DisconnectResult describes the reconciliation applied after a
// connection dropped.
type DisconnectResult struct {
	RoomID    string
	Destroyed bool
	Remaining []*entity.Player
}

// RoomManager owns the room directory and the user registry. A single
// mutex serializes every operation, so each inbound event is handled
// to completion before the next one, exactly like a single-threaded
// event loop. Cross-room operations never need to be atomic with each
// other, the coarse lock is purely for simplicity.
type RoomManager struct {
	logger *slog.Logger

	mu       sync.Mutex
	roomRepo roomRepo
	userRepo userRepo
}

func NewRoomManager(logger *slog.Logger, roomRepo roomRepo, userRepo userRepo) *RoomManager {
	return &RoomManager{
		logger: logger.With("component", "room-manager"),

		roomRepo: roomRepo,
		userRepo: userRepo,
	}
}

// SetNickname upserts the user entry for connID and returns the fresh
// roster. Nicknames are free-form: not unique, not validated.
func (that *RoomManager) SetNickname(ctx context.Context, connID, nickname string) ([]string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user := &entity.User{ID: connID, Name: nickname}

	existing, err := that.userRepo.GetByID(ctx, connID)
	if err == nil {
		user.RoomID = existing.RoomID
	} else if !errors.Is(err, apperror.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err = that.userRepo.CreateOrUpdate(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	names, err := that.userRepo.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return names, nil
}

// CreateRoom creates an empty room under the chosen id and seats the
// creator as its first player (mark X). Creating over an existing id
// is rejected.
func (that *RoomManager) CreateRoom(ctx context.Context, connID, roomID string) (*JoinResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, err := that.roomRepo.GetByID(ctx, roomID); err == nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomAlreadyExists, roomID)
	} else if !errors.Is(err, apperror.ErrRoomNotFound) {
		return nil, fmt.Errorf("failed to check room: %w", err)
	}

	room := entity.NewRoom(roomID)

	player, err := room.AddPlayer(connID)
	if err != nil {
		return nil, fmt.Errorf("failed to seat creator: %w", err)
	}

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	if err = that.bindUserToRoom(ctx, connID, roomID); err != nil {
		return nil, err
	}

	that.logger.Info("room created", "roomID", roomID, "playerID", connID)

	return &JoinResult{Room: room, Player: player}, nil
}

// JoinRoom seats connID in the room, or degrades the caller to a
// spectator when both seats are taken. Joining a missing room is
// rejected.
func (that *RoomManager) JoinRoom(ctx context.Context, connID, roomID string) (*JoinResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if room.IsFull() {
		// Spectators watch without a seat: no membership entry, no
		// state change.
		return &JoinResult{Room: room, Spectator: true}, nil
	}

	player, err := room.AddPlayer(connID)
	if err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	if err = that.bindUserToRoom(ctx, connID, roomID); err != nil {
		return nil, err
	}

	that.logger.Info("player joined room", "roomID", roomID, "playerID", connID)

	return &JoinResult{Room: room, Player: player, Started: room.IsFull()}, nil
}

// MakeMove applies one move for the player behind connID. Every
// precondition failure surfaces as a sentinel error and leaves the
// room untouched.
func (that *RoomManager) MakeMove(ctx context.Context, connID, roomID string, cell int) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	player := room.PlayerByID(connID)
	if player == nil {
		return nil, fmt.Errorf("%w: connection %s has no seat in room %s", apperror.ErrNotYourTurn, connID, roomID)
	}

	if err = room.MakeTurn(player.Mark, cell); err != nil {
		return nil, fmt.Errorf("move rejected: %w", err)
	}

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	return room, nil
}

// Restart force-resets the room's board and turn state. Legal at any
// point, including mid-game.
func (that *RoomManager) Restart(ctx context.Context, roomID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	room.Restart()

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	that.logger.Info("room restarted", "roomID", roomID)

	return room, nil
}

// Disconnect reconciles state after connID's connection closed: the
// user entry goes away, the seat (if any) is vacated, and a room left
// with no players is destroyed. The remaining player keeps their mark.
func (that *RoomManager) Disconnect(ctx context.Context, connID string) (*DisconnectResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "Disconnect")

	result := &DisconnectResult{}

	user, err := that.userRepo.GetByID(ctx, connID)
	if err != nil && !errors.Is(err, apperror.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user != nil {
		if err = that.userRepo.DeleteByID(ctx, connID); err != nil {
			return nil, fmt.Errorf("failed to delete user: %w", err)
		}

		if user.RoomID != "" {
			if err = that.vacateSeat(ctx, user.RoomID, connID, result); err != nil {
				return nil, err
			}
		}
	}

	log.Info("connection reconciled", "connID", connID, "roomID", result.RoomID, "destroyed", result.Destroyed)

	return result, nil
}

func (that *RoomManager) vacateSeat(ctx context.Context, roomID, connID string, result *DisconnectResult) error {
	room, err := that.roomRepo.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	if !room.RemovePlayer(connID) {
		return nil
	}

	result.RoomID = roomID
	result.Remaining = room.Players

	if room.IsEmpty() {
		if err = that.roomRepo.DeleteByID(ctx, roomID); err != nil {
			return fmt.Errorf("failed to delete room: %w", err)
		}

		result.Destroyed = true

		return nil
	}

	if err = that.roomRepo.CreateOrUpdate(ctx, room); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	return nil
}

// ListRooms returns the current room directory.
func (that *RoomManager) ListRooms(ctx context.Context) ([]string, error) {
	ids, err := that.roomRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return ids, nil
}

// ListUsers returns the current roster of nicknames.
func (that *RoomManager) ListUsers(ctx context.Context) ([]string, error) {
	names, err := that.userRepo.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return names, nil
}

// GetUser resolves a connection id to its user entry.
func (that *RoomManager) GetUser(ctx context.Context, connID string) (*entity.User, error) {
	user, err := that.userRepo.GetByID(ctx, connID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (that *RoomManager) bindUserToRoom(ctx context.Context, connID, roomID string) error {
	user, err := that.userRepo.GetByID(ctx, connID)
	if errors.Is(err, apperror.ErrUserNotFound) {
		// Joining without a nickname is allowed, the roster just never
		// lists this connection.
		user = &entity.User{ID: connID}
	} else if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	user.RoomID = roomID

	if err = that.userRepo.CreateOrUpdate(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}
