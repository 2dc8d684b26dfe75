package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/barkwolwol/tictactoe-server/internal/entity"
	"github.com/barkwolwol/tictactoe-server/internal/usecase"
)

type roomManager interface {
	SetNickname(ctx context.Context, connID, nickname string) ([]string, error)
	CreateRoom(ctx context.Context, connID, roomID string) (*usecase.JoinResult, error)
	JoinRoom(ctx context.Context, connID, roomID string) (*usecase.JoinResult, error)
	MakeMove(ctx context.Context, connID, roomID string, cell int) (*entity.Room, error)
	Restart(ctx context.Context, roomID string) (*entity.Room, error)
	Disconnect(ctx context.Context, connID string) (*usecase.DisconnectResult, error)
	ListRooms(ctx context.Context) ([]string, error)
	ListUsers(ctx context.Context) ([]string, error)
	GetUser(ctx context.Context, connID string) (*entity.User, error)
}

type Server struct {
	logger  *slog.Logger
	manager roomManager
	hub     *Hub

	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context, client *Client, message *Message) error
}

func New(logger *slog.Logger, manager roomManager) *Server {
	server := &Server{
		logger:  logger.With("component", "ws-server"),
		manager: manager,
		hub:     NewHub(logger),

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		handlers: make(map[string]func(context.Context, *Client, *Message) error),
	}

	server.handlers[ActionSetNickname] = server.handleSetNickname
	server.handlers[ActionCreateRoom] = server.handleCreateRoom
	server.handlers[ActionGetRoomList] = server.handleGetRoomList
	server.handlers[ActionJoinRoom] = server.handleJoinRoom
	server.handlers[ActionMakeMove] = server.handleMakeMove
	server.handlers[ActionRestartGame] = server.handleRestartGame
	server.handlers[ActionLobbyMessage] = server.handleLobbyMessage
	server.handlers[ActionGameMessage] = server.handleGameMessage

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection upgrades the request and runs the read loop until
// the connection drops.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	// the connection identity lives exactly as long as the socket
	client := newClient(uuid.NewString(), conn)

	that.hub.Register(client)
	go client.writePump()

	log.Info("connection established", "connID", client.id)

	that.readLoop(ctx, client)
}

func (that *Server) readLoop(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readLoop", "connID", client.id)

	defer func() {
		client.conn.Close()
		that.dropConnection(ctx, client)
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, client, &message); err != nil {
			// rejected requests are dropped without a reply, the log
			// line is the only trace
			log.Info("request discarded", "action", message.Action, "error", err)
		}
	}
}

// dropConnection reconciles all state owned by a vanished connection
// and republishes the roster and the room directory. The socket itself
// is already closed by the read loop.
func (that *Server) dropConnection(ctx context.Context, client *Client) {
	log := that.logger.With("method", "dropConnection", "connID", client.id)

	that.hub.Unregister(client)

	result, err := that.manager.Disconnect(ctx, client.id)
	if err != nil {
		log.Error("failed to reconcile disconnect", "error", err)
		return
	}

	if result.RoomID != "" {
		if result.Destroyed {
			that.hub.DropGroup(result.RoomID)
		} else {
			that.hub.SendToRoom(result.RoomID, ActionOpponentLeft, result.RoomID)
		}
	}

	that.broadcastUserList(ctx)
	that.broadcastRoomList(ctx)

	log.Info("connection dropped")
}

func (that *Server) broadcastUserList(ctx context.Context) {
	names, err := that.manager.ListUsers(ctx)
	if err != nil {
		that.logger.Error("failed to list users", "error", err)
		return
	}

	that.hub.Broadcast(ActionUserList, names)
}

func (that *Server) broadcastRoomList(ctx context.Context) {
	ids, err := that.manager.ListRooms(ctx)
	if err != nil {
		that.logger.Error("failed to list rooms", "error", err)
		return
	}

	that.hub.Broadcast(ActionRoomList, ids)
}
