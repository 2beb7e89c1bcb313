package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/neuraltactics/tictactoe-backend/internal/entity"
	"github.com/neuraltactics/tictactoe-backend/internal/usecase"
)

type Server struct {
	logger   *slog.Logger
	game     usecase.GameUseCase
	handlers map[string]func(ctx context.Context, message *Message, conn *connection) error

	mu       sync.Mutex
	sessions map[string]*connection
}

func New(logger *slog.Logger, game usecase.GameUseCase) *Server {
	server := &Server{
		logger:   logger,
		game:     game,
		handlers: make(map[string]func(context.Context, *Message, *connection) error),
		sessions: make(map[string]*connection),
	}

	server.handlers[ActionConnect] = server.handleConnect
	server.handlers[ActionNewGame] = server.handleNewGame
	server.handlers[ActionTurn] = server.handleTurn
	server.handlers[ActionReset] = server.handleReset
	server.handlers[ActionDifficulty] = server.handleDifficulty

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// GameUpdated - pushes a server-initiated game update to the player's live
// connection, if any. This is how the bot's deferred move reaches the
// rendering side.
func (that *Server) GameUpdated(playerID string, game *entity.Game) {
	that.mu.Lock()
	conn, ok := that.sessions[playerID]
	that.mu.Unlock()

	if !ok {
		that.logger.Debug("no live connection for player, dropping update", "playerID", playerID)
		return
	}

	if err := conn.sendMessage(ActionUpdate, ResponsePayload{Game: NewGameResponse(game)}); err != nil {
		that.logger.Error("failed to push game update", "playerID", playerID, "error", err)
	}
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking", "error", http.StatusText(http.StatusInternalServerError))
		return
	}

	rawConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	conn := newConnection(rawConn, bufrw)
	defer that.closeConnection(conn)

	log.Info("WebSocket connection established")

	if err := that.handleMessages(ctx, conn); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		reqBody, err := conn.readRequest()
		if err != nil {
			return fmt.Errorf("error reading message: %w", err)
		}

		var message Message
		if err := json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err := handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// registerSession - binds a player ID to the live connection for pushes.
func (that *Server) registerSession(playerID string, conn *connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	conn.playerID = playerID
	that.sessions[playerID] = conn
}

func (that *Server) closeConnection(conn *connection) {
	that.mu.Lock()
	if conn.playerID != "" && that.sessions[conn.playerID] == conn {
		delete(that.sessions, conn.playerID)
	}
	that.mu.Unlock()

	conn.close()
}
