package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neuraltactics/tictactoe-backend/internal/apperror"
	"github.com/neuraltactics/tictactoe-backend/internal/tictactoe"
)

var errMissingPlayer = errors.New("payload has no player")

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	var payload RequestPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal player info: %w", err)
	}

	var playerID string
	if payload.Player != nil {
		playerID = payload.Player.ID
	}

	player, err := that.game.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get or create player: %w", err)
	}

	that.registerSession(player.ID, conn)

	if playerID == "" {
		that.logger.Info("registered new player", "playerID", player.ID)
	} else {
		that.logger.Info("player connected", "playerID", player.ID)
	}

	return conn.sendMessage(msg.Action, ResponsePayload{Player: player})
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	payload, err := requirePlayer(msg)
	if err != nil {
		return err
	}

	game, err := that.game.StartGame(ctx, payload.Player.ID, payload.Difficulty)
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	return conn.sendMessage(msg.Action, ResponsePayload{Player: payload.Player, Game: NewGameResponse(game)})
}

// handleTurn - applies the human's move. Illegal attempts (occupied cell,
// out of turn, finished game) are not surfaced as errors: the current state
// is echoed back and the click is effectively ignored.
func (that *Server) handleTurn(ctx context.Context, msg *Message, conn *connection) error {
	payload, err := requirePlayer(msg)
	if err != nil {
		return err
	}

	if payload.Cell == nil {
		return conn.sendMessage(msg.Action, ResponsePayload{Error: "cell is required"})
	}

	game, err := that.game.MakeTurn(ctx, payload.Player.ID, *payload.Cell)
	if err != nil {
		if game != nil && isIgnorableMove(err) {
			that.logger.Debug("ignored illegal move", "playerID", payload.Player.ID, "cell", *payload.Cell, "error", err)
			return conn.sendMessage(msg.Action, ResponsePayload{Player: payload.Player, Game: NewGameResponse(game)})
		}

		return fmt.Errorf("failed to make turn: %w", err)
	}

	return conn.sendMessage(msg.Action, ResponsePayload{Player: payload.Player, Game: NewGameResponse(game)})
}

func (that *Server) handleReset(ctx context.Context, msg *Message, conn *connection) error {
	payload, err := requirePlayer(msg)
	if err != nil {
		return err
	}

	game, err := that.game.RestartGame(ctx, payload.Player.ID, payload.Difficulty)
	if err != nil {
		return fmt.Errorf("failed to restart game: %w", err)
	}

	return conn.sendMessage(msg.Action, ResponsePayload{Player: payload.Player, Game: NewGameResponse(game)})
}

// handleDifficulty - a difficulty change starts a fresh round, matching the
// reset lifecycle: the board is wiped and the generation bumped.
func (that *Server) handleDifficulty(ctx context.Context, msg *Message, conn *connection) error {
	return that.handleReset(ctx, msg, conn)
}

func requirePlayer(msg *Message) (*RequestPayload, error) {
	var payload RequestPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.Player == nil || payload.Player.ID == "" {
		return nil, errMissingPlayer
	}

	return &payload, nil
}

// isIgnorableMove - the failure taxonomy treats illegal move attempts as
// silent no-ops rather than user-visible errors.
func isIgnorableMove(err error) bool {
	return errors.Is(err, tictactoe.ErrCellOccupied) ||
		errors.Is(err, tictactoe.ErrInvalidCell) ||
		errors.Is(err, apperror.ErrNotYourTurn) ||
		errors.Is(err, apperror.ErrGameFinished) ||
		errors.Is(err, apperror.ErrGameIsNotStarted)
}
