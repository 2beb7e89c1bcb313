package websocket

import (
	"encoding/json"

	"github.com/neuraltactics/tictactoe-backend/internal/entity"
)

const (
	ActionConnect    = "connect"
	ActionNewGame    = "game:new"
	ActionTurn       = "game:turn"
	ActionReset      = "game:reset"
	ActionDifficulty = "game:difficulty"
	ActionUpdate     = "game:update"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	Player     *entity.Player `json:"player,omitempty"`
	Cell       *int           `json:"cell,omitempty"`
	Difficulty string         `json:"difficulty,omitempty"`
}

type ResponsePayload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *GameResponse  `json:"game,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type GameResponse struct {
	ID         string      `json:"id"`
	Board      [9]string   `json:"board"`
	Turn       string      `json:"turn"`
	Winner     string      `json:"winner"`
	Status     string      `json:"status"`
	Difficulty string      `json:"difficulty"`
	Scores     *[9]float64 `json:"scores,omitempty"`
}

func NewGameResponse(game *entity.Game) *GameResponse {
	return &GameResponse{
		ID:         game.ID,
		Board:      game.Board,
		Turn:       game.Turn,
		Winner:     game.Winner,
		Status:     game.Status,
		Difficulty: game.Difficulty,
		Scores:     game.Scores,
	}
}

// frame represents a WebSocket frame and its metadata.
type frame struct {
	isFin   bool
	opCode  byte
	length  uint64
	payload []byte
}
