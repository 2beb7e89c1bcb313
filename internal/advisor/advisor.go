package advisor

import (
	"errors"
	"math/rand"
	"time"

	"github.com/neuraltactics/tictactoe-backend/internal/entity"
	"github.com/neuraltactics/tictactoe-backend/internal/tictactoe"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// tier holds the per-difficulty probabilities: taking an immediate win,
// blocking the opponent's immediate win, and picking the best-scored cell
// instead of a random one.
type tier struct {
	win   float64
	block float64
	best  float64
}

var tiers = map[string]tier{
	entity.DifficultyEasy:   {win: 0.70, block: 0, best: 0.70},
	entity.DifficultyMedium: {win: 1.0, block: 0.85, best: 0.85},
	entity.DifficultyHard:   {win: 1.0, block: 1.0, best: 1.0},
}

type Advisor struct {
	rng *rand.Rand
}

func New() *Advisor {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource - builds an advisor with a fixed random source, so tests can
// pin the probabilistic tiers.
func NewWithSource(src rand.Source) *Advisor {
	return &Advisor{
		rng: rand.New(src), //nolint: gosec // move selection needs no crypto randomness
	}
}

// SelectCell - picks the bot's next cell. The policy is evaluated in order,
// first match wins: take an immediate win, block the opponent's immediate
// win, then pick by score. Unknown difficulties play as hard.
func (that *Advisor) SelectCell(board [9]string, mark string, scores [9]float64, difficulty string) (int, error) {
	levels, ok := tiers[difficulty]
	if !ok {
		levels = tiers[entity.DifficultyHard]
	}

	if that.rng.Float64() < levels.win {
		if cell, ok := findOpenLineCell(board, mark); ok {
			return cell, nil
		}
	}

	if that.rng.Float64() < levels.block {
		if cell, ok := findOpenLineCell(board, opponentOf(mark)); ok {
			return cell, nil
		}
	}

	return that.pickByScore(board, scores, levels.best)
}

// pickByScore - takes the highest-scored empty cell with probability best,
// otherwise a uniformly random empty cell. Score ties break toward the first
// cell in row-major order.
func (that *Advisor) pickByScore(board [9]string, scores [9]float64, best float64) (int, error) {
	availableCells := tictactoe.EmptyCells(board)
	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	if that.rng.Float64() >= best {
		return availableCells[that.rng.Intn(len(availableCells))], nil
	}

	bestCell := availableCells[0]
	for _, cell := range availableCells[1:] {
		if scores[cell] > scores[bestCell] {
			bestCell = cell
		}
	}

	return bestCell, nil
}

// findOpenLineCell - scans the 8 lines for one holding two of the given mark
// and a single empty cell, and returns that cell. Lines are scanned rows
// first, then columns, then diagonals; the first qualifying line wins.
func findOpenLineCell(board [9]string, mark string) (int, bool) {
	for _, line := range tictactoe.Lines {
		marked, empty := 0, -1
		for _, cell := range line {
			switch board[cell] {
			case mark:
				marked++
			case entity.EmptyCell:
				empty = cell
			}
		}

		if marked == 2 && empty != -1 {
			return empty, true
		}
	}

	return 0, false
}

func opponentOf(mark string) string {
	if mark == entity.PlayerX {
		return entity.PlayerO
	}
	return entity.PlayerX
}
