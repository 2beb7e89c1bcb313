package scorer

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	deep "github.com/patrikeh/go-deep"

	"github.com/neuraltactics/tictactoe-backend/internal/entity"
)

const boardCells = 9

var ErrModelShape = errors.New("model does not match the board shape")

// Scorer produces a per-cell desirability matrix for the side holding mark.
// Scores are meaningful only at empty cells.
type Scorer interface {
	Score(board [9]string, mark string) [9]float64
}

// NetworkConfig - the architecture the pre-trained model is expected to have:
// 9 board inputs, two hidden layers, one output per cell.
func NetworkConfig() *deep.Config {
	return &deep.Config{
		Inputs:     boardCells,
		Layout:     []int{36, 18, boardCells},
		Activation: deep.ActivationReLU,
		Mode:       deep.ModeMultiClass,
		Weight:     deep.NewNormal(0.0, 0.1),
		Bias:       true,
	}
}

type NeuralScorer struct {
	network *deep.Neural
}

// LoadNeural - restores a trained network from its JSON dump.
func LoadNeural(path string) (*NeuralScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	network, err := deep.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}

	return NewNeural(network)
}

func NewNeural(network *deep.Neural) (*NeuralScorer, error) {
	layout := network.Config.Layout
	if network.Config.Inputs != boardCells || len(layout) == 0 || layout[len(layout)-1] != boardCells {
		return nil, fmt.Errorf("%w: inputs %d, layout %v", ErrModelShape, network.Config.Inputs, layout)
	}

	return &NeuralScorer{network: network}, nil
}

func (that *NeuralScorer) Score(board [9]string, mark string) [9]float64 {
	prediction := that.network.Predict(Encode(board, mark))

	var scores [9]float64
	copy(scores[:], prediction)

	return scores
}

// Encode - maps the board to network inputs from the perspective of the side
// to move: empty 0, own mark 1, opponent -1.
func Encode(board [9]string, mark string) []float64 {
	inputs := make([]float64, boardCells)
	for i, cell := range board {
		switch cell {
		case entity.EmptyCell:
			inputs[i] = 0
		case mark:
			inputs[i] = 1
		default:
			inputs[i] = -1
		}
	}

	return inputs
}

// UniformScorer - the degraded fallback used when the model cannot be loaded.
// Every cell gets an independent random score, which makes the advisor's
// scored pick behave as a uniform choice among empty cells.
type UniformScorer struct {
	rng *rand.Rand
}

func NewUniform() *UniformScorer {
	return NewUniformWithSource(rand.NewSource(time.Now().UnixNano()))
}

func NewUniformWithSource(src rand.Source) *UniformScorer {
	return &UniformScorer{
		rng: rand.New(src), //nolint: gosec // fallback scoring needs no crypto randomness
	}
}

func (that *UniformScorer) Score(_ [9]string, _ string) [9]float64 {
	var scores [9]float64
	for i := range scores {
		scores[i] = that.rng.Float64()
	}

	return scores
}
