package engine

import (
	"math/rand/v2"
	"sync"

	"github.com/artpar/wildgate/domain/game"
)

// Evaluator computes cubeless probabilities for a valid position.
type Evaluator interface {
	Name() string
	Eval(pos game.Position) game.Probabilities
}

// Random returns uniformly random probabilities normalized to sum to 1.
// Finished games still get their certain result.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a random evaluator. A zero seed picks one at random.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Name returns "random".
func (*Random) Name() string {
	return "random"
}

// Eval returns random probabilities for pos.
func (r *Random) Eval(pos game.Position) game.Probabilities {
	if result, done := pos.Result(); done {
		return game.Certain(result)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return game.Normalized(
		r.rng.Float32(), r.rng.Float32(), r.rng.Float32(),
		r.rng.Float32(), r.rng.Float32(), r.rng.Float32(),
	)
}

// Fixed returns the same probabilities for every running game (for testing).
type Fixed struct {
	P game.Probabilities
}

// Name returns "fixed".
func (Fixed) Name() string {
	return "fixed"
}

// Eval returns f.P unless the game is over.
func (f Fixed) Eval(pos game.Position) game.Probabilities {
	if result, done := pos.Result(); done {
		return game.Certain(result)
	}
	return f.P
}
