package generator

import (
	"math/rand/v2"

	"markov-go/internal/model/markov"
)

// Source is the uniform random source consumed by the sampler.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// IntN returns a uniform value in [0, n). n is always > 0.
	IntN(n int) int
}

// NewSource returns a deterministic source for the given seed
func NewSource(seed int64) Source {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)) //nolint:gosec // Deterministic seed for reproducibility
}

// RandomSource returns a randomly seeded source
func RandomSource() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Not security sensitive
}

// Sampler picks next tokens from a transition table
type Sampler struct {
	source Source
	greedy bool
}

// NewSampler creates a sampler that draws followers with probability proportional
// to their counts
func NewSampler(source Source) *Sampler {
	if source == nil {
		source = RandomSource()
	}
	return &Sampler{source: source}
}

// NewGreedySampler creates a sampler that always picks the highest-count follower.
// The source is only used for the vocabulary fallback.
func NewGreedySampler(source Source) *Sampler {
	s := NewSampler(source)
	s.greedy = true
	return s
}

// Sample returns the next token text for ctx.
//
// When ctx is in the table the follower is drawn from its distribution. Otherwise
// the draw is uniform over the table's vocabulary and fallback is true. An empty
// vocabulary returns ErrNoVocabulary.
func (s *Sampler) Sample(table *TransitionTable, ctx markov.Context) (text string, fallback bool, err error) {
	if dist, ok := table.Lookup(ctx); ok {
		if s.greedy {
			return dist.top(), false, nil
		}
		return dist.pick(s.source.IntN(dist.Total())), false, nil
	}

	if len(table.vocabulary) == 0 {
		return "", true, ErrNoVocabulary
	}
	return table.vocabulary[s.source.IntN(len(table.vocabulary))], true, nil
}
