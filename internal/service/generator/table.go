package generator

import (
	"fmt"

	"markov-go/internal/model/markov"

	"github.com/bits-and-blooms/bloom/v3"
)

// Distribution is the multiset of tokens observed after one context
type Distribution struct {
	followers []string       // Follower texts in first-observation order
	counts    map[string]int // Follower text -> occurrence count
	total     int            // Sum of all counts
}

func newDistribution() *Distribution {
	return &Distribution{counts: make(map[string]int)}
}

func (d *Distribution) add(text string) {
	if _, exists := d.counts[text]; !exists {
		d.followers = append(d.followers, text)
	}
	d.counts[text]++
	d.total++
}

// Total returns the number of observations behind the distribution
func (d *Distribution) Total() int {
	return d.total
}

// Count returns how often text followed the context
func (d *Distribution) Count(text string) int {
	return d.counts[text]
}

// Len returns the number of distinct followers
func (d *Distribution) Len() int {
	return len(d.followers)
}

// Followers returns the distinct followers in first-observation order
func (d *Distribution) Followers() []string {
	out := make([]string, len(d.followers))
	copy(out, d.followers)
	return out
}

// Counts returns a copy of the follower counts
func (d *Distribution) Counts() map[string]int {
	out := make(map[string]int, len(d.counts))
	for text, count := range d.counts {
		out[text] = count
	}
	return out
}

// pick maps r in [0, total) onto a follower, each follower owning a span of
// r values equal to its count.
func (d *Distribution) pick(r int) string {
	for _, text := range d.followers {
		r -= d.counts[text]
		if r < 0 {
			return text
		}
	}
	return d.followers[len(d.followers)-1]
}

// top returns the highest-count follower; ties go to the earliest observed
func (d *Distribution) top() string {
	best, bestCount := "", -1
	for _, text := range d.followers {
		if d.counts[text] > bestCount {
			best, bestCount = text, d.counts[text]
		}
	}
	return best
}

// separatorStats tracks the trailing separators seen for one token text
type separatorStats struct {
	counts    map[string]int
	best      string
	bestCount int
}

func (s *separatorStats) add(sep string) {
	s.counts[sep]++
	if s.counts[sep] > s.bestCount {
		s.best, s.bestCount = sep, s.counts[sep]
	}
}

// TransitionTable maps each order-k context to the distribution of tokens that
// followed it. It is built by a single pass in BuildTable and is read-only afterwards.
type TransitionTable struct {
	order       int
	contexts    map[string]*Distribution   // Context key -> distribution
	vocabulary  []string                   // Distinct texts in first-observation order
	separators  map[string]*separatorStats // Text -> separator stats
	transitions int                        // Total transitions counted
	tokenCount  int                        // Tokens consumed by the build
	singletons  int                        // Contexts observed once, estimated by bloom filters
}

// BuildTable counts, for every index i with at least order preceding tokens, the
// follower tokens[i] of the context tokens[i-order:i]. Sequences shorter than
// order+1 tokens produce an empty table.
func BuildTable(tokens []markov.Token, order int) (*TransitionTable, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}

	table := &TransitionTable{
		order:      order,
		contexts:   make(map[string]*Distribution),
		separators: make(map[string]*separatorStats),
		tokenCount: len(tokens),
	}

	if len(tokens) <= order {
		return table, nil
	}

	seen := make(map[string]struct{})
	texts := make([]string, len(tokens))
	for i, token := range tokens {
		texts[i] = token.Text
		if _, exists := seen[token.Text]; !exists {
			seen[token.Text] = struct{}{}
			table.vocabulary = append(table.vocabulary, token.Text)
		}

		stats, exists := table.separators[token.Text]
		if !exists {
			stats = &separatorStats{counts: make(map[string]int), bestCount: -1}
			table.separators[token.Text] = stats
		}
		stats.add(token.Sep)
	}

	// A context enters seenOnce on first sight and seenTwice on the second. The
	// singleton count rises on the first and falls on the second.
	estimate := uint(len(texts) - order)
	seenOnce := bloom.NewWithEstimates(estimate, 0.001)
	seenTwice := bloom.NewWithEstimates(estimate, 0.001)

	for i := order; i < len(texts); i++ {
		key := markov.Context(texts[i-order : i]).Key()
		dist, exists := table.contexts[key]
		if !exists {
			dist = newDistribution()
			table.contexts[key] = dist
		}
		dist.add(texts[i])
		table.transitions++

		if !seenOnce.TestAndAddString(key) {
			table.singletons++
		} else if !seenTwice.TestAndAddString(key) {
			table.singletons--
		}
	}

	return table, nil
}

// Order returns the context length k
func (t *TransitionTable) Order() int {
	return t.order
}

// Len returns the number of distinct contexts
func (t *TransitionTable) Len() int {
	return len(t.contexts)
}

// Empty reports whether the table holds no transitions
func (t *TransitionTable) Empty() bool {
	return len(t.contexts) == 0
}

// Lookup returns the follower distribution of ctx
func (t *TransitionTable) Lookup(ctx markov.Context) (*Distribution, bool) {
	if len(ctx) != t.order {
		return nil, false
	}
	dist, ok := t.contexts[ctx.Key()]
	return dist, ok
}

// Vocabulary returns every distinct token text in the table in first-observation order
func (t *TransitionTable) Vocabulary() []string {
	out := make([]string, len(t.vocabulary))
	copy(out, t.vocabulary)
	return out
}

// Separator returns the separator most often seen after text. Ties go to the
// separator that reached the count first. Unknown texts get " ".
func (t *TransitionTable) Separator(text string) string {
	stats, ok := t.separators[text]
	if !ok {
		return " "
	}
	return stats.best
}

// Stats returns summary statistics of the table
func (t *TransitionTable) Stats() TableStats {
	return TableStats{
		Order:             t.order,
		Tokens:            t.tokenCount,
		Contexts:          len(t.contexts),
		VocabularySize:    len(t.vocabulary),
		Transitions:       t.transitions,
		SingletonContexts: t.singletons,
	}
}

// TableStats contains summary statistics of a transition table
type TableStats struct {
	Order             int `json:"order"`
	Tokens            int `json:"tokens"`
	Contexts          int `json:"contexts"`
	VocabularySize    int `json:"vocabulary_size"`
	Transitions       int `json:"transitions"`
	SingletonContexts int `json:"singleton_contexts"` // Approximate, from bloom filters
}
