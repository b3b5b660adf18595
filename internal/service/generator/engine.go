package generator

import (
	"context"
	"fmt"
	"iter"

	"markov-go/internal/model/markov"

	"go.uber.org/zap"
)

const (
	DefaultOrder     = 2
	DefaultMaxTokens = 220
)

// Options configures one generation
type Options struct {
	Order     int `json:"order" yaml:"order"`           // Context length k
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"` // Upper bound on emitted tokens
}

// DefaultOptions returns order 2 and 220 tokens
func DefaultOptions() Options {
	return Options{
		Order:     DefaultOrder,
		MaxTokens: DefaultMaxTokens,
	}
}

// Validate checks the options
func (o Options) Validate() error {
	if o.Order < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidOrder, o.Order)
	}
	if o.MaxTokens < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxTokens, o.MaxTokens)
	}
	return nil
}

// State is the lifecycle state of a generation
type State int

const (
	StateSeeding State = iota
	StateEmitting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// StopReason explains why a generation reached StateDone
type StopReason string

const (
	ReasonMaxTokens    StopReason = "max-tokens"
	ReasonNoVocabulary StopReason = "no-vocabulary"
	ReasonCancelled    StopReason = "cancelled"
	ReasonEmptyModel   StopReason = "empty-model"
	ReasonFailed       StopReason = "failed" // Never started: invalid options or a build error
)

// Result is the terminal summary of a generation
type Result struct {
	Emitted int        `json:"emitted"`
	Reason  StopReason `json:"reason"`
	Err     error      `json:"-"` // Set for ErrEmptyModel, ErrNoVocabulary and startup failures
}

// Generation owns the transition table and the running state of one request.
// It is driven by a single goroutine and is not safe for concurrent use.
type Generation struct {
	opts    Options
	sampler *Sampler
	logger  *zap.Logger

	table   *TransitionTable
	stats   TableStats
	state   State
	context markov.Context
	emitted int
	reason  StopReason
	err     error
}

// CombineCorpus joins the seed corpus and the rendered conversation into the
// text the table is built from
func CombineCorpus(seedCorpus string, conversation []markov.Message) string {
	rendered := markov.RenderConversation(conversation)
	switch {
	case rendered == "":
		return seedCorpus
	case seedCorpus == "":
		return rendered
	default:
		return seedCorpus + "\n" + rendered
	}
}

// NewGeneration seeds a generation: it tokenizes the seed corpus followed by the
// conversation, builds the transition table and takes the final Order tokens as the
// starting context. Only invalid options return an error; a corpus that cannot
// seed a context leaves the generation Done.
func NewGeneration(seedCorpus string, conversation []markov.Message, opts Options, sampler *Sampler, logger *zap.Logger) (*Generation, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Generation{
		opts:    opts,
		sampler: sampler,
		logger:  logger,
		state:   StateSeeding,
	}

	tokens := TokenizeAll(CombineCorpus(seedCorpus, conversation))
	if len(tokens) == 0 {
		g.finish(ReasonEmptyModel, ErrEmptyModel)
		return g, nil
	}

	table, err := BuildTable(tokens, opts.Order)
	if err != nil {
		return nil, fmt.Errorf("failed to build transition table: %w", err)
	}
	g.stats = table.Stats()

	if table.Empty() {
		// Too short to hold a single transition: an empty completion, not a failure
		g.logger.Debug("Corpus shorter than order+1 tokens",
			zap.Int("tokens", len(tokens)),
			zap.Int("order", opts.Order),
		)
		g.finish(ReasonEmptyModel, nil)
		return g, nil
	}

	g.table = table
	g.context = markov.Tail(tokens.Texts(), opts.Order)
	g.state = StateEmitting

	g.logger.Debug("Generation seeded",
		zap.Int("tokens", g.stats.Tokens),
		zap.Int("contexts", g.stats.Contexts),
		zap.Int("vocabulary", g.stats.VocabularySize),
		zap.String("seed_context", g.context.String()),
	)

	return g, nil
}

// Tokens returns the lazily produced tokens. Each token is computed only when the
// consumer asks for the next one. Cancellation of ctx is checked before every
// sample; a consumer that stops iterating also ends the generation. Reaching
// MaxTokens takes precedence over a cancellation that arrives with the last token.
//
// The sequence may be consumed once. Ranging over it again yields nothing.
func (g *Generation) Tokens(ctx context.Context) iter.Seq[markov.Token] {
	return func(yield func(markov.Token) bool) {
		if g.state != StateEmitting {
			return
		}

		for {
			if g.emitted >= g.opts.MaxTokens {
				g.finish(ReasonMaxTokens, nil)
				return
			}
			if ctx.Err() != nil {
				g.finish(ReasonCancelled, nil)
				return
			}

			text, fallback, err := g.sampler.Sample(g.table, g.context)
			if err != nil {
				g.finish(ReasonNoVocabulary, err)
				return
			}
			if fallback {
				g.logger.Debug("Context not in table, sampled from vocabulary",
					zap.String("context", g.context.String()),
					zap.String("token", text),
				)
			}

			token := markov.Token{Text: text, Sep: g.table.Separator(text)}
			g.context = g.context.Shift(text)
			g.emitted++

			if !yield(token) {
				if g.emitted >= g.opts.MaxTokens {
					g.finish(ReasonMaxTokens, nil)
				} else {
					g.finish(ReasonCancelled, nil)
				}
				return
			}
		}
	}
}

// finish moves the generation to Done and releases the table
func (g *Generation) finish(reason StopReason, err error) {
	g.state = StateDone
	g.reason = reason
	g.err = err
	g.table = nil
}

// State returns the current lifecycle state
func (g *Generation) State() State {
	return g.state
}

// Emitted returns the number of tokens produced so far
func (g *Generation) Emitted() int {
	return g.emitted
}

// Context returns the current trailing context
func (g *Generation) Context() markov.Context {
	return g.context
}

// Stats returns the statistics of the table built during seeding
func (g *Generation) Stats() TableStats {
	return g.stats
}

// Result returns the terminal summary. Before Done the reason is empty.
func (g *Generation) Result() Result {
	return Result{
		Emitted: g.emitted,
		Reason:  g.reason,
		Err:     g.err,
	}
}
