package generator

import (
	"context"
	"errors"
	"testing"

	"markov-go/internal/model/markov"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func collect(ctx context.Context, g *Generation) markov.TokenSequence {
	var out markov.TokenSequence
	for token := range g.Tokens(ctx) {
		out = append(out, token)
	}
	return out
}

func TestGeneration_GreedyScenario(t *testing.T) {
	g, err := NewGeneration("a b a c a b a", nil, Options{Order: 1, MaxTokens: 4}, NewGreedySampler(NewSource(1)), zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, StateEmitting, g.State())
	assert.Equal(t, markov.Context{"a"}, g.Context())

	tokens := collect(context.Background(), g)

	assert.Equal(t, []string{"b", "a", "b", "a"}, tokens.Texts())
	assert.Equal(t, "b a b a ", tokens.String())
	assert.Equal(t, StateDone, g.State())
	assert.Equal(t, Result{Emitted: 4, Reason: ReasonMaxTokens}, g.Result())
}

func TestGeneration_SeedFromConversation(t *testing.T) {
	conversation := []markov.Message{
		{Role: markov.RoleUser, Content: "Why is the sky blue?"},
	}
	g, err := NewGeneration("The sky appears blue.", conversation, DefaultOptions(), NewSampler(NewSource(3)), nil)
	require.NoError(t, err)

	assert.Equal(t, markov.Context{"blue", "?"}, g.Context())
	assert.Equal(t, TableStats{Order: 2, Tokens: 13, Contexts: 11, VocabularySize: 11, Transitions: 11, SingletonContexts: 11}, g.Stats())
}

func TestGeneration_Deterministic(t *testing.T) {
	seed := "You consider the user's intent, explain trade-offs, and provide step-by-step reasoning when appropriate. " +
		"Use plain language and avoid unnecessary jargon. Be polite, precise, and helpful."
	conversation := []markov.Message{{Role: markov.RoleUser, Content: "Explain the trade-offs, please."}}

	run := func() string {
		g, err := NewGeneration(seed, conversation, Options{Order: 2, MaxTokens: 50}, NewSampler(NewSource(99)), nil)
		require.NoError(t, err)
		return collect(context.Background(), g).String()
	}

	first := run()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, run())
}

func TestGeneration_EmitsExactlyMaxTokens(t *testing.T) {
	for _, maxTokens := range []int{1, 7, 100} {
		g, err := NewGeneration("the cat sat on the mat and the dog sat on the cat", nil,
			Options{Order: 1, MaxTokens: maxTokens}, NewSampler(NewSource(5)), nil)
		require.NoError(t, err)

		tokens := collect(context.Background(), g)
		assert.Len(t, tokens, maxTokens)
		assert.Equal(t, ReasonMaxTokens, g.Result().Reason)
		assert.NoError(t, g.Result().Err)
	}
}

func TestGeneration_EmptyCorpus(t *testing.T) {
	g, err := NewGeneration("", nil, Options{Order: 2, MaxTokens: 10}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, StateDone, g.State())
	assert.Empty(t, collect(context.Background(), g))

	result := g.Result()
	assert.Equal(t, ReasonEmptyModel, result.Reason)
	assert.True(t, errors.Is(result.Err, ErrEmptyModel))
}

func TestGeneration_ShortCorpusIsEmptyCompletion(t *testing.T) {
	g, err := NewGeneration("hello", nil, Options{Order: 2, MaxTokens: 10}, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, collect(context.Background(), g))
	assert.Equal(t, Result{Emitted: 0, Reason: ReasonEmptyModel}, g.Result())
}

func TestGeneration_InvalidOptions(t *testing.T) {
	_, err := NewGeneration("a b c", nil, Options{Order: 0, MaxTokens: 10}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidOrder))

	_, err = NewGeneration("a b c", nil, Options{Order: 1, MaxTokens: 0}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidMaxTokens))
}

func TestGeneration_CancelledBetweenTokens(t *testing.T) {
	g, err := NewGeneration("a b a c a b a", nil, Options{Order: 1, MaxTokens: 50}, NewSampler(NewSource(1)), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got markov.TokenSequence
	for token := range g.Tokens(ctx) {
		got = append(got, token)
		if len(got) == 3 {
			cancel()
		}
	}

	assert.Len(t, got, 3)
	assert.Equal(t, Result{Emitted: 3, Reason: ReasonCancelled}, g.Result())
}

func TestGeneration_CancelledWithLastToken(t *testing.T) {
	g, err := NewGeneration("a b a c a b a", nil, Options{Order: 1, MaxTokens: 3}, NewSampler(NewSource(1)), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	count := 0
	for range g.Tokens(ctx) {
		count++
		if count == 3 {
			cancel()
		}
	}

	assert.Equal(t, 3, count)
	assert.Equal(t, Result{Emitted: 3, Reason: ReasonMaxTokens}, g.Result())
}

func TestGeneration_ConsumerStops(t *testing.T) {
	g, err := NewGeneration("a b a c a b a", nil, Options{Order: 1, MaxTokens: 50}, NewSampler(NewSource(1)), nil)
	require.NoError(t, err)

	for range g.Tokens(context.Background()) {
		break
	}

	assert.Equal(t, Result{Emitted: 1, Reason: ReasonCancelled}, g.Result())
}

func TestGeneration_ConsumedOnce(t *testing.T) {
	g, err := NewGeneration("a b a c a b a", nil, Options{Order: 1, MaxTokens: 5}, NewSampler(NewSource(1)), nil)
	require.NoError(t, err)

	assert.Len(t, collect(context.Background(), g), 5)
	assert.Empty(t, collect(context.Background(), g))
	assert.Equal(t, 5, g.Emitted())
}

func TestCombineCorpus(t *testing.T) {
	conversation := []markov.Message{{Role: markov.RoleUser, Content: "hi"}}

	assert.Equal(t, "seed\nUser: hi", CombineCorpus("seed", conversation))
	assert.Equal(t, "User: hi", CombineCorpus("", conversation))
	assert.Equal(t, "seed", CombineCorpus("seed", nil))
}
