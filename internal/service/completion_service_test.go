package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"markov-go/internal/config"
	"markov-go/internal/model/markov"
	"markov-go/internal/service/generator"
	"markov-go/internal/service/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, mutate func(*config.Config)) *CompletionService {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Generation.Seed = 11
	if mutate != nil {
		mutate(cfg)
	}
	cs, err := NewCompletionService(cfg, zap.NewNop())
	require.NoError(t, err)
	return cs
}

func TestCompletionService_Generate(t *testing.T) {
	cs := newTestService(t, nil)
	conversation := []markov.Message{
		{Role: markov.RoleAssistant, Content: "Hi! I am a tiny built-in LLM. Ask me anything."},
		{Role: markov.RoleUser, Content: "Why is the sky blue?"},
	}

	var texts int
	var end stream.Chunk
	for chunk := range cs.Generate(context.Background(), conversation, generator.Options{MaxTokens: 30}) {
		switch chunk.Kind {
		case stream.KindText:
			texts++
			assert.NotEmpty(t, chunk.Text)
		case stream.KindEnd:
			end = chunk
		default:
			t.Fatalf("unexpected chunk %v: %q", chunk.Kind, chunk.Text)
		}
	}

	assert.Equal(t, 30, texts)
	assert.Equal(t, generator.Result{Emitted: 30, Reason: generator.ReasonMaxTokens}, end.Result)
}

func TestCompletionService_SeededReproducible(t *testing.T) {
	cs := newTestService(t, nil)
	conversation := []markov.Message{{Role: markov.RoleUser, Content: "Explain trade-offs in plain language."}}

	first, _ := cs.GenerateText(context.Background(), conversation, generator.Options{})
	second, _ := cs.GenerateText(context.Background(), conversation, generator.Options{})

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestCompletionService_EmptyMaterial(t *testing.T) {
	cs := newTestService(t, func(cfg *config.Config) {
		empty := ""
		cfg.Corpus.SeedText = &empty
	})

	text, result := cs.GenerateText(context.Background(), nil, generator.Options{MaxTokens: 10})

	assert.Equal(t, "[Error] no material to generate from", text)
	assert.True(t, errors.Is(result.Err, generator.ErrEmptyModel))
}

func TestCompletionService_InvalidOptions(t *testing.T) {
	cs := newTestService(t, nil)

	text, result := cs.GenerateText(context.Background(), nil, generator.Options{Order: -1})

	assert.True(t, strings.HasPrefix(text, "[Error] order must be at least 1"))
	assert.True(t, errors.Is(result.Err, generator.ErrInvalidOrder))
	assert.Equal(t, generator.ReasonFailed, result.Reason)
}

func TestCompletionService_Cancelled(t *testing.T) {
	cs := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text, result := cs.GenerateText(ctx, nil, generator.Options{})

	assert.Equal(t, "", text)
	assert.Equal(t, generator.ReasonCancelled, result.Reason)
	assert.NoError(t, result.Err)
}

func TestCompletionService_Inspect(t *testing.T) {
	cs := newTestService(t, func(cfg *config.Config) {
		seed := "a b a c a b a"
		cfg.Corpus.SeedText = &seed
	})

	stats, err := cs.Inspect(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, generator.TableStats{Order: 1, Tokens: 7, Contexts: 3, VocabularySize: 3, Transitions: 6, SingletonContexts: 1}, stats)

	_, err = cs.Inspect(nil, -2)
	assert.True(t, errors.Is(err, generator.ErrInvalidOrder))
}

func TestNewCompletionService_Errors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Generation.MaxTokens = 0
	_, err := NewCompletionService(cfg, zap.NewNop())
	assert.True(t, errors.Is(err, generator.ErrInvalidMaxTokens))

	cfg = config.DefaultConfig()
	cfg.Corpus.SeedPath = "/nonexistent/seed.txt"
	_, err = NewCompletionService(cfg, zap.NewNop())
	assert.Error(t, err)
}
