package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"markov-go/internal/config"
	"markov-go/internal/model/markov"
	"markov-go/internal/service/generator"
	"markov-go/internal/service/stream"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompletionService builds a fresh Markov model per request from the seed corpus
// and the conversation, and streams the completion
type CompletionService struct {
	seedCorpus  string
	options     generator.Options
	seed        int64 // 0 = random per request
	chunkTokens int
	logger      *zap.Logger
}

// NewCompletionService creates a completion service from configuration
func NewCompletionService(cfg *config.Config, logger *zap.Logger) (*CompletionService, error) {
	seedCorpus, err := cfg.SeedCorpus()
	if err != nil {
		return nil, fmt.Errorf("failed to load seed corpus: %w", err)
	}

	options := generator.Options{
		Order:     cfg.Generation.Order,
		MaxTokens: cfg.Generation.MaxTokens,
	}
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation options: %w", err)
	}

	chunkTokens := cfg.Generation.ChunkTokens
	if chunkTokens < 1 {
		chunkTokens = 1
	}

	return &CompletionService{
		seedCorpus:  seedCorpus,
		options:     options,
		seed:        cfg.Generation.Seed,
		chunkTokens: chunkTokens,
		logger:      logger,
	}, nil
}

// Options returns the default generation options
func (cs *CompletionService) Options() generator.Options {
	return cs.options
}

// ResolveOptions fills zero fields of opts with the service defaults
func (cs *CompletionService) ResolveOptions(opts generator.Options) generator.Options {
	if opts.Order == 0 {
		opts.Order = cs.options.Order
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = cs.options.MaxTokens
	}
	return opts
}

// Generate returns the completion for conversation as a chunk stream. Failures,
// including invalid options, surface as one diagnostic chunk; the stream always
// ends with a KindEnd chunk. The stream is consumed once, front to back.
func (cs *CompletionService) Generate(ctx context.Context, conversation []markov.Message, opts generator.Options) iter.Seq[stream.Chunk] {
	opts = cs.ResolveOptions(opts)
	generationID := uuid.NewString()
	logger := cs.logger.With(zap.String("generation_id", generationID))

	gen, err := generator.NewGeneration(cs.seedCorpus, conversation, opts, cs.newSampler(), logger)
	if err != nil {
		logger.Warn("Failed to start generation", zap.Error(err))
		return stream.Failure(err)
	}

	return func(yield func(stream.Chunk) bool) {
		start := time.Now()
		logger.Info("Generation started",
			zap.Int("messages", len(conversation)),
			zap.Int("order", opts.Order),
			zap.Int("max_tokens", opts.MaxTokens),
		)

		for chunk := range stream.Chunks(ctx, gen, cs.chunkTokens) {
			if !yield(chunk) {
				break
			}
		}

		result := gen.Result()
		fields := []zap.Field{
			zap.Int("emitted", result.Emitted),
			zap.String("reason", string(result.Reason)),
			zap.Duration("duration", time.Since(start)),
		}
		if result.Err != nil {
			logger.Warn("Generation ended with diagnostic", append(fields, zap.Error(result.Err))...)
			return
		}
		logger.Info("Generation complete", fields...)
	}
}

// GenerateText runs a generation to completion and returns the concatenated text,
// diagnostic included
func (cs *CompletionService) GenerateText(ctx context.Context, conversation []markov.Message, opts generator.Options) (string, generator.Result) {
	return stream.Collect(cs.Generate(ctx, conversation, opts))
}

// Inspect builds the table for conversation without generating and returns its statistics
func (cs *CompletionService) Inspect(conversation []markov.Message, order int) (generator.TableStats, error) {
	if order == 0 {
		order = cs.options.Order
	}
	tokens := generator.TokenizeAll(generator.CombineCorpus(cs.seedCorpus, conversation))
	table, err := generator.BuildTable(tokens, order)
	if err != nil {
		return generator.TableStats{}, err
	}
	return table.Stats(), nil
}

func (cs *CompletionService) newSampler() *generator.Sampler {
	if cs.seed != 0 {
		return generator.NewSampler(generator.NewSource(cs.seed))
	}
	return generator.NewSampler(generator.RandomSource())
}
