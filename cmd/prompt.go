package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"markov-go/internal/model/markov"
	"markov-go/internal/service"
	"markov-go/internal/service/generator"
	"markov-go/internal/service/stream"
)

// RunPrompt streams one completion for a single user message to out. Ctrl-C stops
// generation between tokens and keeps what was already printed.
func RunPrompt(ctx context.Context, completionService *service.CompletionService, prompt string, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conversation := []markov.Message{
		{Role: markov.RoleUser, Content: prompt},
	}

	summary, err := stream.Deliver(completionService.Generate(ctx, conversation, generator.Options{}), stream.NewWriterSink(out))
	if err != nil {
		return fmt.Errorf("failed to write completion: %w", err)
	}
	fmt.Fprintln(out)

	if summary.Result.Reason == generator.ReasonCancelled {
		fmt.Fprintf(out, "(stopped after %d tokens)\n", summary.Result.Emitted)
	}
	return nil
}
