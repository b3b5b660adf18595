// Package stream turns a generation's tokens into ordered text chunks and
// delivers them to a sink that is always closed in an orderly fashion.
package stream

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"markov-go/internal/model/markov"
	"markov-go/internal/service/generator"
)

// Kind tags a chunk
type Kind int

const (
	KindText       Kind = iota // Rendered text of one or more tokens
	KindDiagnostic             // Human-readable failure description
	KindEnd                    // Terminal marker, always last
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDiagnostic:
		return "diagnostic"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Chunk is one element of a chunk stream
type Chunk struct {
	Kind   Kind
	Text   string
	Result generator.Result // Set on KindEnd
}

// Producer is the token source behind a chunk stream
type Producer interface {
	Tokens(ctx context.Context) iter.Seq[markov.Token]
	Result() generator.Result
}

// Diagnostic renders err as a diagnostic chunk text. Text that follows delivered
// output starts on a new line.
func Diagnostic(err error, afterOutput bool) string {
	text := fmt.Sprintf("[Error] %s", err)
	if afterOutput {
		return "\n" + text
	}
	return text
}

// Chunks renders the producer's tokens into text chunks of up to groupSize tokens
// each, in generation order. When the producer ends with an error one diagnostic
// chunk follows the text. A KindEnd chunk always terminates the stream.
// Cancellation ends the stream without a diagnostic.
//
// Tokens are pulled only as chunks are consumed, so production never runs ahead of
// the consumer by more than one chunk.
func Chunks(ctx context.Context, producer Producer, groupSize int) iter.Seq[Chunk] {
	if groupSize < 1 {
		groupSize = 1
	}
	return func(yield func(Chunk) bool) {
		var (
			pending   strings.Builder
			grouped   int
			delivered bool
		)

		for token := range producer.Tokens(ctx) {
			pending.WriteString(token.String())
			grouped++
			if grouped < groupSize {
				continue
			}
			if !yield(Chunk{Kind: KindText, Text: pending.String()}) {
				return
			}
			delivered = true
			pending.Reset()
			grouped = 0
		}

		if grouped > 0 {
			if !yield(Chunk{Kind: KindText, Text: pending.String()}) {
				return
			}
			delivered = true
		}

		result := producer.Result()
		if result.Err != nil {
			if !yield(Chunk{Kind: KindDiagnostic, Text: Diagnostic(result.Err, delivered)}) {
				return
			}
		}
		yield(Chunk{Kind: KindEnd, Result: result})
	}
}

// Failure is the stream of a generation that could not be started: one diagnostic
// chunk followed by the end marker
func Failure(err error) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if !yield(Chunk{Kind: KindDiagnostic, Text: Diagnostic(err, false)}) {
			return
		}
		yield(Chunk{Kind: KindEnd, Result: generator.Result{Reason: generator.ReasonFailed, Err: err}})
	}
}

// Summary describes a finished delivery
type Summary struct {
	Chunks     int              // Text chunks written
	Diagnostic bool             // Whether a diagnostic chunk was written
	Result     generator.Result // Terminal result of the generation
}

// Deliver writes every text and diagnostic chunk to sink in order and closes the
// sink when the stream ends. A failed write stops the stream, which in turn stops
// generation. The returned error joins write and close failures.
func Deliver(chunks iter.Seq[Chunk], sink Sink) (summary Summary, err error) {
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close sink: %w", closeErr))
		}
	}()

	for chunk := range chunks {
		switch chunk.Kind {
		case KindEnd:
			summary.Result = chunk.Result
			continue
		case KindDiagnostic:
			summary.Diagnostic = true
		default:
			summary.Chunks++
		}
		if writeErr := sink.Write(chunk.Text); writeErr != nil {
			return summary, fmt.Errorf("failed to write chunk: %w", writeErr)
		}
	}
	return summary, nil
}

// Collect concatenates the text and diagnostic chunks of a stream
func Collect(chunks iter.Seq[Chunk]) (string, generator.Result) {
	var sb strings.Builder
	var result generator.Result
	for chunk := range chunks {
		if chunk.Kind == KindEnd {
			result = chunk.Result
			continue
		}
		sb.WriteString(chunk.Text)
	}
	return sb.String(), result
}
