package generator

import "errors"

var (
	// ErrEmptyModel: the combined corpus and conversation produced no tokens at all,
	// so no seed context can be formed.
	ErrEmptyModel = errors.New("no material to generate from")
	// ErrNoVocabulary: the table holds no tokens to sample from.
	ErrNoVocabulary = errors.New("no vocabulary to sample from")
	// ErrInvalidOrder: the context order is below 1.
	ErrInvalidOrder = errors.New("order must be at least 1")
	// ErrInvalidMaxTokens: the token limit is below 1.
	ErrInvalidMaxTokens = errors.New("max tokens must be at least 1")
)
