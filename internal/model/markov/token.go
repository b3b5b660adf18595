package markov

import "strings"

// Token represents a single word or punctuation unit of prose
type Token struct {
	Text string // Word or punctuation text
	Sep  string // Normalized whitespace that followed the token in its source ("", " ", "\n" or "\n\n")
}

// String returns the token as it is rendered in output text
func (t Token) String() string {
	return t.Text + t.Sep
}

// TokenSequence is a slice of tokens
type TokenSequence []Token

// Texts returns the token texts without separators
func (ts TokenSequence) Texts() []string {
	texts := make([]string, len(ts))
	for i, token := range ts {
		texts[i] = token.Text
	}
	return texts
}

// String joins the tokens back into text
func (ts TokenSequence) String() string {
	var sb strings.Builder
	for _, token := range ts {
		sb.WriteString(token.Text)
		sb.WriteString(token.Sep)
	}
	return sb.String()
}

// Context is the ordered tuple of the k most recent token texts used as a lookup key.
// Two contexts are equal iff their texts are equal element-wise.
type Context []string

// contextSeparator cannot appear in tokenized text, so keys are unambiguous
const contextSeparator = "\x00"

// Key returns the context as a map key
func (c Context) Key() string {
	return strings.Join(c, contextSeparator)
}

// String returns the context as a space-separated string
func (c Context) String() string {
	return strings.Join(c, " ")
}

// Equal reports whether two contexts hold the same texts in the same order
func (c Context) Equal(other Context) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Shift returns a new context with the oldest token dropped and next appended.
// The receiver is not modified.
func (c Context) Shift(next string) Context {
	if len(c) == 0 {
		return Context{}
	}
	shifted := make(Context, len(c))
	copy(shifted, c[1:])
	shifted[len(c)-1] = next
	return shifted
}

// Tail returns the context formed by the last k texts. If fewer than k texts
// exist the shorter context is returned.
func Tail(texts []string, k int) Context {
	if k > len(texts) {
		k = len(texts)
	}
	tail := make(Context, k)
	copy(tail, texts[len(texts)-k:])
	return tail
}
