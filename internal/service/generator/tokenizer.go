// Package generator builds order-k Markov transition tables from prose and
// generates text from them one token at a time.
package generator

import (
	"iter"
	"strings"
	"unicode"

	"markov-go/internal/model/markov"

	"github.com/rivo/uniseg"
)

// Tokenize splits text into word and punctuation tokens using Unicode word
// boundaries. The returned sequence is lazy and restartable: every range over it
// re-scans text.
//
// Whitespace is never a token. It becomes the separator of the preceding token and
// is normalized: a run without a newline becomes " ", a run with one newline "\n",
// and a run with two or more newlines "\n\n". Leading whitespace is dropped, so
// reconstructing the tokens yields text that differs from the input only in
// whitespace.
func Tokenize(text string) iter.Seq[markov.Token] {
	return func(yield func(markov.Token) bool) {
		var (
			current    string
			haveToken  bool
			whitespace strings.Builder
		)

		state := -1
		rest := text
		for len(rest) > 0 {
			var segment string
			segment, rest, state = uniseg.FirstWordInString(rest, state)

			// Extend and ZWJ runes attach to a preceding space run (WB4), so a
			// segment may mix whitespace with other runes.
			for segment != "" {
				word := strings.TrimLeftFunc(segment, unicode.IsSpace)
				whitespace.WriteString(segment[:len(segment)-len(word)])
				if word == "" {
					break
				}
				end := strings.IndexFunc(word, unicode.IsSpace)
				if end < 0 {
					end = len(word)
				}
				segment = word[end:]

				if haveToken {
					if !yield(markov.Token{Text: current, Sep: normalizeSeparator(whitespace.String())}) {
						return
					}
				}
				whitespace.Reset()
				current = word[:end]
				haveToken = true
			}
		}

		if haveToken {
			yield(markov.Token{Text: current, Sep: normalizeSeparator(whitespace.String())})
		}
	}
}

// TokenizeAll collects Tokenize into a slice
func TokenizeAll(text string) markov.TokenSequence {
	var tokens markov.TokenSequence
	for token := range Tokenize(text) {
		tokens = append(tokens, token)
	}
	return tokens
}

// Reconstruct joins tokens back into text
func Reconstruct(tokens []markov.Token) string {
	return markov.TokenSequence(tokens).String()
}

func normalizeSeparator(whitespace string) string {
	if whitespace == "" {
		return ""
	}
	switch strings.Count(whitespace, "\n") {
	case 0:
		return " "
	case 1:
		return "\n"
	default:
		return "\n\n"
	}
}
