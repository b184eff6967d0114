// Package meter decides whether a word can occupy the open end of a
// partially filled meter.
package meter

import (
	"strings"

	"github.com/japaniel/versegen/pkg/verse"
)

// Lexicon is the stress lookup the matcher needs. *lexicon.Lexicon satisfies it.
type Lexicon interface {
	Variants(word string) []string
	IsMonosyllabic(word string) bool
}

// Kind classifies how a word fits the remaining meter.
type Kind int

const (
	// NoMatch means the word cannot be placed.
	NoMatch Kind = iota
	// Exact means a recorded stress variant matches the open end of the meter.
	Exact
	// Lenient means a monosyllable stands in for one unit of either stress.
	Lenient
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Lenient:
		return "lenient"
	default:
		return "no-match"
	}
}

// Match is the outcome of classifying one word.
type Match struct {
	Kind Kind
	// Word carries the stress consumed by the placement.
	Word verse.Word
	// Remaining is the meter left after the placement.
	Remaining verse.Meter
}

// Matcher classifies candidate words against a remaining meter.
type Matcher struct {
	lex Lexicon
}

// NewMatcher creates a Matcher over lex.
func NewMatcher(lex Lexicon) *Matcher {
	return &Matcher{lex: lex}
}

// Lexicon returns the lexicon the matcher consults.
func (m *Matcher) Lexicon() Lexicon { return m.lex }

// Match classifies word against the open end of remaining: the head for
// Forward, the tail for Backward. Variants are tried in lexicon order and the
// first exact fit wins. A word with no exact fit is accepted leniently only if
// it is monosyllabic.
func (m *Matcher) Match(word string, remaining verse.Meter, dir verse.Direction) Match {
	if word == "" || len(remaining) == 0 {
		return Match{Kind: NoMatch}
	}
	rem := string(remaining)
	for _, v := range m.lex.Variants(word) {
		if len(v) == 0 || len(v) > len(rem) || strings.ContainsRune(v, '?') {
			continue
		}
		if dir == verse.Backward {
			if strings.HasSuffix(rem, v) {
				return Match{
					Kind:      Exact,
					Word:      verse.Word{Spelling: word, Stress: v},
					Remaining: verse.Meter(rem[:len(rem)-len(v)]),
				}
			}
			continue
		}
		if strings.HasPrefix(rem, v) {
			return Match{
				Kind:      Exact,
				Word:      verse.Word{Spelling: word, Stress: v},
				Remaining: verse.Meter(rem[len(v):]),
			}
		}
	}

	if !m.lex.IsMonosyllabic(word) {
		return Match{Kind: NoMatch}
	}
	if dir == verse.Backward {
		return Match{
			Kind:      Lenient,
			Word:      verse.Word{Spelling: word, Stress: rem[len(rem)-1:], Lenient: true},
			Remaining: verse.Meter(rem[:len(rem)-1]),
		}
	}
	return Match{
		Kind:      Lenient,
		Word:      verse.Word{Spelling: word, Stress: rem[:1], Lenient: true},
		Remaining: verse.Meter(rem[1:]),
	}
}

// Partition classifies every word and splits the fits into exact and lenient
// buckets, preserving input order within each bucket.
func (m *Matcher) Partition(words []string, remaining verse.Meter, dir verse.Direction) (exact, lenient []Match) {
	for _, w := range words {
		switch mt := m.Match(w, remaining, dir); mt.Kind {
		case Exact:
			exact = append(exact, mt)
		case Lenient:
			lenient = append(lenient, mt)
		}
	}
	return exact, lenient
}
