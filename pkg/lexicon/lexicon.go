// Package lexicon resolves word spellings to their possible stress patterns.
package lexicon

import (
	"strings"
	"sync"
)

// Unknown is the placeholder for a syllable whose stress is not recorded.
const Unknown = '?'

// Source supplies raw stress strings, one per pronunciation, with digits
// 0 (none), 1 (primary) and 2 (secondary). phonetic.Dict and db.Oracle
// satisfy it.
type Source interface {
	Stresses(word string) []string
}

// Lexicon maps spellings to stress variants over {0,1}, or a guess of '?'
// syllables for words the source does not know. Results are memoized; the
// Source must not change while a Lexicon uses it.
type Lexicon struct {
	src   Source
	cache sync.Map // string -> []string
}

// New creates a Lexicon backed by src.
func New(src Source) *Lexicon {
	return &Lexicon{src: src}
}

// Variants returns one stress string per distinct recorded pronunciation,
// secondary stress folded into primary. Unknown words yield a single string
// of '?' with one symbol per vowel cluster.
func (l *Lexicon) Variants(word string) []string {
	word = strings.ToLower(word)
	if v, ok := l.cache.Load(word); ok {
		return v.([]string)
	}

	var out []string
	seen := make(map[string]struct{})
	for _, raw := range l.src.Stresses(word) {
		s := fold(raw)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		out = []string{strings.Repeat(string(Unknown), GuessSyllables(word))}
	}
	l.cache.Store(word, out)
	return out
}

// Known reports whether the source has a pronunciation for word.
func (l *Lexicon) Known(word string) bool {
	for _, v := range l.Variants(word) {
		if !strings.ContainsRune(v, Unknown) {
			return true
		}
	}
	return false
}

// IsMonosyllabic reports whether any variant of word has one syllable.
func (l *Lexicon) IsMonosyllabic(word string) bool {
	for _, v := range l.Variants(word) {
		if len(v) == 1 {
			return true
		}
	}
	return false
}

// fold maps any non-zero stress digit to 1 and drops everything else.
func fold(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r == '0':
			b.WriteByte('0')
		case r >= '1' && r <= '9':
			b.WriteByte('1')
		}
	}
	return b.String()
}

// GuessSyllables counts vowel clusters in word as a rough syllable count.
// A word without vowels still counts as one syllable.
func GuessSyllables(word string) int {
	n := 0
	inCluster := false
	for _, r := range strings.ToLower(word) {
		if strings.ContainsRune("aeiouy", r) {
			if !inCluster {
				n++
			}
			inCluster = true
			continue
		}
		inCluster = false
	}
	if n == 0 {
		return 1
	}
	return n
}

// Static is a fixed word -> stress strings table usable as a Source.
type Static map[string][]string

// Stresses implements Source.
func (s Static) Stresses(word string) []string { return s[word] }
