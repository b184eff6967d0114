// Package rhyme narrows phonetic rhymes to words a model can actually use.
package rhyme

import (
	"sync"

	"github.com/japaniel/versegen/pkg/model"
)

// Rhymer is the external rhyme capability. phonetic.Dict and db.Oracle satisfy it.
type Rhymer interface {
	Rhymes(word string) []string
}

// Index answers rhyme queries, memoizing the rhyme set of each target.
type Index struct {
	src Rhymer

	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

// NewIndex wraps src.
func NewIndex(src Rhymer) *Index {
	return &Index{src: src, sets: make(map[string]map[string]struct{})}
}

// RhymesWith returns the spellings that rhyme with word.
func (ix *Index) RhymesWith(word string) []string {
	return ix.src.Rhymes(word)
}

// IsRhyme reports whether candidate is among the rhymes of target.
func (ix *Index) IsRhyme(candidate, target string) bool {
	_, ok := ix.set(target)[candidate]
	return ok
}

func (ix *Index) set(target string) map[string]struct{} {
	ix.mu.RLock()
	s, ok := ix.sets[target]
	ix.mu.RUnlock()
	if ok {
		return s
	}

	s = make(map[string]struct{})
	for _, w := range ix.src.Rhymes(target) {
		s[w] = struct{}{}
	}
	ix.mu.Lock()
	ix.sets[target] = s
	ix.mu.Unlock()
	return s
}

// Usable returns the rhymes of word, excluding word itself, that vocab
// contains. A rhyme the corpus never saw cannot be continued from.
func (ix *Index) Usable(word string, vocab model.Successors) []string {
	var out []string
	for _, w := range ix.src.Rhymes(word) {
		if w == word || !vocab.Contains(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}
