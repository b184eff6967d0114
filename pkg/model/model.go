// Package model holds the word adjacency statistics the line search walks.
//
// A Model is built once from a token stream and is read-only afterwards, so it
// may be shared by any number of concurrent searches.
package model

import (
	"sort"

	"github.com/japaniel/versegen/pkg/verse"
)

// Pair is one observed adjacency: Next immediately followed Prev in the corpus.
type Pair struct {
	Prev string `json:"prev"`
	Next string `json:"next"`
}

// Successors answers adjacency queries in one direction.
type Successors interface {
	// Candidates returns the words adjacent to word in corpus order,
	// repeated once per observation. The slice must not be modified.
	Candidates(word string) []string
	// Contains reports whether word has any adjacent word.
	Contains(word string) bool
}

// Adjacency is a word -> adjacent words multimap.
type Adjacency struct {
	links map[string][]string
}

// Candidates implements Successors. Unknown words yield nil.
func (a Adjacency) Candidates(word string) []string {
	return a.links[word]
}

// Contains implements Successors.
func (a Adjacency) Contains(word string) bool {
	return len(a.links[word]) > 0
}

// Len returns the number of words with at least one neighbour.
func (a Adjacency) Len() int { return len(a.links) }

// Model holds forward (word -> followers) and backward (word -> predecessors)
// adjacency built from the same pairs.
type Model struct {
	pairs    []Pair
	forward  Adjacency
	backward Adjacency
}

// FromPairs builds a model from pairs in corpus order.
func FromPairs(pairs []Pair) *Model {
	m := &Model{
		pairs:    pairs,
		forward:  Adjacency{links: make(map[string][]string)},
		backward: Adjacency{links: make(map[string][]string)},
	}
	for _, p := range pairs {
		m.forward.links[p.Prev] = append(m.forward.links[p.Prev], p.Next)
		m.backward.links[p.Next] = append(m.backward.links[p.Next], p.Prev)
	}
	return m
}

// Build builds a model from one contiguous token stream.
func Build(tokens []string) *Model {
	var b Builder
	b.AddDocument(tokens)
	return b.Model()
}

// Forward returns the word -> followers index.
func (m *Model) Forward() Successors { return m.forward }

// Backward returns the word -> predecessors index.
func (m *Model) Backward() Successors { return m.backward }

// Toward returns the index used to grow a line in direction dir.
func (m *Model) Toward(dir verse.Direction) Successors {
	if dir == verse.Backward {
		return m.backward
	}
	return m.forward
}

// Candidates returns the words adjacent to word in direction dir.
func (m *Model) Candidates(word string, dir verse.Direction) []string {
	return m.Toward(dir).Candidates(word)
}

// Contains reports whether word has a neighbour in direction dir.
func (m *Model) Contains(word string, dir verse.Direction) bool {
	return m.Toward(dir).Contains(word)
}

// Pairs returns the adjacency pairs in corpus order. The slice must not be modified.
func (m *Model) Pairs() []Pair { return m.pairs }

// Len returns the number of observed pairs.
func (m *Model) Len() int { return len(m.pairs) }

// Vocabulary returns every word seen in any pair, sorted.
func (m *Model) Vocabulary() []string {
	seen := make(map[string]struct{}, m.forward.Len()+m.backward.Len())
	for w := range m.forward.links {
		seen[w] = struct{}{}
	}
	for w := range m.backward.links {
		seen[w] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// PairsOf returns the adjacent pairs of one contiguous token stream.
func PairsOf(tokens []string) []Pair {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]Pair, 0, len(tokens)-1)
	for i := 1; i < len(tokens); i++ {
		out = append(out, Pair{Prev: tokens[i-1], Next: tokens[i]})
	}
	return out
}

// Builder accumulates pairs document by document. The zero value is ready to use.
type Builder struct {
	pairs []Pair
}

// AddDocument records every adjacent pair of tokens. Pairs never span two
// documents. It returns the number of pairs added.
func (b *Builder) AddDocument(tokens []string) int {
	pairs := PairsOf(tokens)
	b.pairs = append(b.pairs, pairs...)
	return len(pairs)
}

// AddPairs appends already formed pairs, e.g. when resuming from storage.
func (b *Builder) AddPairs(pairs []Pair) {
	b.pairs = append(b.pairs, pairs...)
}

// Model returns a model over everything added so far.
func (b *Builder) Model() *Model {
	pairs := make([]Pair, len(b.pairs))
	copy(pairs, b.pairs)
	return FromPairs(pairs)
}
