package search

import (
	"github.com/japaniel/versegen/pkg/meter"
	"github.com/japaniel/versegen/pkg/verse"
)

// HasPathToRhyme reports whether line, whose open end is seed and which still
// needs remaining, can be completed by model-adjacent, meter-valid words so
// that the completing word rhymes with rhymeTarget. Every candidate is
// considered before false is returned. line itself is not modified.
func (s *Searcher) HasPathToRhyme(line *verse.Line, seed, rhymeTarget string, remaining verse.Meter) bool {
	if s.rhymes == nil {
		return false
	}
	r := &reacher{s: s, target: rhymeTarget, dir: line.Direction, memo: make(map[string]bool)}
	return r.reach(line, seed, remaining)
}

// rhymeReachable returns a keep filter that admits a placement if it completes
// the line with a rhyme of target, or if such a completion is reachable from it.
// The reachability memo is shared across the whole line construction.
func (s *Searcher) rhymeReachable(target string, dir verse.Direction) keepFunc {
	r := &reacher{s: s, target: target, dir: dir, memo: make(map[string]bool)}
	return func(line *verse.Line, m meter.Match) bool {
		if len(m.Remaining) == 0 {
			return s.rhymes.IsRhyme(m.Word.Spelling, target)
		}
		return r.reach(line.Extend(m.Word), m.Word.Spelling, m.Remaining)
	}
}

// reacher memoizes reachability per (word, remaining). The answer depends only
// on those two for a fixed target and direction.
type reacher struct {
	s      *Searcher
	target string
	dir    verse.Direction
	memo   map[string]bool
}

func (r *reacher) reach(line *verse.Line, word string, remaining verse.Meter) bool {
	if len(remaining) == 0 {
		return false
	}
	key := word + "|" + string(remaining)
	if v, ok := r.memo[key]; ok {
		return v
	}

	found := false
	seen := make(map[string]struct{})
	for _, cand := range r.s.model.Candidates(word, r.dir) {
		if _, ok := seen[cand]; ok {
			continue
		}
		seen[cand] = struct{}{}

		m := r.s.matcher.Match(cand, remaining, r.dir)
		if m.Kind == meter.NoMatch {
			continue
		}
		if len(m.Remaining) == 0 {
			if r.s.rhymes.IsRhyme(cand, r.target) {
				found = true
				break
			}
			continue
		}
		if r.reach(line.Extend(m.Word), cand, m.Remaining) {
			found = true
			break
		}
	}
	r.memo[key] = found
	return found
}
