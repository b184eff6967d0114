package search

import (
	"fmt"
	"log"
	"strings"

	"github.com/japaniel/versegen/pkg/meter"
	"github.com/japaniel/versegen/pkg/model"
	"github.com/japaniel/versegen/pkg/rhyme"
	"github.com/japaniel/versegen/pkg/verse"
)

// Strategy selects what happens when a step has no way forward.
type Strategy int

const (
	// SinglePath follows one shuffled choice per step and fails at the first dead end.
	SinglePath Strategy = iota
	// Backtrack retries sibling choices before failing.
	Backtrack
)

func (s Strategy) String() string {
	if s == Backtrack {
		return "backtrack"
	}
	return "single"
}

// ParseStrategy maps "single" and "backtrack" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single", "single-path":
		return SinglePath, nil
	case "backtrack":
		return Backtrack, nil
	}
	return SinglePath, fmt.Errorf("unknown search strategy %q", s)
}

// Request describes one line to generate.
type Request struct {
	// Seed is the first word of a forward line, the last word of a backward
	// line, or the word to rhyme with when FromRhyme is set.
	Seed  string
	Meter verse.Meter
	// Reverse builds the line backward from Seed.
	Reverse bool
	// FromRhyme draws the final word from the rhymes of Seed instead of using
	// Seed itself. Rhyme-seeded lines are always built backward.
	FromRhyme bool
	// RhymeTarget, when set, requires the line's last word to rhyme with it.
	// Forward lines keep only candidates from which such a completion is
	// reachable. Backward lines already know their last word, so only that
	// word is checked.
	RhymeTarget string
}

// Searcher generates lines over a read-only model. A Searcher holds no
// per-line state but its Shuffler is usually not safe for concurrent use;
// give each goroutine its own Searcher.
type Searcher struct {
	model   *model.Model
	matcher *meter.Matcher
	rhymes  *rhyme.Index
	rand    Shuffler

	Strategy Strategy
	// Logger receives dead-end reports. nil means no logging.
	Logger *log.Logger
	// Trace, if set, is called with the line length after every placed word.
	Trace func(depth int, w verse.Word)
}

// New creates a Searcher using the SinglePath strategy. rhymes may be nil if
// no rhyme-constrained lines are requested; rnd nil means NoShuffle.
func New(m *model.Model, matcher *meter.Matcher, rhymes *rhyme.Index, rnd Shuffler) *Searcher {
	if rnd == nil {
		rnd = NoShuffle{}
	}
	return &Searcher{model: m, matcher: matcher, rhymes: rhymes, rand: rnd}
}

// CompleteForward builds a line for target starting with seed.
func (s *Searcher) CompleteForward(seed string, target verse.Meter) (*verse.Line, error) {
	return s.GenerateLine(Request{Seed: seed, Meter: target})
}

// CompleteBackward builds a line for target ending with seed.
func (s *Searcher) CompleteBackward(seed string, target verse.Meter) (*verse.Line, error) {
	return s.GenerateLine(Request{Seed: seed, Meter: target, Reverse: true})
}

// GenerateLine builds the line described by req.
func (s *Searcher) GenerateLine(req Request) (*verse.Line, error) {
	seed := strings.ToLower(strings.TrimSpace(req.Seed))
	if seed == "" {
		return nil, verse.ErrEmptySeed
	}
	if err := req.Meter.Validate(); err != nil {
		return nil, err
	}
	if (req.FromRhyme || req.RhymeTarget != "") && s.rhymes == nil {
		return nil, fmt.Errorf("searcher has no rhyme index")
	}

	dir := verse.Forward
	if req.Reverse || req.FromRhyme {
		dir = verse.Backward
	}
	line := verse.NewLine(req.Meter, dir)

	target := strings.ToLower(strings.TrimSpace(req.RhymeTarget))
	var keep keepFunc
	if target != "" && dir == verse.Forward {
		keep = s.rhymeReachable(target, dir)
	}

	var first []meter.Match
	if req.FromRhyme {
		usable := s.rhymes.Usable(seed, s.model.Toward(dir))
		if target != "" {
			usable = s.rhymingWith(usable, target)
		}
		if len(usable) == 0 {
			return nil, fmt.Errorf("%w: nothing in the corpus rhymes with %q", verse.ErrNoRhyme, seed)
		}
		first = s.order(line, usable, keep)
		if len(first) == 0 {
			return nil, fmt.Errorf("%w: no rhyme of %q ends meter %s", verse.ErrNoRhyme, seed, req.Meter)
		}
	} else {
		if target != "" && dir == verse.Backward && !s.rhymes.IsRhyme(seed, target) {
			return nil, fmt.Errorf("%w: line ends in %q which does not rhyme with %q", verse.ErrNoRhyme, seed, target)
		}
		first = s.order(line, []string{seed}, keep)
		if len(first) == 0 {
			return nil, fmt.Errorf("%w: seed %q does not fit meter %s", verse.ErrSearchExhausted, seed, req.Meter)
		}
	}

	st := &state{keep: keep}
	if s.Strategy == Backtrack {
		st.failed = make(map[string]bool)
	}
	return s.try(st, line, first)
}

// keepFunc filters placements; line is the line before m is placed.
type keepFunc func(line *verse.Line, m meter.Match) bool

type state struct {
	keep keepFunc
	// failed holds "open word|remaining" states already known to be dead ends.
	failed map[string]bool
}

// try places each option in turn (only the first under SinglePath) and
// extends the result.
func (s *Searcher) try(st *state, line *verse.Line, options []meter.Match) (*verse.Line, error) {
	if s.Strategy == SinglePath {
		options = options[:1]
	}
	var lastErr error
	for _, opt := range options {
		next := line.Extend(opt.Word)
		if s.Trace != nil {
			s.Trace(len(next.Words), opt.Word)
		}
		out, err := s.extend(st, next)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// extend grows line until it covers its target. Each placed word consumes at
// least one syllable, so recursion depth is bounded by the target length.
func (s *Searcher) extend(st *state, line *verse.Line) (*verse.Line, error) {
	if line.Complete() {
		return line, nil
	}
	rem := line.Remaining()
	key := line.Open() + "|" + string(rem)
	if st.failed != nil && st.failed[key] {
		return nil, fmt.Errorf("%w: no word fits %s after %q", verse.ErrSearchExhausted, rem, line.Open())
	}

	options := s.order(line, s.model.Candidates(line.Open(), line.Direction), st.keep)
	if len(options) == 0 {
		if s.Logger != nil {
			s.Logger.Printf("dead end after %q (%d/%d syllables, %s)", strings.Join(line.Spellings(), " "), line.Consumed(), line.Target.Len(), line.Direction)
		}
		if st.failed != nil {
			st.failed[key] = true
		}
		return nil, fmt.Errorf("%w: no word fits %s after %q", verse.ErrSearchExhausted, rem, line.Open())
	}

	out, err := s.try(st, line, options)
	if err != nil && st.failed != nil {
		st.failed[key] = true
	}
	return out, err
}

// order classifies words against the line's remaining meter and returns the
// shuffled exact bucket followed by the shuffled lenient bucket. Under
// Backtrack repeated spellings are dropped after shuffling, so frequency still
// weighs the first pick without multiplying retries.
func (s *Searcher) order(line *verse.Line, words []string, keep keepFunc) []meter.Match {
	exact, lenient := s.matcher.Partition(words, line.Remaining(), line.Direction)
	if keep != nil {
		exact = filter(line, exact, keep)
		lenient = filter(line, lenient, keep)
	}
	s.rand.Shuffle(len(exact), func(i, j int) { exact[i], exact[j] = exact[j], exact[i] })
	s.rand.Shuffle(len(lenient), func(i, j int) { lenient[i], lenient[j] = lenient[j], lenient[i] })

	out := append(exact, lenient...)
	if s.Strategy == Backtrack {
		out = dedupe(out)
	}
	return out
}

func (s *Searcher) rhymingWith(words []string, target string) []string {
	out := words[:0]
	for _, w := range words {
		if s.rhymes.IsRhyme(w, target) {
			out = append(out, w)
		}
	}
	return out
}

func filter(line *verse.Line, in []meter.Match, keep keepFunc) []meter.Match {
	out := in[:0]
	for _, m := range in {
		if keep(line, m) {
			out = append(out, m)
		}
	}
	return out
}

func dedupe(in []meter.Match) []meter.Match {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, m := range in {
		if _, ok := seen[m.Word.Spelling]; ok {
			continue
		}
		seen[m.Word.Spelling] = struct{}{}
		out = append(out, m)
	}
	return out
}
