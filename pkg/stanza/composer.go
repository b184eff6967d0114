// Package stanza assembles generated lines into poem forms such as couplets,
// quatrains, limericks and sonnets.
package stanza

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/japaniel/versegen/pkg/model"
	"github.com/japaniel/versegen/pkg/rhyme"
	"github.com/japaniel/versegen/pkg/search"
	"github.com/japaniel/versegen/pkg/verse"
)

// DefaultMaxAttempts bounds whole-poem retries when Composer.MaxAttempts is unset.
const DefaultMaxAttempts = 50

// LineGenerator produces one line per request. *search.Searcher implements it.
type LineGenerator interface {
	GenerateLine(req search.Request) (*verse.Line, error)
}

// Picker chooses seed words. *rand.Rand from math/rand/v2 implements it.
type Picker interface {
	IntN(n int) int
}

// Poem is a finished composition.
type Poem struct {
	Form  Form
	Lines []*verse.Line
	// Attempts is the number of whole-poem attempts it took.
	Attempts int
}

// Text renders one capitalized line per row.
func (p *Poem) Text() string {
	rows := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		rows[i] = l.Text()
	}
	return strings.Join(rows, "\n")
}

// Composer fills forms with lines. The first line of each rhyme group starts
// from a random seed; the others end in a rhyme of that line's final word.
type Composer struct {
	gen    LineGenerator
	model  *model.Model
	rhymes *rhyme.Index
	pick   Picker
	seeds  []string

	// MaxAttempts bounds whole-poem attempts. Zero means DefaultMaxAttempts.
	MaxAttempts int
	// CheckedForward builds rhyming lines forward from a random seed with a
	// reachability check instead of backward from a rhyme.
	CheckedForward bool
	// Logger receives retry notices. nil means no logging.
	Logger *log.Logger
}

// NewComposer returns a Composer drawing seeds from the model's vocabulary.
// pick nil means a fixed-seed generator. rhymes may be nil only for forms
// whose rhyme groups are all single lines.
func NewComposer(gen LineGenerator, m *model.Model, rhymes *rhyme.Index, pick Picker) *Composer {
	if pick == nil {
		pick = search.NewRand(1)
	}
	var seeds []string
	for _, w := range m.Vocabulary() {
		if m.Forward().Contains(w) {
			seeds = append(seeds, w)
		}
	}
	return &Composer{gen: gen, model: m, rhymes: rhymes, pick: pick, seeds: seeds}
}

// Compose fills form, retrying the whole poem while failures are retryable.
func (c *Composer) Compose(ctx context.Context, form Form) (*Poem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if len(c.seeds) == 0 {
		return nil, fmt.Errorf("compose %s: model has no seed words", form.Name)
	}
	if c.rhymes == nil && form.rhymed() {
		return nil, fmt.Errorf("compose %s: form rhymes but composer has no rhyme index", form.Name)
	}
	limit := c.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := c.attempt(ctx, form)
		if err == nil {
			return &Poem{Form: form, Lines: lines, Attempts: attempt}, nil
		}
		if !verse.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		if c.Logger != nil {
			c.Logger.Printf("still composing %s, attempt %d: %v", form.Name, attempt, err)
		}
	}
	return nil, fmt.Errorf("compose %s: gave up after %d attempts: %w", form.Name, limit, lastErr)
}

func (c *Composer) attempt(ctx context.Context, form Form) ([]*verse.Line, error) {
	sizes := form.groupSizes()
	anchors := make(map[string]string, len(sizes))
	lines := make([]*verse.Line, 0, len(form.Lines))

	for i, spec := range form.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		anchor, ok := anchors[spec.Rhyme]
		var line *verse.Line
		var err error
		if ok {
			line, err = c.rhymingLine(anchor, spec.Meter)
		} else {
			line, err = c.openingLine(spec.Meter, sizes[spec.Rhyme] > 1)
			if err == nil {
				anchors[spec.Rhyme] = line.Last().Spelling
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", i+1, spec.Rhyme, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// openingLine builds a forward line from a random seed. When the line must be
// rhymed later its final word needs a usable rhyme.
func (c *Composer) openingLine(m verse.Meter, needsRhyme bool) (*verse.Line, error) {
	seed := c.seeds[c.pick.IntN(len(c.seeds))]
	line, err := c.gen.GenerateLine(search.Request{Seed: seed, Meter: m})
	if err != nil {
		return nil, err
	}
	if needsRhyme {
		last := line.Last().Spelling
		if len(c.rhymes.Usable(last, c.model.Backward())) == 0 {
			return nil, fmt.Errorf("%w: %q ends the line but nothing in the corpus rhymes with it", verse.ErrNoRhyme, last)
		}
	}
	return line, nil
}

func (c *Composer) rhymingLine(anchor string, m verse.Meter) (*verse.Line, error) {
	if c.CheckedForward {
		seed := c.seeds[c.pick.IntN(len(c.seeds))]
		return c.gen.GenerateLine(search.Request{Seed: seed, Meter: m, RhymeTarget: anchor})
	}
	return c.gen.GenerateLine(search.Request{Seed: anchor, Meter: m, FromRhyme: true})
}
