// Package verse defines the values shared by the line search and the stanza
// composer: meters, placed words, lines and the search failure signals.
package verse

import (
	"fmt"
	"strings"
	"unicode"
)

// Direction is the end of a line that construction grows from.
type Direction int

const (
	// Forward appends words after the last word of the line.
	Forward Direction = iota
	// Backward prepends words before the first word of the line.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Meter is a metrical template over {0,1}: 0 unstressed, 1 stressed.
type Meter string

// Common meters.
const (
	IambicPentameter Meter = "0101010101"
	IambicTetrameter Meter = "01010101"
)

// ParseMeter validates s as a meter.
func ParseMeter(s string) (Meter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidMeter)
	}
	for i, r := range s {
		if r != '0' && r != '1' {
			return "", fmt.Errorf("%w: %q has %q at %d", ErrInvalidMeter, s, r, i)
		}
	}
	return Meter(s), nil
}

// Validate reports whether m is a non-empty string over {0,1}.
func (m Meter) Validate() error {
	_, err := ParseMeter(string(m))
	return err
}

// Len returns the number of syllables in the meter.
func (m Meter) Len() int { return len(m) }

// Reverse returns the meter read from the end.
func (m Meter) Reverse() Meter {
	b := []byte(m)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return Meter(b)
}

// Word is a token placed in a line together with the stress it realizes there.
type Word struct {
	Spelling string
	// Stress is the stress the word consumes in the line. For an exact match it is
	// the matching dictionary variant; for a lenient match it is the single
	// target unit the monosyllable stands in for.
	Stress string
	// Lenient marks a monosyllable placed regardless of its dictionary stress.
	Lenient bool
}

func (w Word) String() string { return w.Spelling + ": " + w.Stress }

// Line is an ordered sequence of words being built towards a target meter.
// Words are always kept in reading order, whatever the construction direction.
type Line struct {
	Words     []Word
	Direction Direction
	Target    Meter
}

// NewLine returns an empty line for target built in direction dir.
func NewLine(target Meter, dir Direction) *Line {
	return &Line{Direction: dir, Target: target}
}

// Consumed returns the number of target syllables covered by the words.
func (l *Line) Consumed() int {
	n := 0
	for _, w := range l.Words {
		n += len(w.Stress)
	}
	return n
}

// Remaining returns the part of the target not yet covered, taken from the open
// end: the tail for forward lines, the head for backward lines.
func (l *Line) Remaining() Meter {
	c := l.Consumed()
	if c >= len(l.Target) {
		return ""
	}
	if l.Direction == Backward {
		return l.Target[:len(l.Target)-c]
	}
	return l.Target[c:]
}

// Complete reports whether the words cover the target exactly.
func (l *Line) Complete() bool {
	return len(l.Words) > 0 && l.Consumed() == len(l.Target)
}

// Open returns the spelling at the growing end of the line, or "" if empty.
func (l *Line) Open() string {
	if len(l.Words) == 0 {
		return ""
	}
	if l.Direction == Backward {
		return l.Words[0].Spelling
	}
	return l.Words[len(l.Words)-1].Spelling
}

// Last returns the final word of the line in reading order.
func (l *Line) Last() Word {
	if len(l.Words) == 0 {
		return Word{}
	}
	return l.Words[len(l.Words)-1]
}

// Extend returns a copy of the line with w added at the open end.
// The receiver is not modified.
func (l *Line) Extend(w Word) *Line {
	words := make([]Word, 0, len(l.Words)+1)
	if l.Direction == Backward {
		words = append(words, w)
		words = append(words, l.Words...)
	} else {
		words = append(words, l.Words...)
		words = append(words, w)
	}
	return &Line{Words: words, Direction: l.Direction, Target: l.Target}
}

// Stress returns the concatenated stress of the words in reading order.
func (l *Line) Stress() string {
	var b strings.Builder
	for _, w := range l.Words {
		b.WriteString(w.Stress)
	}
	return b.String()
}

// Spellings returns the words' spellings in reading order.
func (l *Line) Spellings() []string {
	out := make([]string, len(l.Words))
	for i, w := range l.Words {
		out[i] = w.Spelling
	}
	return out
}

// Text joins the spellings with single spaces and capitalizes the first letter.
func (l *Line) Text() string {
	s := strings.Join(l.Spellings(), " ")
	for i, r := range s {
		return s[:i] + string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}
