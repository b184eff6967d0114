package verse

import "errors"

// Search outcomes a caller can recover from by retrying with another seed.
var (
	// ErrSearchExhausted means no candidate can extend or complete the line.
	ErrSearchExhausted = errors.New("search exhausted")
	// ErrNoRhyme means the rhyme target has no rhymes known to the model.
	ErrNoRhyme = errors.New("no rhyme available")
)

// Input errors. Retrying with the same arguments never helps.
var (
	// ErrInvalidMeter means a meter is empty or contains symbols other than 0 and 1.
	ErrInvalidMeter = errors.New("invalid meter pattern")
	// ErrEmptySeed means a search was started without a seed word.
	ErrEmptySeed = errors.New("empty seed word")
)

// IsRetryable reports whether err is a "no path" outcome rather than a
// programming or input error.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSearchExhausted) || errors.Is(err, ErrNoRhyme)
}
