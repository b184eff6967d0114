// Package corpus turns raw text, HTML articles and files into the lowercase
// alphabetic token streams the successor model is built from.
package corpus

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Tokenizer segments text into lowercase alphabetic words.
//
// Segmentation is done by kagome; runs of Latin letters come back as unknown
// words which are re-joined when they touch, so a word is never split by the
// dictionary lattice. Digits, punctuation and other scripts are dropped.
type Tokenizer struct {
	t *tokenizer.Tokenizer
}

// NewTokenizer creates a tokenizer instance. It is safe for concurrent use.
func NewTokenizer() (*Tokenizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Tokenizer{t: t}, nil
}

// Tokenize returns the words of text in order.
func (tz *Tokenizer) Tokenize(text string) []string {
	var out []string
	var cur strings.Builder
	lastEnd := -1

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, tok := range tz.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if !isAlpha(tok.Surface) {
			flush()
			lastEnd = -1
			continue
		}
		if tok.Start != lastEnd {
			flush()
		}
		cur.WriteString(strings.ToLower(tok.Surface))
		lastEnd = tok.End
	}
	flush()
	return out
}

// isAlpha reports whether s is non-empty and made of ASCII letters only.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
