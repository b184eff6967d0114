package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/versegen/pkg/lexicon"
	"github.com/japaniel/versegen/pkg/verse"
)

func testMatcher() *Matcher {
	return NewMatcher(lexicon.New(lexicon.Static{
		"if":       {"0"},
		"i":        {"1"},
		"compare":  {"01"},
		"thee":     {"1"},
		"summer":   {"10"},
		"fire":     {"1", "10"},
		"abstract": {"01", "12"},
	}))
}

func TestMatchExactForward(t *testing.T) {
	m := testMatcher()
	got := m.Match("compare", "0101", verse.Forward)
	require.Equal(t, Exact, got.Kind)
	assert.Equal(t, "01", got.Word.Stress)
	assert.Equal(t, verse.Meter("01"), got.Remaining)
	assert.False(t, got.Word.Lenient)
}

func TestMatchExactBackward(t *testing.T) {
	m := testMatcher()
	got := m.Match("summer", "0110", verse.Backward)
	require.Equal(t, Exact, got.Kind)
	assert.Equal(t, verse.Meter("01"), got.Remaining)

	assert.Equal(t, NoMatch, m.Match("summer", "0110", verse.Forward).Kind)
}

func TestMonosyllableLeniency(t *testing.T) {
	m := testMatcher()
	for _, rem := range []verse.Meter{"0", "1", "01", "10"} {
		got := m.Match("thee", rem, verse.Forward)
		require.NotEqual(t, NoMatch, got.Kind, "thee against %q", rem)
		assert.Equal(t, string(rem[:1]), got.Word.Stress)
		assert.Equal(t, rem[1:], got.Remaining)
	}

	got := m.Match("thee", "10", verse.Forward)
	assert.Equal(t, Exact, got.Kind, "recorded stress matching is exact")
	got = m.Match("thee", "01", verse.Forward)
	assert.Equal(t, Lenient, got.Kind)
	assert.True(t, got.Word.Lenient)

	got = m.Match("if", "01", verse.Backward)
	require.Equal(t, Lenient, got.Kind)
	assert.Equal(t, "1", got.Word.Stress)
	assert.Equal(t, verse.Meter("0"), got.Remaining)
}

func TestMultisyllableNeverLenient(t *testing.T) {
	m := testMatcher()
	assert.Equal(t, NoMatch, m.Match("compare", "1010", verse.Forward).Kind)
	assert.Equal(t, NoMatch, m.Match("compare", "0", verse.Forward).Kind, "longer than remaining")
	assert.Equal(t, NoMatch, m.Match("summer", "01", verse.Forward).Kind)
}

func TestHomographVariants(t *testing.T) {
	m := testMatcher()
	got := m.Match("abstract", "11", verse.Forward)
	require.Equal(t, Exact, got.Kind, "folded secondary stress variant")
	assert.Equal(t, "11", got.Word.Stress)

	got = m.Match("fire", "10", verse.Forward)
	require.Equal(t, Exact, got.Kind)
	assert.Equal(t, "1", got.Word.Stress, "first fitting variant in lexicon order wins")
}

func TestUnknownWords(t *testing.T) {
	m := testMatcher()
	got := m.Match("zzz", "01", verse.Forward)
	assert.Equal(t, Lenient, got.Kind, "one-cluster guess takes one unit")
	assert.Equal(t, NoMatch, m.Match("flibbertigibbet", "0101", verse.Forward).Kind, "'?' never matches exactly")
}

func TestEmptyRemaining(t *testing.T) {
	assert.Equal(t, NoMatch, testMatcher().Match("thee", "", verse.Forward).Kind)
}

func TestPartition(t *testing.T) {
	m := testMatcher()
	exact, lenient := m.Partition([]string{"thee", "compare", "summer", "if", "i"}, "01", verse.Forward)
	var ex, lw []string
	for _, e := range exact {
		ex = append(ex, e.Word.Spelling)
	}
	for _, l := range lenient {
		lw = append(lw, l.Word.Spelling)
	}
	assert.Equal(t, []string{"compare", "if"}, ex)
	assert.Equal(t, []string{"thee", "i"}, lw)
}
