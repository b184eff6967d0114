// Package phonetic provides the pronouncing dictionary used to look up word
// stress patterns and rhymes.
package phonetic

// Oracle answers pronunciation questions about words. Implementations treat
// unknown words as a normal case and return nil rather than an error.
type Oracle interface {
	// Stresses returns one raw stress string per recorded pronunciation.
	Stresses(word string) []string
	// Rhymes returns the spellings that rhyme with word, excluding word itself.
	Rhymes(word string) []string
}

var _ Oracle = (*Dict)(nil)
