package phonetic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// Dict is an in-memory pronouncing dictionary in the CMU format.
// Words are stored lowercased; each word keeps its pronunciations in file order.
type Dict struct {
	mu sync.RWMutex
	// Key: lowercase word, Value: phone strings, e.g. "K AH0 M P EH1 R"
	entries map[string][]string
	// Key: rhyming part, Value: words having a pronunciation with that rhyming part
	rhymes map[string][]string
}

// NewDict returns an empty dictionary. Use Add to populate it.
func NewDict() *Dict {
	return &Dict{
		entries: make(map[string][]string),
		rhymes:  make(map[string][]string),
	}
}

// Load reads a dictionary file from disk.
func Load(path string) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// Parse reads CMU dictionary lines. Both the classic upper-case layout
// ("WORD(2)  W ER1 D" with ";;;" comments) and the lowercase cmudict.dict
// layout ("word(2) w er1 d # note") are accepted.
func Parse(r io.Reader) (*Dict, error) {
	d := NewDict()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";;;") || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, " #"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected word and phones, got %q", lineNo, line)
		}
		d.Add(baseWord(fields[0]), strings.Join(fields[1:], " "))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// baseWord strips the "(N)" variant marker and lowercases the spelling.
func baseWord(w string) string {
	if i := strings.IndexByte(w, '('); i > 0 && strings.HasSuffix(w, ")") {
		w = w[:i]
	}
	return strings.ToLower(w)
}

// Add records one pronunciation for word. Duplicate pronunciations are ignored.
func (d *Dict) Add(word, phones string) {
	word = strings.ToLower(strings.TrimSpace(word))
	phones = strings.ToUpper(strings.Join(strings.Fields(phones), " "))
	if word == "" || phones == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.entries[word] {
		if p == phones {
			return
		}
	}
	d.entries[word] = append(d.entries[word], phones)

	part := RhymingPart(phones)
	for _, w := range d.rhymes[part] {
		if w == word {
			return
		}
	}
	d.rhymes[part] = append(d.rhymes[part], word)
}

// Len returns the number of distinct words.
func (d *Dict) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Words returns all words in sorted order.
func (d *Dict) Words() []string {
	d.mu.RLock()
	out := make([]string, 0, len(d.entries))
	for w := range d.entries {
		out = append(out, w)
	}
	d.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Phones returns the recorded pronunciations of word, or nil if unknown.
func (d *Dict) Phones(word string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	src := d.entries[strings.ToLower(word)]
	if len(src) == 0 {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Stresses returns the raw stress digits ("0", "1", "2") of each pronunciation.
func (d *Dict) Stresses(word string) []string {
	phones := d.Phones(word)
	if len(phones) == 0 {
		return nil
	}
	out := make([]string, 0, len(phones))
	for _, p := range phones {
		out = append(out, Stresses(p))
	}
	return out
}

// Rhymes returns every other word sharing a rhyming part with any
// pronunciation of word, sorted.
func (d *Dict) Rhymes(word string) []string {
	word = strings.ToLower(word)
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, p := range d.entries[word] {
		for _, w := range d.rhymes[RhymingPart(p)] {
			if w == word {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

// Stresses extracts the stress digit of every vowel in a phone string.
// "K AH0 M P EH1 R" yields "01".
func Stresses(phones string) string {
	var b strings.Builder
	for _, r := range phones {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RhymingPart returns the phones from the last stressed (primary or secondary)
// vowel to the end. A pronunciation without such a vowel past the first phone
// is returned whole.
func RhymingPart(phones string) string {
	list := strings.Fields(phones)
	for i := len(list) - 1; i > 0; i-- {
		last := list[i][len(list[i])-1]
		if last == '1' || last == '2' {
			return strings.Join(list[i:], " ")
		}
	}
	return strings.Join(list, " ")
}
