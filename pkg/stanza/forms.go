package stanza

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/japaniel/versegen/pkg/verse"
)

//go:embed forms.toml
var builtinForms []byte

// ErrUnknownForm is returned by Find when no form has the requested name.
var ErrUnknownForm = errors.New("unknown form")

// LineSpec is one line of a form.
type LineSpec struct {
	Meter verse.Meter `toml:"meter"`
	// Rhyme labels the line's rhyme group; lines with equal labels rhyme.
	Rhyme string `toml:"rhyme"`
}

// Form is a named sequence of lines.
type Form struct {
	Name        string     `toml:"name"`
	Description string     `toml:"description"`
	Lines       []LineSpec `toml:"line"`
}

type formsFile struct {
	Forms []Form `toml:"form"`
}

// Scheme returns the rhyme labels concatenated, e.g. "ABAB".
func (f Form) Scheme() string {
	var b strings.Builder
	for _, l := range f.Lines {
		b.WriteString(l.Rhyme)
	}
	return b.String()
}

// groupSizes counts the lines of each rhyme label.
func (f Form) groupSizes() map[string]int {
	out := make(map[string]int)
	for _, l := range f.Lines {
		out[l.Rhyme]++
	}
	return out
}

// rhymed reports whether any rhyme label is shared by two or more lines.
func (f Form) rhymed() bool {
	for _, n := range f.groupSizes() {
		if n > 1 {
			return true
		}
	}
	return false
}

// Validate checks that the form has lines, valid meters and rhyme labels.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("form has no name")
	}
	if len(f.Lines) == 0 {
		return fmt.Errorf("form %q has no lines", f.Name)
	}
	for i, l := range f.Lines {
		if err := l.Meter.Validate(); err != nil {
			return fmt.Errorf("form %q line %d: %w", f.Name, i+1, err)
		}
		if strings.TrimSpace(l.Rhyme) == "" {
			return fmt.Errorf("form %q line %d: missing rhyme label", f.Name, i+1)
		}
	}
	return nil
}

// ParseForms decodes and validates a TOML forms document.
func ParseForms(data []byte) ([]Form, error) {
	var file formsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode forms: %w", err)
	}
	seen := make(map[string]bool, len(file.Forms))
	for _, f := range file.Forms {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate form %q", f.Name)
		}
		seen[f.Name] = true
	}
	return file.Forms, nil
}

// Builtin returns the forms shipped with the package.
func Builtin() ([]Form, error) {
	return ParseForms(builtinForms)
}

// LoadForms reads forms from path, or returns the built-in forms when path is empty.
func LoadForms(path string) ([]Form, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	forms, err := ParseForms(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return forms, nil
}

// Find returns the form called name.
func Find(forms []Form, name string) (Form, error) {
	for _, f := range forms {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return Form{}, fmt.Errorf("%w: %q", ErrUnknownForm, name)
}
