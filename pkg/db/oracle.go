package db

import (
	"log"
	"strings"

	"github.com/japaniel/versegen/pkg/phonetic"
)

// Oracle answers stress and rhyme lookups from the pronunciations table.
// Query errors are logged and reported as an unknown word.
type Oracle struct {
	DB     DBExecutor
	Logger *log.Logger
}

var _ phonetic.Oracle = (*Oracle)(nil)

// NewOracle returns an Oracle reading from db.
func NewOracle(db DBExecutor) *Oracle {
	return &Oracle{DB: db}
}

func (o *Oracle) Stresses(word string) []string {
	prons, err := GetPronunciations(o.DB, strings.ToLower(word))
	if err != nil {
		o.logf("stress lookup %q: %v", word, err)
		return nil
	}
	if len(prons) == 0 {
		return nil
	}
	out := make([]string, len(prons))
	for i, p := range prons {
		out[i] = p.Stresses
	}
	return out
}

func (o *Oracle) Rhymes(word string) []string {
	word = strings.ToLower(word)
	rows, err := o.DB.Query(`SELECT DISTINCT b.word FROM pronunciations a
		JOIN pronunciations b ON a.rhyme_part = b.rhyme_part
		WHERE a.word = ? AND b.word <> ?
		ORDER BY b.word`, word, word)
	if err != nil {
		o.logf("rhyme lookup %q: %v", word, err)
		return nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			o.logf("rhyme scan %q: %v", word, err)
			return nil
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		o.logf("rhyme rows %q: %v", word, err)
		return nil
	}
	return out
}

func (o *Oracle) logf(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
