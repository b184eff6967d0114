package db

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/japaniel/versegen/pkg/phonetic"
)

// ImportPronunciations copies every pronunciation of dict into the
// pronunciations table inside a single transaction. Existing rows for the
// same word and variant are replaced. It returns the number of rows written.
func ImportPronunciations(conn *sql.DB, dict *phonetic.Dict, logger *log.Logger) (int, error) {
	tx, err := conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO pronunciations (word, variant, phones, stresses, rhyme_part)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(word, variant) DO UPDATE SET
			phones = excluded.phones,
			stresses = excluded.stresses,
			rhyme_part = excluded.rhyme_part`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	count := 0
	words := dict.Words()
	for i, w := range words {
		for variant, phones := range dict.Phones(w) {
			if _, err := stmt.Exec(w, variant, phones, phonetic.Stresses(phones), phonetic.RhymingPart(phones)); err != nil {
				return count, fmt.Errorf("insert pronunciation %q: %w", w, err)
			}
			count++
		}
		if logger != nil && (i+1)%20000 == 0 {
			logger.Printf("Imported %d/%d words...", i+1, len(words))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return count, nil
}

// GetPronunciations returns the stored pronunciations of word in variant order.
func GetPronunciations(db DBExecutor, word string) ([]Pronunciation, error) {
	rows, err := db.Query(`SELECT word, variant, phones, stresses, rhyme_part
		FROM pronunciations WHERE word = ? ORDER BY variant`, word)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Pronunciation
	for rows.Next() {
		var p Pronunciation
		if err := rows.Scan(&p.Word, &p.Variant, &p.Phones, &p.Stresses, &p.RhymePart); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPronunciations returns the number of distinct words in the table.
func CountPronunciations(db DBExecutor) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(DISTINCT word) FROM pronunciations`).Scan(&n)
	return n, err
}
