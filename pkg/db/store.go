package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/japaniel/versegen/pkg/model"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// ErrCorpusNotFound is returned when no corpus row has the requested name.
var ErrCorpusNotFound = errors.New("corpus not found")

// CreateOrGetCorpus returns the id of the named corpus, inserting it if needed.
func CreateOrGetCorpus(db DBExecutor, name string) (int64, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return 0, fmt.Errorf("corpus name must be non-empty")
	}

	var id int64
	err := db.QueryRow(`INSERT INTO corpora (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET name = excluded.name
		RETURNING id`, trimmed).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert corpus: %w", err)
	}
	return id, nil
}

// GetCorpus returns the named corpus row or ErrCorpusNotFound.
func GetCorpus(db DBExecutor, name string) (Corpus, error) {
	var c Corpus
	var complete int
	var builtAt sql.NullTime
	err := db.QueryRow(`SELECT id, name, pair_count, last_processed_document, complete, built_at
		FROM corpora WHERE name = ?`, strings.TrimSpace(name)).
		Scan(&c.ID, &c.Name, &c.PairCount, &c.LastProcessedDocument, &complete, &builtAt)
	if err == sql.ErrNoRows {
		return Corpus{}, fmt.Errorf("%w: %q", ErrCorpusNotFound, name)
	}
	if err != nil {
		return Corpus{}, err
	}
	c.Complete = complete != 0
	if builtAt.Valid {
		c.BuiltAt = builtAt.Time
	}
	return c, nil
}

// GetCorpusProgress returns the last processed document index for a corpus.
func GetCorpusProgress(db DBExecutor, corpusID int64) (int, error) {
	var index int
	err := db.QueryRow("SELECT last_processed_document FROM corpora WHERE id = ?", corpusID).Scan(&index)
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateCorpusProgress checkpoints the last processed document index.
func UpdateCorpusProgress(db DBExecutor, corpusID int64, index int) error {
	_, err := db.Exec("UPDATE corpora SET last_processed_document = ? WHERE id = ?", index, corpusID)
	return err
}

// MarkCorpusComplete records that every document has been ingested.
func MarkCorpusComplete(db DBExecutor, corpusID int64) error {
	_, err := db.Exec(`UPDATE corpora SET complete = 1, built_at = ?,
		pair_count = (SELECT COUNT(*) FROM bigrams WHERE corpus_id = ?)
		WHERE id = ?`, time.Now().UTC(), corpusID, corpusID)
	return err
}

// ResetCorpus drops all pairs of a corpus and clears its progress.
func ResetCorpus(db DBExecutor, corpusID int64) error {
	if _, err := db.Exec(`DELETE FROM bigrams WHERE corpus_id = ?`, corpusID); err != nil {
		return err
	}
	_, err := db.Exec(`UPDATE corpora SET pair_count = 0, last_processed_document = -1, complete = 0, built_at = NULL
		WHERE id = ?`, corpusID)
	return err
}

// NextPairSeq returns the sequence number the next appended pair should use.
func NextPairSeq(db DBExecutor, corpusID int64) (int64, error) {
	var next int64
	err := db.QueryRow(`SELECT COALESCE(MAX(seq), -1) + 1 FROM bigrams WHERE corpus_id = ?`, corpusID).Scan(&next)
	return next, err
}

// AppendPairs stores pairs with consecutive sequence numbers starting at seq.
func AppendPairs(db DBExecutor, corpusID, seq int64, pairs []model.Pair) error {
	if corpusID <= 0 {
		return fmt.Errorf("corpusID must be positive")
	}
	for i, p := range pairs {
		if _, err := db.Exec(`INSERT INTO bigrams (corpus_id, seq, w1, w2) VALUES (?, ?, ?, ?)`,
			corpusID, seq+int64(i), p.Prev, p.Next); err != nil {
			return fmt.Errorf("insert pair %d: %w", seq+int64(i), err)
		}
	}
	return nil
}

// LoadPairs returns every pair of a corpus in corpus order.
func LoadPairs(db DBExecutor, corpusID int64) ([]model.Pair, error) {
	rows, err := db.Query(`SELECT w1, w2 FROM bigrams WHERE corpus_id = ? ORDER BY seq`, corpusID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Pair
	for rows.Next() {
		var p model.Pair
		if err := rows.Scan(&p.Prev, &p.Next); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SavePoem stores a composition and returns its generated id.
func SavePoem(db DBExecutor, form, corpus, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("poem body must be non-empty")
	}
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO poems (id, form, corpus, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, form, corpus, body, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert poem: %w", err)
	}
	return id, nil
}

// ListPoems returns the most recent poems, newest first.
func ListPoems(db DBExecutor, limit int) ([]Poem, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`SELECT id, form, corpus, body, created_at FROM poems ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Poem
	for rows.Next() {
		var p Poem
		if err := rows.Scan(&p.ID, &p.Form, &p.Corpus, &p.Body, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
