package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/japaniel/versegen/pkg/db"
	"github.com/japaniel/versegen/pkg/model"
)

var remotePrefixes = []string{"libsql://", "https://", "http://", "wss://", "ws://"}

// DriverFor returns the database/sql driver name for a DSN. Remote libsql
// URLs use the libsql client, anything else is a local SQLite file.
func DriverFor(dsn string) string {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(dsn, p) {
			return "libsql"
		}
	}
	return "sqlite3"
}

// OpenSQL opens dsn with the matching driver and runs migrations.
func OpenSQL(dsn string) (*sql.DB, error) {
	driver := DriverFor(dsn)
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == "sqlite3" && strings.Contains(dsn, ":memory:") {
		// Each connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	if err := db.InitDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

// SQLStore keeps models in the bigrams table.
type SQLStore struct {
	DB *sql.DB
}

// NewSQLStore returns a store over an already migrated connection.
func NewSQLStore(conn *sql.DB) *SQLStore {
	return &SQLStore{DB: conn}
}

// Load returns the model of a completely ingested corpus.
func (s *SQLStore) Load(ctx context.Context, corpus string) (*model.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := db.GetCorpus(s.DB, corpus)
	if errors.Is(err, db.ErrCorpusNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, corpus)
	}
	if err != nil {
		return nil, err
	}
	if !c.Complete {
		return nil, fmt.Errorf("%w: %q is partially ingested", ErrModelNotFound, corpus)
	}
	pairs, err := db.LoadPairs(s.DB, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load pairs: %w", err)
	}
	return model.FromPairs(pairs), nil
}

// Save replaces any stored pairs for corpus with those of m.
func (s *SQLStore) Save(ctx context.Context, corpus string, m *model.Model) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback()

	id, err := db.CreateOrGetCorpus(tx, corpus)
	if err != nil {
		return err
	}
	if err := db.ResetCorpus(tx, id); err != nil {
		return fmt.Errorf("reset corpus: %w", err)
	}
	if err := db.AppendPairs(tx, id, 0, m.Pairs()); err != nil {
		return err
	}
	if err := db.MarkCorpusComplete(tx, id); err != nil {
		return fmt.Errorf("mark complete: %w", err)
	}
	return tx.Commit()
}
