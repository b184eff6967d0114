// Package db holds the SQL schema and queries for corpora, adjacency pairs,
// pronunciations and saved poems. Queries use SQLite syntax and run on both
// mattn/go-sqlite3 and libsql connections.
package db

import (
	"database/sql"
	_ "embed"
	"strings"
)

//go:embed schema.sql
var migrationsSQL string

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
