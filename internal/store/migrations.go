package store

import (
	"fmt"
	"strings"
)

// migrate creates all tables if they don't exist.
func (s *SQLiteStore) migrate() error {
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	source_name TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	requested   INTEGER NOT NULL,
	produced    INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vocab_entries (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	word     TEXT NOT NULL,
	quote    TEXT NOT NULL,
	synonyms TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS questions (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	question TEXT NOT NULL,
	option_a TEXT,
	option_b TEXT,
	option_c TEXT,
	option_d TEXT,
	correct  TEXT NOT NULL,
	PRIMARY KEY (run_id, kind, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Synonyms are stored as a single delimited column; the unit separator
// never occurs in backend output.
const synonymSep = "\x1f"

func joinSynonyms(syns []string) string {
	return strings.Join(syns, synonymSep)
}

func splitSynonyms(raw string) []string {
	return strings.Split(raw, synonymSep)
}
