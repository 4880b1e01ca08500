// Package store persists workbook output two ways: human-facing
// artifact files (JSON plus a TXT summary per workbook) and a SQLite
// run history that records what each generation produced.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/obyrned/LLM-workbookAutomation/internal/workbook"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.workbook/workbook.db"

// Run is one recorded generation run.
type Run struct {
	ID         string
	Kind       string // "vocabulary" or "questions"
	SourceName string
	Outcome    string // "satisfied" or "exhausted"
	Requested  int
	Produced   int
	CreatedAt  time.Time
}

// Store records generation runs and their records.
type Store interface {
	SaveVocabRun(ctx context.Context, sourceName string, res *workbook.VocabResult) (string, error)
	SaveQuestionRun(ctx context.Context, sourceName string, res *workbook.QuestionResult) (string, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetVocabEntries(ctx context.Context, runID string) ([]workbook.VocabEntry, error)
	Close() error
}

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (and migrates) the database at dbPath.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = expandPath(DefaultDBPath)
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveVocabRun records a vocabulary run and its entries, returning the
// run ID.
func (s *SQLiteStore) SaveVocabRun(ctx context.Context, sourceName string, res *workbook.VocabResult) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, source_name, outcome, requested, produced, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, workbook.KindVocabulary, sourceName, string(res.Stats.Outcome),
		res.Requested, len(res.Entries), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for i, entry := range res.Entries {
		synonyms := ""
		if len(entry.Synonyms) > 0 {
			synonyms = joinSynonyms(entry.Synonyms)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO vocab_entries (run_id, position, word, quote, synonyms)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, i, entry.Word, entry.Quote, synonyms,
		)
		if err != nil {
			return "", fmt.Errorf("inserting vocab entry %q: %w", entry.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// SaveQuestionRun records a question run and its questions, returning
// the run ID. Requested and produced counts cover both kinds together.
func (s *SQLiteStore) SaveQuestionRun(ctx context.Context, sourceName string, res *workbook.QuestionResult) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, source_name, outcome, requested, produced, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, "questions", sourceName, string(res.Stats.Outcome),
		res.RequestedMC+res.RequestedTF, len(res.MC)+len(res.TF),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for i, q := range res.MC {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (run_id, position, kind, question, option_a, option_b, option_c, option_d, correct)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, workbook.KindMultipleChoice, q.Question,
			q.Options["A"], q.Options["B"], q.Options["C"], q.Options["D"], q.Correct,
		)
		if err != nil {
			return "", fmt.Errorf("inserting mc question: %w", err)
		}
	}
	for i, q := range res.TF {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (run_id, position, kind, question, correct)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, i, workbook.KindTrueFalse, q.Question, q.Correct,
		)
		if err != nil {
			return "", fmt.Errorf("inserting tf question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, source_name, outcome, requested, produced, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Kind, &r.SourceName, &r.Outcome, &r.Requested, &r.Produced, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// GetVocabEntries returns the vocabulary entries of a run in their
// original order.
func (s *SQLiteStore) GetVocabEntries(ctx context.Context, runID string) ([]workbook.VocabEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, quote, synonyms FROM vocab_entries
		 WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying vocab entries: %w", err)
	}
	defer rows.Close()

	var entries []workbook.VocabEntry
	for rows.Next() {
		var e workbook.VocabEntry
		var synonyms string
		if err := rows.Scan(&e.Word, &e.Quote, &synonyms); err != nil {
			return nil, fmt.Errorf("scanning vocab entry: %w", err)
		}
		if synonyms != "" {
			e.Synonyms = splitSynonyms(synonyms)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
