// Package history keeps scored resume and job pairs in a local SQLite file.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultDir  = ".ats-scorer"
	defaultFile = "history.db"
)

// Record is one stored score. Source is the job URL, file path or "-".
type Record struct {
	ID           int64
	Source       string
	Resume       string
	Title        string
	Company      string
	Score        float64
	KeywordScore float64
	FormatScore  float64
	Friendly     bool
	Missing      []string
	CreatedAt    time.Time
}

// Query narrows List results. Zero values mean no restriction.
type Query struct {
	MinScore float64
	Limit    int
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns ~/.ats-scorer/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, defaultDir, defaultFile), nil
}

// Open opens or creates the history database at path. An empty path selects DefaultPath.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("history: mkdir %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS scores (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		source        TEXT NOT NULL,
		resume        TEXT NOT NULL,
		title         TEXT,
		company       TEXT,
		score         REAL NOT NULL,
		keyword_score REAL NOT NULL,
		format_score  REAL NOT NULL,
		friendly      INTEGER NOT NULL,
		missing       TEXT,
		created_at    INTEGER NOT NULL,
		UNIQUE(source, resume)
	)`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a record or replaces the earlier score of the same source and resume.
func (s *Store) Save(ctx context.Context, r Record) error {
	if strings.TrimSpace(r.Source) == "" {
		return errors.New("history: source is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}

	missing, err := json.Marshal(r.Missing)
	if err != nil {
		return fmt.Errorf("history: encoding missing keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scores (source, resume, title, company, score, keyword_score, format_score, friendly, missing, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, resume) DO UPDATE SET
			title = excluded.title,
			company = excluded.company,
			score = excluded.score,
			keyword_score = excluded.keyword_score,
			format_score = excluded.format_score,
			friendly = excluded.friendly,
			missing = excluded.missing,
			created_at = excluded.created_at
	`, r.Source, r.Resume, r.Title, r.Company, r.Score, r.KeywordScore, r.FormatScore, r.Friendly, string(missing), r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("history: save %q: %w", r.Source, err)
	}
	return nil
}

// List returns stored records, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	query := `SELECT id, source, resume, title, company, score, keyword_score, format_score, friendly, missing, created_at
		FROM scores WHERE score >= ? ORDER BY created_at DESC, id DESC`
	args := []any{q.MinScore}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			title     sql.NullString
			company   sql.NullString
			missing   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Resume, &title, &company, &r.Score,
			&r.KeywordScore, &r.FormatScore, &r.Friendly, &missing, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.Title = title.String
		r.Company = company.String
		r.CreatedAt = time.Unix(createdAt, 0)
		if missing.Valid && missing.String != "" {
			if err := json.Unmarshal([]byte(missing.String), &r.Missing); err != nil {
				return nil, fmt.Errorf("history: decoding missing keywords of %q: %w", r.Source, err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Seen reports for every source whether any resume was scored against it.
func (s *Store) Seen(ctx context.Context, sources []string) (map[string]bool, error) {
	seen := make(map[string]bool, len(sources))
	if len(sources) == 0 {
		return seen, nil
	}

	args := make([]any, len(sources))
	for i, source := range sources {
		seen[source] = false
		args[i] = source
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sources)), ",")
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT source FROM scores WHERE source IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("history: seen: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		seen[source] = true
	}
	return seen, rows.Err()
}
