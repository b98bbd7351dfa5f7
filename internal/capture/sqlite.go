package capture

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// Store persists captures in SQLite.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS captures (
    id TEXT PRIMARY KEY,
    provider TEXT NOT NULL,
    model TEXT,
    prompt TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fragment_count INTEGER NOT NULL DEFAULT 0,
    bytes INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS fragments (
    capture_id TEXT NOT NULL REFERENCES captures(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    text TEXT NOT NULL,
    PRIMARY KEY (capture_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_captures_created_at ON captures(created_at DESC);
`

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens (creating if needed) the capture database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	s := &Store{db: db, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Debug("opened capture store", "path", path)
	return s, nil
}

// Save writes a capture and its fragments in one transaction.
func (s *Store) Save(ctx context.Context, c *Capture, fragments []string) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.Fragments = len(fragments)
	c.Bytes = 0
	for _, f := range fragments {
		c.Bytes += int64(len(f))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO captures (id, provider, model, prompt, created_at, fragment_count, bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Provider, nullString(c.Model), nullString(c.Prompt), c.CreatedAt, c.Fragments, c.Bytes)
	if err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO fragments (capture_id, sequence, text) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare fragment insert: %w", err)
	}
	defer stmt.Close()
	for i, f := range fragments {
		if _, err := stmt.ExecContext(ctx, c.ID, i, f); err != nil {
			return fmt.Errorf("insert fragment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveRecording stores everything a Recorder collected.
func (s *Store) SaveRecording(ctx context.Context, r *Recorder) error {
	return s.Save(ctx, &r.Capture, r.Fragments())
}

// resolveID expands a unique ID prefix to the full ID.
func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	prefix := stripWildcards(id)
	if prefix == "" {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM captures WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2",
		id, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("query capture id: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return "", fmt.Errorf("scan capture id: %w", err)
		}
		if m == id {
			return m, nil
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous capture id %q", id)
	}
}

// Get retrieves a capture by ID or unique ID prefix.
func (s *Store) Get(ctx context.Context, id string) (*Capture, error) {
	full, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, model, prompt, created_at, fragment_count, bytes
		FROM captures WHERE id = ?`, full)

	var c Capture
	var model, prompt sql.NullString
	err = row.Scan(&c.ID, &c.Provider, &model, &prompt, &c.CreatedAt, &c.Fragments, &c.Bytes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan capture: %w", err)
	}
	c.Model = model.String
	c.Prompt = prompt.String
	return &c, nil
}

// Fragments returns a capture's fragments in recorded order.
func (s *Store) Fragments(ctx context.Context, id string) ([]string, error) {
	full, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT text FROM fragments WHERE capture_id = ? ORDER BY sequence", full)
	if err != nil {
		return nil, fmt.Errorf("query fragments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// List returns the most recent captures, newest first. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Capture, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, model, prompt, created_at, fragment_count, bytes
		FROM captures ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var results []Capture
	for rows.Next() {
		var c Capture
		var model, prompt sql.NullString
		if err := rows.Scan(&c.ID, &c.Provider, &model, &prompt, &c.CreatedAt, &c.Fragments, &c.Bytes); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		c.Model = model.String
		c.Prompt = prompt.String
		results = append(results, c)
	}
	return results, rows.Err()
}

// Delete removes a capture and its fragments.
func (s *Store) Delete(ctx context.Context, id string) error {
	full, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}
	// Foreign key cascade handles fragments
	result, err := s.db.ExecContext(ctx, "DELETE FROM captures WHERE id = ?", full)
	if err != nil {
		return fmt.Errorf("delete capture: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stripWildcards(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
