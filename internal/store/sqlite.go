package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospector/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database. An in-memory DSN is pinned to a single
// connection so every query sees the same database.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS session_candidates (
	session    TEXT PRIMARY KEY,
	candidates TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS session_batches (
	session    TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	results    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_session_batches_id ON session_batches(id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveCandidates(ctx context.Context, session string, cands []model.Candidate) error {
	if cands == nil {
		cands = []model.Candidate{}
	}
	candsJSON, err := json.Marshal(cands)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal candidates")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_candidates (session, candidates, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session) DO UPDATE SET candidates = excluded.candidates, updated_at = excluded.updated_at`,
		sessionKey(session), string(candsJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save candidates for session %s", session)
}

func (s *SQLiteStore) Candidates(ctx context.Context, session string) ([]model.Candidate, error) {
	var candsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT candidates FROM session_candidates WHERE session = ?`,
		sessionKey(session),
	).Scan(&candsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get candidates")
	}

	var cands []model.Candidate
	if err := json.Unmarshal([]byte(candsJSON), &cands); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal candidates")
	}
	return cands, nil
}

func (s *SQLiteStore) SaveBatch(ctx context.Context, session string, b Batch) (*Batch, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.Results == nil {
		b.Results = []model.EnrichedCompany{}
	}

	resultsJSON, err := json.Marshal(b.Results)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal results")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_batches (session, id, results, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session) DO UPDATE SET id = excluded.id, results = excluded.results, created_at = excluded.created_at`,
		sessionKey(session), b.ID, string(resultsJSON), b.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: save batch %s", b.ID)
	}
	return &b, nil
}

func (s *SQLiteStore) LatestBatch(ctx context.Context, session string) (*Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, results, created_at FROM session_batches WHERE session = ?`,
		sessionKey(session),
	)
	return scanBatch(row)
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanBatch(row scannable) (*Batch, error) {
	var b Batch
	var resultsJSON string

	err := row.Scan(&b.ID, &resultsJSON, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan batch")
	}

	if err := json.Unmarshal([]byte(resultsJSON), &b.Results); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal results")
	}
	return &b, nil
}
