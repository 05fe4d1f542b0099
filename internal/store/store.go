// Package store keeps per-session scraped candidates and enrichment batches.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultSession scopes requests that carry no session identifier.
const DefaultSession = "default"

// Batch is the result list of one enrichment run.
type Batch struct {
	ID        string                  `json:"id"`
	Results   []model.EnrichedCompany `json:"results"`
	CreatedAt time.Time               `json:"created_at"`
}

// Store defines the persistence interface for sessions. Each session holds
// one candidate list and its latest batch, both overwritten wholesale.
type Store interface {
	// Candidates
	SaveCandidates(ctx context.Context, session string, cands []model.Candidate) error
	Candidates(ctx context.Context, session string) ([]model.Candidate, error)

	// Batches. SaveBatch fills in a missing ID and CreatedAt. LatestBatch
	// returns nil when the session has none.
	SaveBatch(ctx context.Context, session string, b Batch) (*Batch, error)
	LatestBatch(ctx context.Context, session string) (*Batch, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns a migrated Store for driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case "", DriverMemory:
		st = NewMemory()
	case DriverSQLite:
		st, err = NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func sessionKey(session string) string {
	if session == "" {
		return DefaultSession
	}
	return session
}
