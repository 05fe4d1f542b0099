// Package server exposes scraping, enrichment, export and contact operations
// over HTTP.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/cost"
	"github.com/sells-group/prospector/internal/enrich"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/scrape"
	"github.com/sells-group/prospector/internal/store"
	"github.com/sells-group/prospector/pkg/apollo"
)

// SessionHeader scopes stored candidates, batches and credits.
const SessionHeader = "X-Session-ID"

// Enricher runs a candidate batch.
type Enricher interface {
	Run(ctx context.Context, cands []model.Candidate, sink enrich.Sink) ([]model.EnrichedCompany, error)
}

// ContactSearcher finds contacts at a domain.
type ContactSearcher interface {
	Search(ctx context.Context, domain string) ([]model.Contact, error)
}

// ContactRevealer reveals contact details.
type ContactRevealer interface {
	Reveal(ctx context.Context, session, personID string, wantEmail, wantPhone bool) (*model.Reveal, error)
}

// Services are the provider-backed operations bound to one API key.
type Services struct {
	API      apollo.Client
	Enricher Enricher
	Searcher ContactSearcher
	Revealer ContactRevealer
}

// Options configures a Server.
type Options struct {
	Keys        *config.KeyHolder
	Store       store.Store
	Scraper     scrape.Supplier
	Ledger      *cost.Ledger
	CORSOrigins []string

	// NewServices builds the provider-backed services for an API key. It is
	// called once per distinct key.
	NewServices func(key string) Services

	// Now defaults to time.Now; used for export filenames.
	Now func() time.Time
}

// Server holds HTTP handler state.
type Server struct {
	keys        *config.KeyHolder
	store       store.Store
	scraper     scrape.Supplier
	ledger      *cost.Ledger
	corsOrigins []string
	newServices func(key string) Services
	now         func() time.Time

	mu       sync.Mutex
	services map[string]Services
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		keys:        opts.Keys,
		store:       opts.Store,
		scraper:     opts.Scraper,
		ledger:      opts.Ledger,
		corsOrigins: opts.CORSOrigins,
		newServices: opts.NewServices,
		now:         opts.Now,
		services:    make(map[string]Services),
	}
	if s.keys == nil {
		s.keys = config.NewKeyHolder("")
	}
	if s.ledger == nil {
		s.ledger = cost.NewLedger(cost.NewCalculator(cost.DefaultRates()))
	}
	if s.now == nil {
		s.now = time.Now
	}
	if len(s.corsOrigins) == 0 {
		s.corsOrigins = []string{"*"}
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader},
		ExposedHeaders: []string{"Content-Disposition", SessionHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Post("/config/api-key", s.handleSetAPIKey)
		r.Post("/config/test-key", s.handleTestKey)

		r.Get("/scrape", s.handleScrape)
		r.Get("/candidates", s.handleCandidates)
		r.Post("/enrich", s.handleEnrich)
		r.Get("/export", s.handleExport)

		r.Route("/people", func(r chi.Router) {
			r.Post("/search", s.handlePeopleSearch)
			r.Post("/enrich", s.handlePeopleEnrich)
			r.Post("/export", s.handlePeopleExport)
			r.Get("/credits", s.handleCredits)
		})
	})

	return r
}

// servicesFor returns the cached services for key, building them on first use.
func (s *Server) servicesFor(key string) Services {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc, ok := s.services[key]; ok {
		return svc
	}
	svc := s.newServices(key)
	s.services[key] = svc
	zap.L().Debug("server: built provider services", zap.String("key", apollo.RedactKey(key)))
	return svc
}

func session(r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		return id
	}
	return store.DefaultSession
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
