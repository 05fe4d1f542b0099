// Package enrich runs candidate batches through resolution, enrichment and
// ICP scoring, emitting an ordered progress stream.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/match"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/provider"
	"github.com/sells-group/prospector/internal/resilience"
	"github.com/sells-group/prospector/internal/scorer"
)

// Error messages recorded on terminal records.
const (
	MsgUnresolved      = "could not resolve domain for this company"
	MsgNoData          = "enrichment returned no data for this domain"
	MsgInvalidKey      = "invalid enrichment provider API key"
	MsgBatchCancelled  = "batch cancelled"
	msgRateLimitedTmpl = "rate limited by enrichment provider after %d retries"
)

var (
	// ErrInvalidKey is returned by Run when the provider rejected the credential.
	ErrInvalidKey = eris.New(MsgInvalidKey)
	// ErrCancelled is returned by Run when the context ended mid-batch.
	ErrCancelled = eris.New(MsgBatchCancelled)
)

// Resolver maps a company name to a domain.
type Resolver interface {
	Resolve(ctx context.Context, companyName, knownDomain string) (model.ResolvedIdentity, error)
}

// Scorer rates an organization.
type Scorer interface {
	Score(org *model.Organization, jobTitle string) scorer.Result
}

// Orchestrator processes one batch at a time, strictly sequentially.
type Orchestrator struct {
	resolver   Resolver
	lookup     provider.Lookup
	scorer     Scorer
	delay      time.Duration
	maxRetries int
	backoff    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInterRequestDelay sets the pause before each enrichment call.
func WithInterRequestDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithRateLimitRetry sets the retry budget and base backoff for rate-limited
// enrichment calls.
func WithRateLimitRetry(maxRetries int, base time.Duration) Option {
	return func(o *Orchestrator) {
		if maxRetries >= 0 {
			o.maxRetries = maxRetries
		}
		if base > 0 {
			o.backoff = base
		}
	}
}

// WithSleep replaces the context-aware sleep used for delays and backoff.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(resolver Resolver, lookup provider.Lookup, sc Scorer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:   resolver,
		lookup:     lookup,
		scorer:     sc,
		delay:      1500 * time.Millisecond,
		maxRetries: 2,
		backoff:    2 * time.Second,
		sleep:      resilience.SleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run enriches cands in order and returns one record per candidate, in input
// order. Events go to sink, which may be nil.
//
// An invalid credential aborts the batch: the offending candidate and all
// later ones are recorded as failed and ErrInvalidKey is returned. A done
// context does the same with ErrCancelled. Every other failure is absorbed
// into that candidate's record.
func (o *Orchestrator) Run(ctx context.Context, cands []model.Candidate, sink Sink) ([]model.EnrichedCompany, error) {
	if sink == nil {
		sink = func(Event) {}
	}
	total := len(cands)
	results := make([]model.EnrichedCompany, 0, total)
	start := time.Now()

	for i, c := range cands {
		if ctx.Err() != nil {
			return o.abort(cands, i, results, sink, ErrCancelled, MsgBatchCancelled)
		}

		sink(newProgress(i, total, c.Company))

		rec, err := o.enrichOne(ctx, c)
		switch {
		case err == nil:
		case provider.IsFatal(err):
			return o.abort(cands, i, results, sink, ErrInvalidKey, MsgInvalidKey)
		case ctx.Err() != nil:
			return o.abort(cands, i, results, sink, ErrCancelled, MsgBatchCancelled)
		default:
			rec.Fail(model.StatusFailed, err.Error())
		}

		results = append(results, rec)
		sink(newCompanyDone(i, total, rec))
	}

	zap.L().Info("enrich: batch complete",
		zap.Int("total", total),
		zap.Int("successful", model.CountStatus(results, model.StatusSuccess)),
		zap.Int("not_found", model.CountStatus(results, model.StatusNotFound)),
		zap.Int("failed", model.CountStatus(results, model.StatusFailed)),
		zap.Duration("elapsed", time.Since(start)),
	)
	sink(newComplete(results, ""))
	return results, nil
}

// abort marks candidates from index from onwards as failed with msg and
// closes the stream. No further progress events are emitted.
func (o *Orchestrator) abort(cands []model.Candidate, from int, results []model.EnrichedCompany, sink Sink, cause error, msg string) ([]model.EnrichedCompany, error) {
	total := len(cands)
	zap.L().Error("enrich: batch aborted",
		zap.String("reason", msg),
		zap.Int("processed", from),
		zap.Int("total", total),
	)

	for i := from; i < total; i++ {
		rec := model.NewEnrichedCompany(cands[i])
		rec.Fail(model.StatusFailed, msg)
		results = append(results, rec)
		sink(newCompanyDone(i, total, rec))
	}
	sink(newComplete(results, msg))
	return results, cause
}

// enrichOne drives a single candidate to a terminal record. It returns an
// error only for an invalid credential or a done context.
func (o *Orchestrator) enrichOne(ctx context.Context, c model.Candidate) (model.EnrichedCompany, error) {
	log := zap.L().With(zap.String("company", c.Company))
	rec := model.NewEnrichedCompany(c)

	id, err := o.resolver.Resolve(ctx, c.Company, c.Domain)
	if err != nil {
		return rec, err
	}
	if !id.Resolved() {
		rec.DomainSource = model.SourceFailed
		rec.Fail(model.StatusNotFound, MsgUnresolved)
		log.Info("enrich: not found", zap.String("reason", rec.Error))
		return rec, nil
	}
	rec.Domain = id.Domain
	rec.DomainSource = id.Source

	org := id.Organization
	if id.Source != model.SourceGuessValidated || org == nil {
		if err := o.sleep(ctx, o.delay); err != nil {
			return rec, err
		}
		org, err = o.fetch(ctx, id.Domain)
		if err != nil {
			if provider.IsRateLimited(err) {
				rec.Fail(model.StatusNotFound, fmt.Sprintf(msgRateLimitedTmpl, o.maxRetries))
				log.Warn("enrich: giving up after rate limiting", zap.String("domain", id.Domain))
				return rec, nil
			}
			if provider.IsFatal(err) || ctx.Err() != nil {
				return rec, err
			}
			rec.Fail(model.StatusNotFound, err.Error())
			return rec, nil
		}
	}

	if org == nil {
		rec.Fail(model.StatusNotFound, MsgNoData)
		log.Info("enrich: not found", zap.String("domain", id.Domain), zap.String("reason", rec.Error))
		return rec, nil
	}

	if id.Source != model.SourceGuessValidated && !match.Validate(c.Company, org.Name) {
		rec.Fail(model.StatusNotFound, fmt.Sprintf("enrichment returned data for %q instead of %q", org.Name, c.Company))
		log.Info("enrich: name mismatch", zap.String("matched", org.Name))
		return rec, nil
	}

	rec.ApplyOrganization(org)
	res := o.scorer.Score(org, c.Title)
	rec.ICPScore = res.Score
	rec.ICPRawScore = res.RawScore
	rec.ICPMaxScore = res.MaxScore
	rec.ICPBreakdown = res.Breakdown
	rec.EnrichmentStatus = model.StatusSuccess

	log.Info("enrich: success",
		zap.String("domain", rec.Domain),
		zap.String("matched", org.Name),
		zap.Int("icp_score", rec.ICPScore),
	)
	return rec, nil
}

// fetch calls domain enrichment, retrying rate-limited responses with
// doubling backoff.
func (o *Orchestrator) fetch(ctx context.Context, domain string) (*model.Organization, error) {
	cfg := resilience.RateLimitRetryConfig(o.maxRetries, o.backoff, provider.IsRateLimited)
	cfg.Sleep = o.sleep
	cfg.OnRetry = resilience.RetryLogger("apollo", "enrich_organization")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*model.Organization, error) {
		return o.lookup.EnrichByDomain(ctx, domain)
	})
}
