package enrich

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/scorer"
	"github.com/sells-group/prospector/pkg/apollo"
)

// recorder collects emitted events and sleep calls.
type recorder struct {
	mu     sync.Mutex
	events []Event
	sleeps []time.Duration
}

func (r *recorder) sink(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recorder) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

func newTestOrchestrator(res Resolver, lk *mockLookup, rec *recorder) *Orchestrator {
	return NewOrchestrator(res, lk, scorer.New(scorer.DefaultRubric()), WithSleep(rec.sleep))
}

func org(name, domain string) *model.Organization {
	return &model.Organization{
		Name:                  name,
		PrimaryDomain:         domain,
		Industry:              "Computer Software",
		EstimatedNumEmployees: 300,
	}
}

func scraped(domain string) model.ResolvedIdentity {
	return model.ResolvedIdentity{Domain: domain, Source: model.SourceScraped}
}

func TestRun_EmitsOrderedEvents(t *testing.T) {
	t.Parallel()

	cands := []model.Candidate{
		{Company: "Acme", Domain: "acme.com", Title: "CSM"},
		{Company: "Globex", Domain: "globex.com", Title: "Onboarding Specialist"},
		{Company: "Initech", Domain: "initech.com", Title: "Solutions Architect"},
	}

	res := &mockResolver{}
	lk := &mockLookup{}
	for _, c := range cands {
		res.On("Resolve", mock.Anything, c.Company, c.Domain).Return(scraped(c.Domain), nil)
		lk.On("EnrichByDomain", mock.Anything, c.Domain).Return(org(c.Company+" Inc", c.Domain), nil)
	}

	rec := &recorder{}
	results, err := newTestOrchestrator(res, lk, rec).Run(context.Background(), cands, rec.sink)
	require.NoError(t, err)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, cands[i].Company, r.CompanyName)
		assert.Equal(t, model.StatusSuccess, r.EnrichmentStatus)
		assert.Equal(t, model.SourceScraped, r.DomainSource)
		assert.Len(t, r.ICPBreakdown, 7)
		assert.Positive(t, r.ICPScore)
	}

	assert.Equal(t, []EventType{
		EventProgress, EventCompanyDone,
		EventProgress, EventCompanyDone,
		EventProgress, EventCompanyDone,
		EventComplete,
	}, rec.types())

	p := rec.events[2].(Progress)
	assert.Equal(t, 2, p.Current)
	assert.Equal(t, 1, p.Index)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, "Globex", p.Company)
	assert.Equal(t, StreamEnriching, p.Status)

	done := rec.events[1].(CompanyDone)
	assert.Equal(t, StreamComplete, done.Status)
	assert.Equal(t, "Acme Inc", done.Data.MatchedName)

	complete := rec.events[6].(Complete)
	assert.Equal(t, 3, complete.Total)
	assert.Equal(t, 3, complete.Successful)
	assert.Zero(t, complete.Failed)
	assert.Empty(t, complete.Error)
	assert.Len(t, complete.Results, 3)

	// One inter-request delay per enrichment call.
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond, 1500 * time.Millisecond}, rec.sleeps)
}

func TestRun_UnauthorizedAbortsBatch(t *testing.T) {
	t.Parallel()

	cands := []model.Candidate{
		{Company: "Acme", Domain: "acme.com"},
		{Company: "Globex", Domain: "globex.com"},
		{Company: "Initech", Domain: "initech.com"},
	}

	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Acme", "acme.com").Return(scraped("acme.com"), nil)
	res.On("Resolve", mock.Anything, "Globex", "globex.com").Return(scraped("globex.com"), nil)

	lk := &mockLookup{}
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(org("Acme", "acme.com"), nil)
	lk.On("EnrichByDomain", mock.Anything, "globex.com").Return(nil, apollo.ErrUnauthorized)

	rec := &recorder{}
	results, err := newTestOrchestrator(res, lk, rec).Run(context.Background(), cands, rec.sink)
	require.ErrorIs(t, err, ErrInvalidKey)

	require.Len(t, results, 3)
	assert.Equal(t, model.StatusSuccess, results[0].EnrichmentStatus)
	for _, r := range results[1:] {
		assert.Equal(t, model.StatusFailed, r.EnrichmentStatus)
		assert.Equal(t, MsgInvalidKey, r.Error)
	}

	// No progress event after the fatal candidate's own.
	assert.Equal(t, []EventType{
		EventProgress, EventCompanyDone,
		EventProgress, EventCompanyDone,
		EventCompanyDone,
		EventComplete,
	}, rec.types())

	last := rec.events[4].(CompanyDone)
	assert.Equal(t, "Initech", last.Company)
	assert.Equal(t, 2, last.Index)
	assert.Equal(t, StreamFailed, last.Status)

	complete := rec.events[5].(Complete)
	assert.Equal(t, MsgInvalidKey, complete.Error)
	assert.Equal(t, 1, complete.Successful)
	assert.Equal(t, 2, complete.Failed)

	res.AssertNotCalled(t, "Resolve", mock.Anything, "Initech", mock.Anything)
	lk.AssertNumberOfCalls(t, "EnrichByDomain", 2)
}

func TestRun_UnauthorizedDuringResolution(t *testing.T) {
	t.Parallel()

	cands := []model.Candidate{{Company: "Acme"}, {Company: "Globex"}}
	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Acme", "").Return(model.ResolvedIdentity{Source: model.SourceFailed}, apollo.ErrUnauthorized)

	rec := &recorder{}
	results, err := newTestOrchestrator(res, &mockLookup{}, rec).Run(context.Background(), cands, rec.sink)
	require.ErrorIs(t, err, ErrInvalidKey)
	require.Len(t, results, 2)
	assert.Equal(t, model.StatusFailed, results[0].EnrichmentStatus)
	assert.Equal(t, model.StatusFailed, results[1].EnrichmentStatus)
}

func TestRun_RateLimitedGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Acme", "acme.com").Return(scraped("acme.com"), nil)
	lk := &mockLookup{}
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(nil, apollo.ErrRateLimited)

	rec := &recorder{}
	results, err := newTestOrchestrator(res, lk, rec).Run(context.Background(), []model.Candidate{{Company: "Acme", Domain: "acme.com"}}, rec.sink)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, model.StatusNotFound, results[0].EnrichmentStatus)
	assert.Equal(t, "rate limited by enrichment provider after 2 retries", results[0].Error)
	lk.AssertNumberOfCalls(t, "EnrichByDomain", 3)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 2 * time.Second, 4 * time.Second}, rec.sleeps)

	complete := rec.events[len(rec.events)-1].(Complete)
	assert.Zero(t, complete.Failed, "not_found is not counted as failed")
}

func TestRun_RateLimitedThenSucceeds(t *testing.T) {
	t.Parallel()

	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Acme", "acme.com").Return(scraped("acme.com"), nil)
	lk := &mockLookup{}
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(nil, apollo.ErrRateLimited).Once()
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(org("Acme", "acme.com"), nil).Once()

	rec := &recorder{}
	results, err := newTestOrchestrator(res, lk, rec).Run(context.Background(), []model.Candidate{{Company: "Acme", Domain: "acme.com"}}, rec.sink)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, results[0].EnrichmentStatus)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 2 * time.Second}, rec.sleeps)
}

func TestRun_GuessValidatedReusesOrganization(t *testing.T) {
	t.Parallel()

	o := org("Haddock Inc", "haddock.io")
	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Haddock", "").Return(model.ResolvedIdentity{
		Domain:       "haddock.io",
		Source:       model.SourceGuessValidated,
		MatchedName:  "Haddock Inc",
		Organization: o,
	}, nil)
	lk := &mockLookup{}

	rec := &recorder{}
	results, err := newTestOrchestrator(res, lk, rec).Run(context.Background(), []model.Candidate{{Company: "Haddock"}}, rec.sink)
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, results[0].EnrichmentStatus)
	assert.Equal(t, "haddock.io", results[0].Domain)
	assert.Equal(t, model.SourceGuessValidated, results[0].DomainSource)
	assert.Empty(t, rec.sleeps)
	lk.AssertNotCalled(t, "EnrichByDomain", mock.Anything, mock.Anything)
}

func TestRun_NameMismatchIsNotFound(t *testing.T) {
	t.Parallel()

	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Acme", "").Return(model.ResolvedIdentity{
		Domain: "acme.com", Source: model.SourceProviderSearch, MatchedName: "Acme",
	}, nil)
	lk := &mockLookup{}
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(org("Globex", "acme.com"), nil)

	rec := &recorder{}
	results, err := newTestOrchestrator(res, lk, rec).Run(context.Background(), []model.Candidate{{Company: "Acme"}}, rec.sink)
	require.NoError(t, err)

	assert.Equal(t, model.StatusNotFound, results[0].EnrichmentStatus)
	assert.Equal(t, `enrichment returned data for "Globex" instead of "Acme"`, results[0].Error)
	assert.Zero(t, results[0].ICPScore)
	assert.Empty(t, results[0].ICPBreakdown)

	done := rec.events[1].(CompanyDone)
	assert.Equal(t, StreamFailed, done.Status)
	assert.Equal(t, results[0].Error, done.Error)
}

func TestRun_UnresolvedAndEmptyOrganization(t *testing.T) {
	t.Parallel()

	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Ghost", "").Return(model.ResolvedIdentity{Source: model.SourceFailed}, nil)
	res.On("Resolve", mock.Anything, "Acme", "acme.com").Return(scraped("acme.com"), nil)
	lk := &mockLookup{}
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(nil, nil)

	rec := &recorder{}
	results, err := newTestOrchestrator(res, lk, rec).Run(context.Background(), []model.Candidate{
		{Company: "Ghost"},
		{Company: "Acme", Domain: "acme.com"},
	}, rec.sink)
	require.NoError(t, err)

	assert.Equal(t, model.StatusNotFound, results[0].EnrichmentStatus)
	assert.Equal(t, MsgUnresolved, results[0].Error)
	assert.Empty(t, results[0].Domain)

	assert.Equal(t, model.StatusNotFound, results[1].EnrichmentStatus)
	assert.Equal(t, MsgNoData, results[1].Error)
	assert.Equal(t, "acme.com", results[1].Domain)
}

func TestRun_CancelledMarksRemainingFailed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Acme", "acme.com").Return(scraped("acme.com"), nil)
	lk := &mockLookup{}
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(org("Acme", "acme.com"), nil).Run(func(mock.Arguments) {
		cancel()
	})

	rec := &recorder{}
	results, err := newTestOrchestrator(res, lk, rec).Run(ctx, []model.Candidate{
		{Company: "Acme", Domain: "acme.com"},
		{Company: "Globex", Domain: "globex.com"},
	}, rec.sink)
	require.ErrorIs(t, err, ErrCancelled)

	require.Len(t, results, 2)
	assert.Equal(t, model.StatusSuccess, results[0].EnrichmentStatus)
	assert.Equal(t, model.StatusFailed, results[1].EnrichmentStatus)
	assert.Equal(t, MsgBatchCancelled, results[1].Error)
	res.AssertNotCalled(t, "Resolve", mock.Anything, "Globex", mock.Anything)
}

func TestRun_EmptyBatch(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	results, err := newTestOrchestrator(&mockResolver{}, &mockLookup{}, rec).Run(context.Background(), nil, rec.sink)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, []EventType{EventComplete}, rec.types())
}

func TestRun_NilSink(t *testing.T) {
	t.Parallel()

	res := &mockResolver{}
	res.On("Resolve", mock.Anything, "Ghost", "").Return(model.ResolvedIdentity{Source: model.SourceFailed}, nil)

	results, err := NewOrchestrator(res, &mockLookup{}, scorer.New(scorer.DefaultRubric())).
		Run(context.Background(), []model.Candidate{{Company: "Ghost"}}, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEvents_JSONShape(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(newProgress(0, 2, "Acme"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"progress","current":1,"index":0,"total":2,"company":"Acme","status":"enriching"}`, string(b))

	rec := model.NewEnrichedCompany(model.Candidate{Company: "Acme"})
	rec.Fail(model.StatusFailed, MsgInvalidKey)
	b, err = json.Marshal(newCompanyDone(1, 2, rec))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "company_done", m["type"])
	assert.Equal(t, "failed", m["status"])
	assert.Equal(t, MsgInvalidKey, m["error"])
	assert.Contains(t, m, "data")

	b, err = json.Marshal(newComplete([]model.EnrichedCompany{rec}, ""))
	require.NoError(t, err)
	m = map[string]any{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "complete", m["type"])
	assert.EqualValues(t, 1, m["failed"])
	assert.NotContains(t, m, "error")
}
