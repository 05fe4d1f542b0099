package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/provider"
	"github.com/sells-group/prospector/pkg/apollo"
)

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) SearchByName(ctx context.Context, name string) (*provider.SearchMatch, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SearchMatch), args.Error(1)
}

func (m *mockLookup) EnrichByDomain(ctx context.Context, domain string) (*apollo.Organization, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apollo.Organization), args.Error(1)
}

func TestResolve_ScrapedDomainSkipsProvider(t *testing.T) {
	t.Parallel()

	lk := &mockLookup{}
	got, err := New(lk).Resolve(context.Background(), "Acme", " acme.com ")
	require.NoError(t, err)

	assert.Equal(t, model.ResolvedIdentity{Domain: "acme.com", Source: model.SourceScraped}, got)
	lk.AssertNotCalled(t, "SearchByName", mock.Anything, mock.Anything)
	lk.AssertNotCalled(t, "EnrichByDomain", mock.Anything, mock.Anything)
}

func TestResolve_NameSearch(t *testing.T) {
	t.Parallel()

	lk := &mockLookup{}
	lk.On("SearchByName", mock.Anything, "Acme").Return(&provider.SearchMatch{Domain: "acme.com", Name: "Acme Inc"}, nil)

	got, err := New(lk).Resolve(context.Background(), "Acme", "")
	require.NoError(t, err)

	assert.Equal(t, "acme.com", got.Domain)
	assert.Equal(t, model.SourceProviderSearch, got.Source)
	assert.Equal(t, "Acme Inc", got.MatchedName)
	lk.AssertNotCalled(t, "EnrichByDomain", mock.Anything, mock.Anything)
}

func TestResolve_GuessValidated(t *testing.T) {
	t.Parallel()

	org := &apollo.Organization{Name: "Haddock Inc", PrimaryDomain: "haddock.io"}
	lk := &mockLookup{}
	lk.On("SearchByName", mock.Anything, "Haddock").Return(nil, nil)
	lk.On("EnrichByDomain", mock.Anything, "haddock.com").Return(nil, nil)
	lk.On("EnrichByDomain", mock.Anything, "haddock.io").Return(org, nil)

	got, err := New(lk).Resolve(context.Background(), "Haddock", "")
	require.NoError(t, err)

	assert.Equal(t, "haddock.io", got.Domain)
	assert.Equal(t, model.SourceGuessValidated, got.Source)
	assert.Equal(t, "Haddock Inc", got.MatchedName)
	assert.Same(t, org, got.Organization)
	lk.AssertNotCalled(t, "EnrichByDomain", mock.Anything, "haddock.ai")
}

func TestResolve_DomainEchoRejectsNameMatch(t *testing.T) {
	t.Parallel()

	lk := &mockLookup{}
	lk.On("SearchByName", mock.Anything, "Acme").Return(nil, nil)
	// Name matches, but the provider answered with a different company's domain.
	lk.On("EnrichByDomain", mock.Anything, mock.Anything).Return(&apollo.Organization{Name: "Acme", PrimaryDomain: "acmecorp.net"}, nil)

	got, err := New(lk).Resolve(context.Background(), "Acme", "")
	require.NoError(t, err)

	assert.Equal(t, model.SourceFailed, got.Source)
	assert.Empty(t, got.Domain)
	lk.AssertNumberOfCalls(t, "EnrichByDomain", 3)
}

func TestResolve_NameMismatchRejected(t *testing.T) {
	t.Parallel()

	lk := &mockLookup{}
	lk.On("SearchByName", mock.Anything, "Acme").Return(nil, nil)
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(&apollo.Organization{Name: "Globex", PrimaryDomain: "acme.com"}, nil)
	lk.On("EnrichByDomain", mock.Anything, mock.Anything).Return(nil, nil)

	got, err := New(lk).Resolve(context.Background(), "Acme", "")
	require.NoError(t, err)
	assert.Equal(t, model.SourceFailed, got.Source)
}

func TestResolve_RateLimitedSearchFallsThroughToGuesses(t *testing.T) {
	t.Parallel()

	lk := &mockLookup{}
	lk.On("SearchByName", mock.Anything, "Acme").Return(nil, apollo.ErrRateLimited)
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(&apollo.Organization{Name: "Acme", PrimaryDomain: "acme.com"}, nil)

	got, err := New(lk).Resolve(context.Background(), "Acme", "")
	require.NoError(t, err)
	assert.Equal(t, model.SourceGuessValidated, got.Source)
	assert.Equal(t, "acme.com", got.Domain)
}

func TestResolve_UnauthorizedIsFatal(t *testing.T) {
	t.Parallel()

	lk := &mockLookup{}
	lk.On("SearchByName", mock.Anything, "Acme").Return(nil, apollo.ErrUnauthorized)

	got, err := New(lk).Resolve(context.Background(), "Acme", "")
	assert.ErrorIs(t, err, apollo.ErrUnauthorized)
	assert.Equal(t, model.SourceFailed, got.Source)
	lk.AssertNotCalled(t, "EnrichByDomain", mock.Anything, mock.Anything)
}

func TestResolve_UnauthorizedDuringGuess(t *testing.T) {
	t.Parallel()

	lk := &mockLookup{}
	lk.On("SearchByName", mock.Anything, "Acme").Return(nil, nil)
	lk.On("EnrichByDomain", mock.Anything, "acme.com").Return(nil, apollo.ErrUnauthorized)

	_, err := New(lk).Resolve(context.Background(), "Acme", "")
	assert.ErrorIs(t, err, apollo.ErrUnauthorized)
	lk.AssertNumberOfCalls(t, "EnrichByDomain", 1)
}

func TestResolve_CustomTLDs(t *testing.T) {
	t.Parallel()

	lk := &mockLookup{}
	lk.On("SearchByName", mock.Anything, "Acme").Return(nil, nil)
	lk.On("EnrichByDomain", mock.Anything, "acme.dev").Return(nil, nil)

	got, err := New(lk, WithGuessTLDs([]string{".dev"})).Resolve(context.Background(), "Acme", "")
	require.NoError(t, err)
	assert.False(t, got.Resolved())
	lk.AssertNumberOfCalls(t, "EnrichByDomain", 1)
}
