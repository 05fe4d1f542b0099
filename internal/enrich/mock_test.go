package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/provider"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, companyName, knownDomain string) (model.ResolvedIdentity, error) {
	args := m.Called(ctx, companyName, knownDomain)
	return args.Get(0).(model.ResolvedIdentity), args.Error(1)
}

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

func (m *mockLookup) EnrichByDomain(ctx context.Context, domain string) (*model.Organization, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}
