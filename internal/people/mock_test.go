package people

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/prospector/pkg/apollo"
)

type mockApollo struct {
	mock.Mock
}

func (m *mockApollo) SearchOrganizations(ctx context.Context, req apollo.OrganizationSearchRequest) (*apollo.OrganizationSearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apollo.OrganizationSearchResponse), args.Error(1)
}

func (m *mockApollo) EnrichOrganization(ctx context.Context, domain string) (*apollo.Organization, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apollo.Organization), args.Error(1)
}

func (m *mockApollo) SearchPeople(ctx context.Context, req apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apollo.PeopleSearchResponse), args.Error(1)
}

func (m *mockApollo) EnrichPerson(ctx context.Context, req apollo.PersonEnrichRequest) (*apollo.PersonEnrichResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apollo.PersonEnrichResponse), args.Error(1)
}

func (m *mockApollo) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
