// Package provider wraps the firmographic API calls used by the enrichment
// pipeline and sorts their failures into retryable, fatal and soft outcomes.
package provider

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/resilience"
	"github.com/sells-group/prospector/pkg/apollo"
)

// SearchMatch is the best organization returned by a name search.
type SearchMatch struct {
	Domain string
	Name   string
}

// Lookup is the request layer consumed by the resolver and orchestrator.
//
// Both calls return apollo.ErrRateLimited and apollo.ErrUnauthorized as-is.
// A cancelled context is returned as the context error. Every other failure,
// including not-found responses, timeouts and network errors, yields a nil
// result with a nil error.
type Lookup interface {
	SearchByName(ctx context.Context, name string) (*SearchMatch, error)
	EnrichByDomain(ctx context.Context, domain string) (*apollo.Organization, error)
}

// Client implements Lookup on top of an apollo.Client.
type Client struct {
	api apollo.Client
}

// New creates a request layer over api.
func New(api apollo.Client) *Client {
	return &Client{api: api}
}

// SearchByName returns the top organization for name, or nil when there is none.
func (c *Client) SearchByName(ctx context.Context, name string) (*SearchMatch, error) {
	log := zap.L().With(zap.String("company", name))

	resp, err := c.api.SearchOrganizations(ctx, apollo.OrganizationSearchRequest{
		Name:    name,
		Page:    1,
		PerPage: 1,
	})
	if err != nil {
		return nil, classify(ctx, log, "provider: search organization", err)
	}
	if resp == nil || len(resp.Organizations) == 0 {
		log.Debug("provider: search returned no organizations")
		return nil, nil
	}

	org := resp.Organizations[0]
	domain := org.Domain()
	if domain == "" {
		log.Debug("provider: search match has no domain", zap.String("matched", org.Name))
		return nil, nil
	}
	log.Debug("provider: search matched", zap.String("matched", org.Name), zap.String("domain", domain))
	return &SearchMatch{Domain: domain, Name: org.Name}, nil
}

// EnrichByDomain returns the organization for domain, or nil when there is none.
func (c *Client) EnrichByDomain(ctx context.Context, domain string) (*apollo.Organization, error) {
	log := zap.L().With(zap.String("domain", domain))

	org, err := c.api.EnrichOrganization(ctx, strings.TrimSpace(domain))
	if err != nil {
		return nil, classify(ctx, log, "provider: enrich organization", err)
	}
	if org == nil {
		log.Debug("provider: no organization for domain")
		return nil, nil
	}
	log.Debug("provider: enrichment returned", zap.String("matched", org.Name))
	return org, nil
}

// classify returns err when it must reach the caller and nil otherwise.
func classify(ctx context.Context, log *zap.Logger, op string, err error) error {
	switch {
	case errors.Is(err, apollo.ErrRateLimited), errors.Is(err, apollo.ErrUnauthorized):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, apollo.ErrNotFound):
		log.Debug(op+" not found")
		return nil
	default:
		log.Warn(op+" failed",
			zap.Bool("transient", resilience.IsTransient(err)),
			zap.Error(err),
		)
		return nil
	}
}

// IsFatal reports whether err must abort the whole batch.
func IsFatal(err error) bool {
	return errors.Is(err, apollo.ErrUnauthorized)
}

// IsRateLimited reports whether err is a retryable rate-limit signal.
func IsRateLimited(err error) bool {
	return errors.Is(err, apollo.ErrRateLimited)
}
