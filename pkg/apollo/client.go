// Package apollo provides a client for the Apollo.io organization and people APIs.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospector/internal/resilience"
)

const (
	defaultBaseURL = "https://api.apollo.io/api/v1"
	defaultTimeout = 15 * time.Second
)

var (
	// ErrRateLimited is returned when Apollo responds with 429. Callers may retry.
	ErrRateLimited = eris.New("apollo: rate limited")
	// ErrUnauthorized is returned when Apollo rejects the API key (401).
	ErrUnauthorized = eris.New("apollo: unauthorized")
	// ErrNotFound is returned when Apollo responds with 404.
	ErrNotFound = eris.New("apollo: not found")
)

// Client defines the Apollo operations used by prospector.
type Client interface {
	// SearchOrganizations runs an organization name search.
	SearchOrganizations(ctx context.Context, req OrganizationSearchRequest) (*OrganizationSearchResponse, error)
	// EnrichOrganization fetches the organization profile for a domain. A nil
	// organization with a nil error means Apollo had no match.
	EnrichOrganization(ctx context.Context, domain string) (*Organization, error)
	// SearchPeople runs a people search scoped to organization domains.
	SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
	// EnrichPerson reveals contact details for a single person.
	EnrichPerson(ctx context.Context, req PersonEnrichRequest) (*PersonEnrichResponse, error)
	// Health checks that the API key is accepted.
	Health(ctx context.Context) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit paces outbound requests to rps requests per second.
// Zero or negative disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = &http.Client{
			Timeout: c.timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return c
}

func (c *httpClient) SearchOrganizations(ctx context.Context, req OrganizationSearchRequest) (*OrganizationSearchResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PerPage <= 0 {
		req.PerPage = 1
	}
	var out OrganizationSearchResponse
	if err := c.do(ctx, http.MethodPost, "/organizations/search", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) EnrichOrganization(ctx context.Context, domain string) (*Organization, error) {
	var out struct {
		Organization *Organization `json:"organization"`
	}
	q := url.Values{"domain": {domain}}
	if err := c.do(ctx, http.MethodGet, "/organizations/enrich", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Organization, nil
}

func (c *httpClient) SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	var out PeopleSearchResponse
	if err := c.do(ctx, http.MethodPost, "/mixed_people/api_search", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) EnrichPerson(ctx context.Context, req PersonEnrichRequest) (*PersonEnrichResponse, error) {
	var out PersonEnrichResponse
	if err := c.do(ctx, http.MethodPost, "/people/enrich", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/auth/health", nil, nil, nil)
}

// do sends a request and decodes a 200 response into out. Status codes are
// mapped to ErrRateLimited, ErrUnauthorized and ErrNotFound; 5xx responses are
// wrapped as resilience.TransientError.
func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "apollo: wait for rate limiter")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return eris.Wrap(err, "apollo: marshal request")
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return eris.Wrap(err, "apollo: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrapf(err, "apollo: send request %s", path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "apollo: read response")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		statusErr := eris.Errorf("apollo: unexpected status %d on %s: %s", resp.StatusCode, path, truncate(respBody, 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "apollo: unmarshal response")
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// RedactKey masks an API key for logging, keeping the first and last four characters.
func RedactKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
