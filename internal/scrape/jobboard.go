package scrape

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/model"
)

const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes = 4 << 20

	defaultJobType  = "Full-time"
	defaultLocation = "Remote"
	unknownCompany  = "Unknown Company"
	unknownTitle    = "Unknown Title"
)

// listingSelectors are tried in order; the first that matches anything wins.
var listingSelectors = []string{
	".job-listing",
	".job-item",
	".job-card",
	"[data-job]",
	"li.job",
	".jobs-list li",
	".job-list li",
	`a[href*="/jobs/"]`,
	".listing",
	".job",
	"article",
}

var (
	jobHrefHints = []string{"/job", "/position", "/career"}
	jobTextHints = []string{"specialist", "manager", "architect", "success", "implementation", "onboarding"}
)

// JobBoard scrapes a job board page for hiring companies.
type JobBoard struct {
	target *url.URL
	client *http.Client
}

// Option configures a JobBoard.
type Option func(*JobBoard)

// WithHTTPClient sets the HTTP client used to fetch the board.
func WithHTTPClient(hc *http.Client) Option {
	return func(j *JobBoard) { j.client = hc }
}

// WithTimeout sets the fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(j *JobBoard) {
		if d > 0 {
			j.client.Timeout = d
		}
	}
}

// NewJobBoard creates a JobBoard for targetURL. An empty URL uses
// DefaultTargetURL.
func NewJobBoard(targetURL string, opts ...Option) (*JobBoard, error) {
	if targetURL == "" {
		targetURL = DefaultTargetURL
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: parse target url %q", targetURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, eris.Errorf("scrape: target url %q must be http or https", targetURL)
	}

	j := &JobBoard{
		target: u,
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(j)
	}
	return j, nil
}

// Scrape fetches the board and returns live candidates matching categories.
// Any failure, or an empty result, yields the fallback candidates. Only a
// cancelled context is returned as an error.
func (j *JobBoard) Scrape(ctx context.Context, categories []string) (*Result, error) {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	log := zap.L().With(zap.String("target", j.target.String()))

	doc, err := j.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "scrape: fetch")
		}
		log.Warn("scrape: fetch failed, using fallback", zap.Error(err))
		return fallbackResult(), nil
	}

	jobs := ParseJobs(doc, j.target, categories)
	if len(jobs) == 0 {
		log.Info("scrape: no jobs found, using fallback")
		return fallbackResult(), nil
	}

	log.Info("scrape: complete", zap.Int("jobs", len(jobs)))
	return &Result{Source: SourceLive, Jobs: jobs}, nil
}

func (j *JobBoard) fetch(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.target.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: read body")
	}
	if bt := DetectBlock(resp, body); bt != BlockNone {
		return nil, eris.Errorf("scrape: blocked (%s)", bt)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("scrape: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}
	return doc, nil
}

// ParseJobs extracts candidates from a job board document. Relative links
// resolve against base. Jobs are filtered by categories, unless that would
// remove all of them, and de-duplicated by company name.
func ParseJobs(doc *goquery.Document, base *url.URL, categories []string) []model.Candidate {
	var jobs []model.Candidate
	for _, el := range listingElements(doc, categories) {
		if c, ok := extractJob(el, base); ok {
			jobs = append(jobs, c)
		}
	}
	return dedupe(filterByCategory(jobs, categories))
}

func listingElements(doc *goquery.Document, categories []string) []*goquery.Selection {
	for _, sel := range listingSelectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			zap.L().Debug("scrape: matched selector", zap.String("selector", sel), zap.Int("count", found.Length()))
			return each(found)
		}
	}

	var out []*goquery.Selection
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.ToLower(a.Text())
		if containsAny(href, jobHrefHints) || containsAny(text, jobTextHints) {
			out = append(out, a)
		}
	})
	if len(out) > 0 {
		return out
	}

	lowered := lowerAll(categories)
	doc.Find("li, div, article").Each(func(_ int, s *goquery.Selection) {
		text := strings.ToLower(s.Text())
		if len(text) > 30 && len(text) < 1000 && containsAny(text, lowered) {
			out = append(out, s)
		}
	})
	return out
}

func extractJob(el *goquery.Selection, base *url.URL) (model.Candidate, bool) {
	text := strings.TrimSpace(el.Text())
	isAnchor := goquery.NodeName(el) == "a"

	var href string
	if isAnchor {
		href, _ = el.Attr("href")
	} else {
		href, _ = el.Find("a").First().Attr("href")
	}

	title := firstText(el, "h2, h3, h4, .job-title, .title, strong")
	if title == "" && isAnchor {
		title = strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	}

	company := firstText(el, `.company, .company-name, .employer, [class*="company"]`)
	if company == "" {
		if lines := nonEmptyLines(text); len(lines) >= 2 {
			company = lines[1]
		}
	}

	if title == "" && company == "" {
		return model.Candidate{}, false
	}

	logo, _ := el.Find("img").First().Attr("src")
	return model.Candidate{
		Company:  orDefault(company, unknownCompany),
		Title:    orDefault(title, unknownTitle),
		Location: orDefault(firstText(el, `.location, .job-location, [class*="location"]`), defaultLocation),
		Type:     orDefault(firstText(el, `.job-type, .type, [class*="type"], .badge`), defaultJobType),
		URL:      orDefault(resolve(base, href), base.String()),
		Logo:     resolve(base, logo),
	}, true
}

func filterByCategory(jobs []model.Candidate, categories []string) []model.Candidate {
	lowered := lowerAll(categories)
	var kept []model.Candidate
	for _, j := range jobs {
		title := strings.ToLower(j.Title)
		for _, cat := range lowered {
			if strings.Contains(title, cat) || strings.Contains(cat, title) {
				kept = append(kept, j)
				break
			}
		}
	}
	if len(kept) == 0 {
		return jobs
	}
	return kept
}

func dedupe(jobs []model.Candidate) []model.Candidate {
	seen := make(map[string]bool, len(jobs))
	out := make([]model.Candidate, 0, len(jobs))
	for _, j := range jobs {
		key := strings.ToLower(strings.TrimSpace(j.Company))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, j)
	}
	return out
}

// helpers

func each(s *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, s.Length())
	s.Each(func(_ int, el *goquery.Selection) { out = append(out, el) })
	return out
}

func firstText(el *goquery.Selection, selector string) string {
	return strings.TrimSpace(el.Find(selector).First().Text())
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
