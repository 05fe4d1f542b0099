package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardPage = `<html><body>
<div class="job-card">
  <a href="/jobs/1"><h3>Onboarding Specialist</h3></a>
  <span class="company-name">Acme</span>
  <span class="job-location">Austin, TX</span>
  <span class="badge">Contract</span>
  <img src="/logos/acme.png">
</div>
<div class="job-card">
  <a href="https://other.example.com/apply"><h3>Customer Success Manager</h3></a>
  <span class="company-name">Globex</span>
</div>
<div class="job-card">
  <a href="/jobs/3"><h3>Senior Onboarding Specialist</h3></a>
  <span class="company-name">ACME </span>
</div>
<div class="job-card">
  <a href="/jobs/4"><h3>Staff Engineer</h3></a>
  <span class="company-name">Initech</span>
</div>
</body></html>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestJobBoard_Scrape_Live(t *testing.T) {
	srv := serve(t, http.StatusOK, cardPage)
	jb, err := NewJobBoard(srv.URL + "/")
	require.NoError(t, err)

	res, err := jb.Scrape(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	require.Len(t, res.Jobs, 2)

	acme := res.Jobs[0]
	assert.Equal(t, "Acme", acme.Company)
	assert.Equal(t, "Onboarding Specialist", acme.Title)
	assert.Equal(t, "Austin, TX", acme.Location)
	assert.Equal(t, "Contract", acme.Type)
	assert.Equal(t, srv.URL+"/jobs/1", acme.URL)
	assert.Equal(t, srv.URL+"/logos/acme.png", acme.Logo)
	assert.Empty(t, acme.Domain)

	globex := res.Jobs[1]
	assert.Equal(t, "Globex", globex.Company)
	assert.Equal(t, "https://other.example.com/apply", globex.URL)
	assert.Equal(t, defaultLocation, globex.Location)
	assert.Equal(t, defaultJobType, globex.Type)
	assert.Empty(t, globex.Logo)
}

func TestJobBoard_Scrape_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "oops"},
		{name: "captcha", status: http.StatusOK, body: `<div class="g-recaptcha"></div>`},
		{name: "no listings", status: http.StatusOK, body: "<html><body><p>Nothing here</p></body></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			jb, err := NewJobBoard(srv.URL)
			require.NoError(t, err)

			res, err := jb.Scrape(context.Background(), DefaultCategories)
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, res.Source)
			assert.Equal(t, FallbackJobs(), res.Jobs)
		})
	}
}

func TestJobBoard_Scrape_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	jb, err := NewJobBoard(target, WithTimeout(time.Second))
	require.NoError(t, err)
	res, err := jb.Scrape(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
}

func TestJobBoard_Scrape_Cancelled(t *testing.T) {
	srv := serve(t, http.StatusOK, cardPage)
	jb, err := NewJobBoard(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = jb.Scrape(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewJobBoard_Validation(t *testing.T) {
	jb, err := NewJobBoard("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetURL, jb.target.String())

	_, err = NewJobBoard("ftp://jobs.example.com")
	require.Error(t, err)
}

func TestParseJobs_AnchorFallback(t *testing.T) {
	html := `<html><body>
<a href="/positions/7">Implementation Specialist
Northwind</a>
<a href="/about">About us</a>
</body></html>`

	jobs := ParseJobs(parse(t, html), mustURL(t, "https://board.example.com/"), DefaultCategories)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Implementation Specialist", jobs[0].Title)
	assert.Equal(t, "Northwind", jobs[0].Company)
	assert.Equal(t, "https://board.example.com/positions/7", jobs[0].URL)
}

func TestParseJobs_CategoryBlockFallback(t *testing.T) {
	html := `<html><body>
<div>
  <strong>Solutions Architect</strong>
  <span>Contoso</span>
  <span>Remote within the United States</span>
</div>
</body></html>`

	jobs := ParseJobs(parse(t, html), mustURL(t, "https://board.example.com/"), []string{"solutions architect"})
	require.Len(t, jobs, 1)
	assert.Equal(t, "Solutions Architect", jobs[0].Title)
	assert.Equal(t, "Contoso", jobs[0].Company)
	assert.Equal(t, "https://board.example.com/", jobs[0].URL)
}

func TestParseJobs_FilterKeepsAllWhenNothingMatches(t *testing.T) {
	html := `<ul>
<li class="job"><h3>Staff Engineer</h3><span class="company">Initech</span></li>
<li class="job"><h3>Designer</h3><span class="company">Hooli</span></li>
</ul>`

	jobs := ParseJobs(parse(t, html), mustURL(t, "https://board.example.com/"), []string{"onboarding specialist"})
	require.Len(t, jobs, 2)
	assert.Equal(t, "Initech", jobs[0].Company)
	assert.Equal(t, "Hooli", jobs[1].Company)
}

func TestParseJobs_SelectorOrder(t *testing.T) {
	// .job-item is preferred over article.
	html := `<article><h3>Customer Success Manager</h3><span class="company">Ignored</span></article>
<div class="job-item"><h3>Customer Success Manager</h3><span class="company">Chosen</span></div>`

	jobs := ParseJobs(parse(t, html), mustURL(t, "https://board.example.com/"), DefaultCategories)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Chosen", jobs[0].Company)
}

func TestFallbackJobs_ReturnsCopy(t *testing.T) {
	a := FallbackJobs()
	a[0].Company = "mutated"
	assert.NotEqual(t, "mutated", FallbackJobs()[0].Company)
	for _, j := range FallbackJobs() {
		assert.NotEmpty(t, j.Company)
		assert.NotEmpty(t, j.Title)
	}
}
