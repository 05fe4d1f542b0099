// Package scrape supplies candidate companies from a public job board.
package scrape

import (
	"context"

	"github.com/sells-group/prospector/internal/model"
)

// Result sources.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// DefaultTargetURL is the job board scraped when none is configured.
const DefaultTargetURL = "https://jobs.customersuccesssnack.com/"

// DefaultCategories are the job titles kept when no categories are given.
var DefaultCategories = []string{
	"onboarding specialist",
	"implementation specialist",
	"customer success manager",
	"solutions architect",
	"director of customer success",
	"head of customer success",
}

// Result holds scraped candidates with their source.
type Result struct {
	Source string            `json:"source"`
	Jobs   []model.Candidate `json:"jobs"`
}

// Supplier produces candidate companies filtered by job category.
type Supplier interface {
	Scrape(ctx context.Context, categories []string) (*Result, error)
}
