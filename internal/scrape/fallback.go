package scrape

import (
	"slices"

	"github.com/sells-group/prospector/internal/model"
)

var fallbackJobs = []model.Candidate{
	{Company: "Gainsight", Title: "Customer Success Manager", Location: "Remote", Type: "Full-time", URL: DefaultTargetURL},
	{Company: "Vitally", Title: "Onboarding Specialist", Location: "Remote", Type: "Full-time", URL: DefaultTargetURL},
	{Company: "Rocketlane", Title: "Implementation Specialist", Location: "Remote", Type: "Full-time", URL: DefaultTargetURL},
	{Company: "ChurnZero", Title: "Director of Customer Success", Location: "Washington, DC", Type: "Full-time", URL: DefaultTargetURL},
	{Company: "Totango", Title: "Solutions Architect", Location: "Remote", Type: "Full-time", URL: DefaultTargetURL},
	{Company: "Planhat", Title: "Head of Customer Success", Location: "New York, NY", Type: "Full-time", URL: DefaultTargetURL},
	{Company: "Catalyst", Title: "Customer Success Manager", Location: "Remote", Type: "Full-time", URL: DefaultTargetURL},
	{Company: "GuideCX", Title: "Implementation Specialist", Location: "Lehi, UT", Type: "Full-time", URL: DefaultTargetURL},
}

// FallbackJobs returns a copy of the built-in candidates served when the
// board cannot be scraped.
func FallbackJobs() []model.Candidate {
	return slices.Clone(fallbackJobs)
}

func fallbackResult() *Result {
	return &Result{Source: SourceFallback, Jobs: FallbackJobs()}
}
