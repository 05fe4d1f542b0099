package model

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/pkg/apollo"
)

// Candidate is one hiring-signal record awaiting enrichment.
type Candidate struct {
	Company  string `json:"company"`
	Domain   string `json:"domain,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Location string `json:"location"`
	Type     string `json:"type,omitempty"`
	Logo     string `json:"logo,omitempty"`
}

// ValidateCandidates rejects an empty list or any candidate without a company name.
func ValidateCandidates(cands []Candidate) error {
	if len(cands) == 0 {
		return eris.New("no companies provided")
	}
	for i, c := range cands {
		if strings.TrimSpace(c.Company) == "" {
			return eris.Errorf("candidate %d: company name is required", i)
		}
	}
	return nil
}

// Organization is the provider's company profile.
type Organization = apollo.Organization

// IdentitySource records which resolution strategy produced a domain.
type IdentitySource string

const (
	SourceScraped        IdentitySource = "scraped"
	SourceProviderSearch IdentitySource = "provider_search"
	SourceGuessValidated IdentitySource = "guess_validated"
	SourceFailed         IdentitySource = "failed"
)

// ResolvedIdentity is the outcome of domain resolution. Domain is empty only
// when Source is SourceFailed.
type ResolvedIdentity struct {
	Domain      string         `json:"domain,omitempty"`
	Source      IdentitySource `json:"source"`
	MatchedName string         `json:"matched_name,omitempty"`

	// Organization is the profile fetched while validating a guessed domain.
	// It lets the caller skip a second enrichment call.
	Organization *Organization `json:"-"`
}

// Resolved reports whether a domain was found.
func (r ResolvedIdentity) Resolved() bool {
	return r.Source != SourceFailed && r.Domain != ""
}
