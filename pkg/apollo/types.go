package apollo

import (
	"net/url"
	"strings"
)

// OrganizationSearchRequest is the request body for POST /organizations/search.
type OrganizationSearchRequest struct {
	Name    string `json:"q_organization_name"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// OrganizationSearchResponse is the response from POST /organizations/search.
type OrganizationSearchResponse struct {
	Organizations []Organization `json:"organizations"`
}

// Organization is Apollo's company profile. Every field may be absent.
type Organization struct {
	ID                     string   `json:"id,omitempty"`
	Name                   string   `json:"name"`
	PrimaryDomain          string   `json:"primary_domain"`
	WebsiteURL             string   `json:"website_url"`
	Industry               string   `json:"industry"`
	EstimatedNumEmployees  int      `json:"estimated_num_employees"`
	AnnualRevenue          float64  `json:"annual_revenue"`
	AnnualRevenuePrinted   string   `json:"annual_revenue_printed"`
	TotalFunding           float64  `json:"total_funding"`
	TotalFundingPrinted    string   `json:"total_funding_printed"`
	LatestFundingStage     string   `json:"latest_funding_stage"`
	LatestFundingRoundDate string   `json:"latest_funding_round_date"`
	FoundedYear            int      `json:"founded_year"`
	ShortDescription       string   `json:"short_description"`
	SEODescription         string   `json:"seo_description"`
	LogoURL                string   `json:"logo_url"`
	LinkedInURL            string   `json:"linkedin_url"`
	City                   string   `json:"city"`
	State                  string   `json:"state"`
	Country                string   `json:"country"`
	Keywords               []string `json:"keywords"`
	TechnologyNames        []string `json:"technology_names"`
}

// Domain returns the organization's own domain: the primary domain, else the
// host portion of the website URL. The result is lowercased.
func (o *Organization) Domain() string {
	if o == nil {
		return ""
	}
	if d := strings.TrimSpace(o.PrimaryDomain); d != "" {
		return strings.ToLower(d)
	}
	return strings.ToLower(StripURL(o.WebsiteURL))
}

// StripURL removes the scheme and any path from a URL-ish string, leaving the host.
func StripURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		return u.Host
	}
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}

// PeopleSearchRequest is the request body for POST /mixed_people/api_search.
type PeopleSearchRequest struct {
	OrganizationDomains string   `json:"q_organization_domains"`
	PersonTitles        []string `json:"person_titles"`
	Page                int      `json:"page"`
	PerPage             int      `json:"per_page"`
}

// PeopleSearchResponse is the response from POST /mixed_people/api_search.
type PeopleSearchResponse struct {
	TotalEntries int      `json:"total_entries"`
	People       []Person `json:"people"`
}

// Person is a search hit. Contact details are not included until revealed.
type Person struct {
	ID                 string              `json:"id"`
	FirstName          string              `json:"first_name"`
	LastName           string              `json:"last_name,omitempty"`
	LastNameObfuscated string              `json:"last_name_obfuscated"`
	Title              string              `json:"title"`
	Seniority          string              `json:"seniority,omitempty"`
	Departments        []string            `json:"departments,omitempty"`
	LinkedInURL        string              `json:"linkedin_url,omitempty"`
	Email              string              `json:"email,omitempty"`
	PhoneNumbers       []PhoneNumber       `json:"phone_numbers,omitempty"`
	Organization       *PersonOrganization `json:"organization,omitempty"`
}

// PhoneNumber is one of a person's phone numbers.
type PhoneNumber struct {
	RawNumber       string `json:"raw_number,omitempty"`
	SanitizedNumber string `json:"sanitized_number"`
}

// PersonOrganization is the employer summary embedded in a person record.
type PersonOrganization struct {
	Name          string `json:"name"`
	PrimaryDomain string `json:"primary_domain,omitempty"`
}

// PersonEnrichRequest is the request body for POST /people/enrich.
type PersonEnrichRequest struct {
	ID                   string `json:"id"`
	RevealPersonalEmails bool   `json:"reveal_personal_emails"`
	RevealPhoneNumber    bool   `json:"reveal_phone_number"`
}

// PersonEnrichResponse is the response from POST /people/enrich.
type PersonEnrichResponse struct {
	Person *Person `json:"person"`
}
