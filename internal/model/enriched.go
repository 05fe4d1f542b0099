package model

// EnrichmentStatus is the terminal state of a candidate.
type EnrichmentStatus string

const (
	StatusSuccess  EnrichmentStatus = "success"
	StatusNotFound EnrichmentStatus = "not_found"
	StatusFailed   EnrichmentStatus = "failed"
)

// FactorStatus grades a single ICP factor.
type FactorStatus string

const (
	FactorPass    FactorStatus = "pass"
	FactorPartial FactorStatus = "partial"
	FactorFail    FactorStatus = "fail"
)

// ICPFactorResult is one row of an ICP breakdown.
type ICPFactorResult struct {
	Factor string       `json:"factor"`
	Points int          `json:"points"`
	Status FactorStatus `json:"status"`
	Detail string       `json:"detail"`
}

// EnrichedCompany is the pipeline output for one candidate.
type EnrichedCompany struct {
	ScrapedJobTitle string         `json:"scraped_job_title"`
	ScrapedJobURL   string         `json:"scraped_job_url"`
	CompanyName     string         `json:"company_name"`
	Location        string         `json:"location"`
	Domain          string         `json:"domain"`
	DomainSource    IdentitySource `json:"domain_source,omitempty"`
	MatchedName     string         `json:"matched_name,omitempty"`

	WebsiteURL             string   `json:"website_url,omitempty"`
	Industry               string   `json:"industry,omitempty"`
	EstimatedNumEmployees  int      `json:"estimated_num_employees,omitempty"`
	AnnualRevenue          float64  `json:"annual_revenue,omitempty"`
	AnnualRevenuePrinted   string   `json:"annual_revenue_printed,omitempty"`
	TotalFunding           float64  `json:"total_funding,omitempty"`
	TotalFundingPrinted    string   `json:"total_funding_printed,omitempty"`
	LatestFundingStage     string   `json:"latest_funding_stage,omitempty"`
	LatestFundingRoundDate string   `json:"latest_funding_round_date,omitempty"`
	FoundedYear            int      `json:"founded_year,omitempty"`
	ShortDescription       string   `json:"short_description,omitempty"`
	SEODescription         string   `json:"seo_description,omitempty"`
	LogoURL                string   `json:"logo_url,omitempty"`
	LinkedInURL            string   `json:"linkedin_url,omitempty"`
	City                   string   `json:"city,omitempty"`
	State                  string   `json:"state,omitempty"`
	Country                string   `json:"country,omitempty"`
	Keywords               []string `json:"keywords,omitempty"`
	TechnologyNames        []string `json:"technology_names,omitempty"`

	EnrichmentStatus EnrichmentStatus  `json:"enrichment_status"`
	ICPScore         int               `json:"icp_score"`
	ICPRawScore      int               `json:"icp_raw_score,omitempty"`
	ICPMaxScore      int               `json:"icp_max_score,omitempty"`
	ICPBreakdown     []ICPFactorResult `json:"icp_breakdown"`
	Error            string            `json:"error,omitempty"`
}

// NewEnrichedCompany seeds an output record from its candidate.
func NewEnrichedCompany(c Candidate) EnrichedCompany {
	return EnrichedCompany{
		ScrapedJobTitle: c.Title,
		ScrapedJobURL:   c.URL,
		CompanyName:     c.Company,
		Location:        c.Location,
		Domain:          c.Domain,
		ICPBreakdown:    []ICPFactorResult{},
	}
}

// ApplyOrganization copies the organization subset into the record. The
// resolved domain is kept when the organization reports none.
func (e *EnrichedCompany) ApplyOrganization(org *Organization) {
	if org == nil {
		return
	}
	e.MatchedName = org.Name
	if org.PrimaryDomain != "" {
		e.Domain = org.PrimaryDomain
	}
	e.WebsiteURL = org.WebsiteURL
	e.Industry = org.Industry
	e.EstimatedNumEmployees = org.EstimatedNumEmployees
	e.AnnualRevenue = org.AnnualRevenue
	e.AnnualRevenuePrinted = org.AnnualRevenuePrinted
	e.TotalFunding = org.TotalFunding
	e.TotalFundingPrinted = org.TotalFundingPrinted
	e.LatestFundingStage = org.LatestFundingStage
	e.LatestFundingRoundDate = org.LatestFundingRoundDate
	e.FoundedYear = org.FoundedYear
	e.ShortDescription = org.ShortDescription
	e.SEODescription = org.SEODescription
	e.LogoURL = org.LogoURL
	e.LinkedInURL = org.LinkedInURL
	e.City = org.City
	e.State = org.State
	e.Country = org.Country
	e.Keywords = nonNil(org.Keywords)
	e.TechnologyNames = nonNil(org.TechnologyNames)
}

// Fail marks the record as terminal with the given status and error, and
// clears any score.
func (e *EnrichedCompany) Fail(status EnrichmentStatus, msg string) {
	e.EnrichmentStatus = status
	e.Error = msg
	e.ICPScore = 0
	e.ICPRawScore = 0
	e.ICPMaxScore = 0
	e.ICPBreakdown = []ICPFactorResult{}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// CountStatus returns how many results have the given status.
func CountStatus(results []EnrichedCompany, status EnrichmentStatus) int {
	n := 0
	for _, r := range results {
		if r.EnrichmentStatus == status {
			n++
		}
	}
	return n
}
