// Package scorer implements ideal-customer-profile scoring for enriched companies.
package scorer

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Factor point values. MaxRawScore is their sum and is the normalisation base.
const (
	IndustryPoints      = 20
	EmployeeIdealPoints = 15
	EmployeeLargePoints = 10
	EmployeeSmallPoints = 5
	FundingStrongPoints = 15
	FundingEarlyPoints  = 5
	RevenueHighPoints   = 10
	RevenueMidPoints    = 5
	TechCapPoints       = 15
	HiringPoints        = 20
	RecentFundingPoints = 10

	MaxRawScore = IndustryPoints + EmployeeIdealPoints + FundingStrongPoints +
		RevenueHighPoints + TechCapPoints + HiringPoints + RecentFundingPoints
)

// TechWeight awards Points when an organization uses a technology whose
// lowercased name contains Name.
type TechWeight struct {
	Name   string `yaml:"name"`
	Points int    `yaml:"points"`
}

// Rubric holds the lookup tables and thresholds behind each factor. Point
// values are fixed so scores stay comparable across rubrics.
type Rubric struct {
	IndustryKeywords    []string     `yaml:"industry_keywords"`
	StrongFundingStages []string     `yaml:"strong_funding_stages"`
	EarlyFundingStages  []string     `yaml:"early_funding_stages"`
	TechWeights         []TechWeight `yaml:"tech_weights"`

	IdealMinEmployees int `yaml:"ideal_min_employees"`
	IdealMaxEmployees int `yaml:"ideal_max_employees"`
	LargeMaxEmployees int `yaml:"large_max_employees"`
	SmallMinEmployees int `yaml:"small_min_employees"`

	HighRevenue float64 `yaml:"high_revenue"`
	MidRevenue  float64 `yaml:"mid_revenue"`

	// TechPassThreshold is the capped tech score at which the factor passes.
	TechPassThreshold int `yaml:"tech_pass_threshold"`
	// RecentFundingMonths bounds the Recent Funding window (30-day months).
	RecentFundingMonths int `yaml:"recent_funding_months"`
}

// DefaultRubric returns the built-in B2B SaaS rubric.
func DefaultRubric() Rubric {
	return Rubric{
		IndustryKeywords: []string{
			"software", "saas", "information technology", "internet",
			"computer software", "technology", "cloud", "platform",
		},
		StrongFundingStages: []string{
			"series b", "series c", "series d", "series e", "series f", "ipo", "public",
		},
		EarlyFundingStages: []string{"series a", "seed", "grant", "pre-seed"},
		// CRM and CS platforms weigh most, chat and ticketing least.
		TechWeights: []TechWeight{
			{"salesforce", 5},
			{"hubspot", 5},
			{"gainsight", 5},
			{"intercom", 3},
			{"zendesk", 3},
			{"totango", 5},
			{"churnzero", 5},
			{"freshworks", 3},
			{"jira", 2},
			{"slack", 1},
			{"segment", 2},
		},

		IdealMinEmployees: 100,
		IdealMaxEmployees: 2000,
		LargeMaxEmployees: 5000,
		SmallMinEmployees: 50,

		HighRevenue: 10_000_000, // $10M
		MidRevenue:  1_000_000,  // $1M

		TechPassThreshold:   10,
		RecentFundingMonths: 24,
	}
}

// LoadRubric reads a rubric from a YAML file with a top-level "icp" key.
// Fields missing from the file keep their DefaultRubric values.
func LoadRubric(path string) (Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, eris.Wrapf(err, "scorer: read rubric %s", path)
	}

	wrapper := struct {
		ICP Rubric `yaml:"icp"`
	}{ICP: DefaultRubric()}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Rubric{}, eris.Wrap(err, "scorer: parse rubric")
	}

	r := wrapper.ICP
	r.normalize()
	if err := ValidateRubric(r); err != nil {
		return Rubric{}, err
	}
	return r, nil
}

// normalize replaces every keyword table with a lowercased copy.
func (r *Rubric) normalize() {
	r.IndustryKeywords = lowerAll(r.IndustryKeywords)
	r.StrongFundingStages = lowerAll(r.StrongFundingStages)
	r.EarlyFundingStages = lowerAll(r.EarlyFundingStages)
	tw := make([]TechWeight, len(r.TechWeights))
	for i, w := range r.TechWeights {
		tw[i] = TechWeight{Name: strings.ToLower(strings.TrimSpace(w.Name)), Points: w.Points}
	}
	r.TechWeights = tw
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// ValidateRubric checks that a Rubric is internally consistent.
func ValidateRubric(r Rubric) error {
	var errs []string

	if len(r.IndustryKeywords) == 0 {
		errs = append(errs, "industry_keywords must not be empty")
	}
	for _, tw := range r.TechWeights {
		if tw.Name == "" {
			errs = append(errs, "tech_weights entries need a name")
		}
		if tw.Points < 0 {
			errs = append(errs, fmt.Sprintf("tech weight %q must be >= 0", tw.Name))
		}
	}

	// Employee tiers.
	if r.SmallMinEmployees < 0 || r.IdealMinEmployees < r.SmallMinEmployees {
		errs = append(errs, "ideal_min_employees must be >= small_min_employees >= 0")
	}
	if r.IdealMaxEmployees < r.IdealMinEmployees {
		errs = append(errs, "ideal_max_employees must be >= ideal_min_employees")
	}
	if r.LargeMaxEmployees < r.IdealMaxEmployees {
		errs = append(errs, "large_max_employees must be >= ideal_max_employees")
	}

	// Revenue tiers.
	if r.MidRevenue < 0 || r.HighRevenue < r.MidRevenue {
		errs = append(errs, "high_revenue must be >= mid_revenue >= 0")
	}

	if r.TechPassThreshold < 0 || r.TechPassThreshold > TechCapPoints {
		errs = append(errs, fmt.Sprintf("tech_pass_threshold must be between 0 and %d", TechCapPoints))
	}
	if r.RecentFundingMonths <= 0 {
		errs = append(errs, "recent_funding_months must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: rubric validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
