package scorer

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/prospector/internal/model"
)

// Factor names, in breakdown order.
const (
	FactorIndustry      = "Industry Match"
	FactorEmployees     = "Employee Count"
	FactorFundingStage  = "Funding Stage"
	FactorRevenue       = "Revenue Signal"
	FactorTechStack     = "Tech Stack Fit"
	FactorHiring        = "Hiring Signal"
	FactorRecentFunding = "Recent Funding"
)

const hoursPerMonth = 24 * 30

// fundingDateLayouts are tried in order when parsing a funding round date.
var fundingDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Result is a scored organization.
type Result struct {
	Score     int                     `json:"score"`
	RawScore  int                     `json:"rawScore"`
	MaxScore  int                     `json:"maxScore"`
	Breakdown []model.ICPFactorResult `json:"breakdown"`
}

// Scorer computes ICP scores against a Rubric. It holds no mutable state and
// is safe for concurrent use.
type Scorer struct {
	rubric  Rubric
	now     func() time.Time
	printer *message.Printer
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithNow sets the clock used for the Recent Funding window.
func WithNow(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scorer for rubric.
func New(rubric Rubric, opts ...Option) *Scorer {
	rubric.normalize()
	s := &Scorer{
		rubric:  rubric,
		now:     time.Now,
		printer: message.NewPrinter(language.English),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score rates org for a company hiring for jobTitle. It never fails: missing
// fields score zero on their factor.
func (s *Scorer) Score(org *model.Organization, jobTitle string) Result {
	if org == nil {
		org = &model.Organization{}
	}

	breakdown := []model.ICPFactorResult{
		s.industry(org),
		s.employees(org),
		s.fundingStage(org),
		s.revenue(org),
		s.techStack(org),
		{Factor: FactorHiring, Points: HiringPoints, Status: model.FactorPass, Detail: "Hiring: " + jobTitle},
		s.recentFunding(org),
	}

	raw := 0
	for _, f := range breakdown {
		raw += f.Points
	}
	return Result{
		Score:     Normalize(raw),
		RawScore:  raw,
		MaxScore:  MaxRawScore,
		Breakdown: breakdown,
	}
}

// Normalize maps a raw score onto 0..100.
func Normalize(raw int) int {
	n := int(math.Round(float64(raw) / MaxRawScore * 100))
	return max(0, min(n, 100))
}

func (s *Scorer) industry(org *model.Organization) model.ICPFactorResult {
	if org.Industry != "" && containsAny(strings.ToLower(org.Industry), s.rubric.IndustryKeywords) {
		return pass(FactorIndustry, IndustryPoints, "SaaS/Software ("+org.Industry+")")
	}
	return fail(FactorIndustry, orUnknown(org.Industry))
}

func (s *Scorer) employees(org *model.Organization) model.ICPFactorResult {
	n := org.EstimatedNumEmployees
	count := s.printer.Sprintf("%d employees", n)
	r := s.rubric
	switch {
	case n >= r.IdealMinEmployees && n <= r.IdealMaxEmployees:
		return pass(FactorEmployees, EmployeeIdealPoints, count+" (ideal range)")
	case n > r.IdealMaxEmployees && n <= r.LargeMaxEmployees:
		return partial(FactorEmployees, EmployeeLargePoints, count+" (larger than ideal)")
	case n >= r.SmallMinEmployees && n < r.IdealMinEmployees:
		return partial(FactorEmployees, EmployeeSmallPoints, count+" (smaller than ideal)")
	default:
		return fail(FactorEmployees, count)
	}
}

func (s *Scorer) fundingStage(org *model.Organization) model.ICPFactorResult {
	stage := strings.ToLower(org.LatestFundingStage)
	switch {
	case stage != "" && containsAny(stage, s.rubric.StrongFundingStages):
		return pass(FactorFundingStage, FundingStrongPoints, org.LatestFundingStage)
	case stage != "" && containsAny(stage, s.rubric.EarlyFundingStages):
		return partial(FactorFundingStage, FundingEarlyPoints, org.LatestFundingStage)
	default:
		return fail(FactorFundingStage, orUnknown(org.LatestFundingStage))
	}
}

func (s *Scorer) revenue(org *model.Organization) model.ICPFactorResult {
	rev := org.AnnualRevenue
	switch {
	case rev >= s.rubric.HighRevenue && rev > 0:
		return pass(FactorRevenue, RevenueHighPoints, orDefault(org.AnnualRevenuePrinted, s.printer.Sprintf("$%.0fM", rev/1e6)))
	case rev >= s.rubric.MidRevenue && rev > 0:
		return partial(FactorRevenue, RevenueMidPoints, orDefault(org.AnnualRevenuePrinted, s.printer.Sprintf("$%.1fM", rev/1e6)))
	case rev > 0:
		return fail(FactorRevenue, s.printer.Sprintf("$%d", int64(math.Round(rev))))
	default:
		return fail(FactorRevenue, "Unknown")
	}
}

func (s *Scorer) techStack(org *model.Organization) model.ICPFactorResult {
	names := make([]string, len(org.TechnologyNames))
	for i, t := range org.TechnologyNames {
		names[i] = strings.ToLower(t)
	}

	points := 0
	var matched []string
	for _, tw := range s.rubric.TechWeights {
		for _, n := range names {
			if strings.Contains(n, tw.Name) {
				points += tw.Points
				matched = append(matched, tw.Name)
				break
			}
		}
	}
	points = min(points, TechCapPoints)

	detail := "No matching integrations found"
	if len(matched) > 0 {
		detail = "Uses: " + strings.Join(matched, ", ")
	}
	switch {
	case points >= s.rubric.TechPassThreshold && points > 0:
		return pass(FactorTechStack, points, detail)
	case points > 0:
		return partial(FactorTechStack, points, detail)
	default:
		return fail(FactorTechStack, detail)
	}
}

func (s *Scorer) recentFunding(org *model.Organization) model.ICPFactorResult {
	funded, ok := parseFundingDate(org.LatestFundingRoundDate)
	if !ok {
		return fail(FactorRecentFunding, "No funding data")
	}

	months := max(s.now().Sub(funded).Hours()/hoursPerMonth, 0)
	detail := s.printer.Sprintf("Funded %d months ago", int(math.Round(months)))
	if months <= float64(s.rubric.RecentFundingMonths) {
		return pass(FactorRecentFunding, RecentFundingPoints, detail)
	}
	return fail(FactorRecentFunding, detail)
}

func parseFundingDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range fundingDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func pass(factor string, points int, detail string) model.ICPFactorResult {
	return model.ICPFactorResult{Factor: factor, Points: points, Status: model.FactorPass, Detail: detail}
}

func partial(factor string, points int, detail string) model.ICPFactorResult {
	return model.ICPFactorResult{Factor: factor, Points: points, Status: model.FactorPartial, Detail: detail}
}

func fail(factor, detail string) model.ICPFactorResult {
	return model.ICPFactorResult{Factor: factor, Points: 0, Status: model.FactorFail, Detail: detail}
}
