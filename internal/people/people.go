// Package people finds contacts at a company and reveals their details on demand.
package people

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospector/internal/cost"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/apollo"
)

// ExecutiveTitles are searched for the Founder/Executive persona.
var ExecutiveTitles = []string{
	"Founder",
	"Co-Founder",
	"CEO",
	"Chief Executive Officer",
	"President",
	"COO",
	"Chief Operating Officer",
	"CTO",
	"Chief Technology Officer",
	"CFO",
	"Chief Financial Officer",
}

// OperationsTitles are searched for the Operations Leader persona.
var OperationsTitles = []string{
	"VP Operations",
	"Director Operations",
	"Head of Operations",
	"SVP Operations",
	"VP Business Operations",
	"Director Business Operations",
	"VP Customer Success",
	"Vice President Customer Success",
	"Director Customer Success",
	"Head of Customer Success",
	"SVP Customer Success",
	"Chief Customer Officer",
	"VP Implementation",
	"Director Implementation",
	"Head of Implementation",
	"VP Professional Services",
	"Director Professional Services",
	"Head of Professional Services",
}

var (
	// ErrDomainRequired is returned when Search is called without a domain.
	ErrDomainRequired = eris.New("people: domain is required")
	// ErrPersonIDRequired is returned when Reveal is called without a person ID.
	ErrPersonIDRequired = eris.New("people: person ID is required")
	// ErrNothingRequested is returned when Reveal asks for neither email nor phone.
	ErrNothingRequested = eris.New("people: must request at least email or phone")
)

const defaultRequestDelay = 150 * time.Millisecond

// Persona is one title-scoped search.
type Persona struct {
	Label   string
	Titles  []string
	PerPage int
}

// DefaultPersonas returns the executive then operations searches.
func DefaultPersonas() []Persona {
	return []Persona{
		{Label: model.PersonaExecutive, Titles: ExecutiveTitles, PerPage: 10},
		{Label: model.PersonaOperations, Titles: OperationsTitles, PerPage: 25},
	}
}

// Option configures a Searcher or Revealer.
type Option func(*options)

type options struct {
	delay    time.Duration
	personas []Persona
}

// WithRequestDelay sets the minimum spacing between provider calls.
func WithRequestDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithPersonas replaces the persona searches run by a Searcher.
func WithPersonas(p []Persona) Option {
	return func(o *options) {
		if len(p) > 0 {
			o.personas = p
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{delay: defaultRequestDelay, personas: DefaultPersonas()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Searcher runs persona searches against a company domain.
type Searcher struct {
	api      apollo.Client
	limiter  *rate.Limiter
	personas []Persona
}

// NewSearcher creates a Searcher.
func NewSearcher(api apollo.Client, opts ...Option) *Searcher {
	o := buildOptions(opts)
	return &Searcher{api: api, limiter: newLimiter(o.delay), personas: o.personas}
}

// Search returns contacts for every persona, in persona order. Rate-limit and
// authorization errors are returned unwrapped so callers can map them.
func (s *Searcher) Search(ctx context.Context, domain string) ([]model.Contact, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, ErrDomainRequired
	}
	log := zap.L().With(zap.String("domain", domain))

	contacts := []model.Contact{}
	for _, p := range s.personas {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "people: wait for rate limiter")
		}

		resp, err := s.api.SearchPeople(ctx, apollo.PeopleSearchRequest{
			OrganizationDomains: domain,
			PersonTitles:        p.Titles,
			Page:                1,
			PerPage:             p.PerPage,
		})
		if err != nil {
			return nil, passThrough(err, "people: search "+p.Label)
		}

		for _, person := range resp.People {
			contacts = append(contacts, toContact(person, p.Label))
		}
		log.Debug("people: persona search done",
			zap.String("persona", p.Label),
			zap.Int("found", len(resp.People)),
			zap.Int("total_entries", resp.TotalEntries),
		)
	}

	log.Info("people: search complete", zap.Int("contacts", len(contacts)))
	return contacts, nil
}

// Revealer retrieves contact details and charges credits for them.
type Revealer struct {
	api     apollo.Client
	limiter *rate.Limiter
	ledger  *cost.Ledger
}

// NewRevealer creates a Revealer that records charges in ledger.
func NewRevealer(api apollo.Client, ledger *cost.Ledger, opts ...Option) *Revealer {
	o := buildOptions(opts)
	return &Revealer{api: api, limiter: newLimiter(o.delay), ledger: ledger}
}

// Reveal fetches the requested details for personID. Only requested fields
// are returned, and only returned fields are charged to session.
func (r *Revealer) Reveal(ctx context.Context, session, personID string, wantEmail, wantPhone bool) (*model.Reveal, error) {
	if strings.TrimSpace(personID) == "" {
		return nil, ErrPersonIDRequired
	}
	if !wantEmail && !wantPhone {
		return nil, ErrNothingRequested
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "people: wait for rate limiter")
	}

	out := &model.Reveal{}
	resp, err := r.api.EnrichPerson(ctx, apollo.PersonEnrichRequest{
		ID:                   personID,
		RevealPersonalEmails: wantEmail,
		RevealPhoneNumber:    wantPhone,
	})
	switch {
	case errors.Is(err, apollo.ErrNotFound):
		zap.L().Debug("people: person not found", zap.String("person_id", personID))
	case err != nil:
		return nil, passThrough(err, "people: enrich person "+personID)
	case resp != nil && resp.Person != nil:
		if wantEmail {
			out.Email = resp.Person.Email
		}
		if wantPhone {
			out.Phone = firstPhone(resp.Person.PhoneNumbers)
		}
	}

	out.CreditsUsed, out.CreditsTotal = r.ledger.ChargeReveal(session, out.Email != "", out.Phone != "")
	zap.L().Info("people: reveal complete",
		zap.String("person_id", personID),
		zap.Bool("email", out.Email != ""),
		zap.Bool("phone", out.Phone != ""),
		zap.Int("credits_used", out.CreditsUsed),
	)
	return out, nil
}

func toContact(p apollo.Person, persona string) model.Contact {
	return model.Contact{
		ID:          p.ID,
		Name:        DisplayName(p),
		FirstName:   p.FirstName,
		Title:       p.Title,
		Seniority:   p.Seniority,
		Departments: p.Departments,
		LinkedInURL: p.LinkedInURL,
		PersonaType: persona,
		Company:     companyName(p.Organization),
	}
}

// DisplayName joins the first name with the obfuscated last name, falling
// back to the first name alone and then to "Unknown".
func DisplayName(p apollo.Person) string {
	switch {
	case p.FirstName != "" && p.LastNameObfuscated != "":
		return p.FirstName + " " + p.LastNameObfuscated
	case p.FirstName != "":
		return p.FirstName
	default:
		return "Unknown"
	}
}

func companyName(o *apollo.PersonOrganization) string {
	if o == nil {
		return ""
	}
	return o.Name
}

func firstPhone(nums []apollo.PhoneNumber) string {
	if len(nums) == 0 {
		return ""
	}
	return nums[0].SanitizedNumber
}

// passThrough keeps provider sentinels intact and wraps everything else.
func passThrough(err error, msg string) error {
	if errors.Is(err, apollo.ErrRateLimited) || errors.Is(err, apollo.ErrUnauthorized) {
		return err
	}
	return eris.Wrap(err, msg)
}
