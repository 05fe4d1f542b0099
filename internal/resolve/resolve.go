// Package resolve maps a scraped company name to a domain in the provider.
package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/match"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/provider"
)

// Resolver runs the domain-resolution cascade for one company at a time.
type Resolver struct {
	lookup provider.Lookup
	tlds   []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGuessTLDs sets the suffixes used when guessing domains.
func WithGuessTLDs(tlds []string) Option {
	return func(r *Resolver) {
		if len(tlds) > 0 {
			r.tlds = tlds
		}
	}
}

// New creates a Resolver backed by lookup.
func New(lookup provider.Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup: lookup,
		tlds:   match.DefaultGuessTLDs,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve finds a domain for companyName using a three-step cascade:
//  1. A known (scraped) domain is trusted without any provider call.
//  2. A provider name search, taking the top result's domain.
//  3. Guessed domains, each enriched and accepted only when both the name
//     and the returned domain agree with the guess.
//
// Only provider.IsFatal errors and context cancellation are returned.
// Rate-limited or failed calls count as "no result" for that step.
func (r *Resolver) Resolve(ctx context.Context, companyName, knownDomain string) (model.ResolvedIdentity, error) {
	log := zap.L().With(zap.String("company", companyName))

	if d := strings.TrimSpace(knownDomain); d != "" {
		log.Debug("resolve: using scraped domain", zap.String("domain", d))
		return model.ResolvedIdentity{Domain: d, Source: model.SourceScraped}, nil
	}

	found, err := r.lookup.SearchByName(ctx, companyName)
	if stop := r.softFail(ctx, log, "search", err); stop != nil {
		return failed(), stop
	}
	if found != nil && found.Domain != "" {
		log.Debug("resolve: matched by name search",
			zap.String("domain", found.Domain),
			zap.String("matched", found.Name),
		)
		return model.ResolvedIdentity{
			Domain:      found.Domain,
			Source:      model.SourceProviderSearch,
			MatchedName: found.Name,
		}, nil
	}

	guesses := match.GuessDomains(companyName, r.tlds)
	log.Debug("resolve: trying domain guesses", zap.Strings("guesses", guesses))
	for _, guess := range guesses {
		org, err := r.lookup.EnrichByDomain(ctx, guess)
		if stop := r.softFail(ctx, log.With(zap.String("guess", guess)), "guess", err); stop != nil {
			return failed(), stop
		}
		if org == nil || org.Name == "" {
			continue
		}

		nameOK := match.Validate(companyName, org.Name)
		domainOK := match.DomainEcho(guess, org)
		if nameOK && domainOK {
			log.Debug("resolve: validated guess", zap.String("domain", guess), zap.String("matched", org.Name))
			return model.ResolvedIdentity{
				Domain:       guess,
				Source:       model.SourceGuessValidated,
				MatchedName:  org.Name,
				Organization: org,
			}, nil
		}
		log.Debug("resolve: rejected guess",
			zap.String("guess", guess),
			zap.String("returned", org.Name),
			zap.String("returned_domain", org.Domain()),
			zap.Bool("name_match", nameOK),
			zap.Bool("domain_match", domainOK),
		)
	}

	log.Info("resolve: could not resolve domain")
	return failed(), nil
}

// softFail returns err when it must stop resolution and swallows the rest.
func (r *Resolver) softFail(ctx context.Context, log *zap.Logger, step string, err error) error {
	if err == nil {
		return nil
	}
	if provider.IsFatal(err) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	log.Warn("resolve: "+step+" step skipped", zap.Error(err))
	return nil
}

func failed() model.ResolvedIdentity {
	return model.ResolvedIdentity{Source: model.SourceFailed}
}
