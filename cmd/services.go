package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/cost"
	"github.com/sells-group/prospector/internal/enrich"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/people"
	"github.com/sells-group/prospector/internal/provider"
	"github.com/sells-group/prospector/internal/resolve"
	"github.com/sells-group/prospector/internal/scorer"
	"github.com/sells-group/prospector/internal/server"
	"github.com/sells-group/prospector/pkg/apollo"
)

// newAPI builds the Apollo client for key from config.
func newAPI(c *config.Config, key string) apollo.Client {
	return apollo.NewClient(key,
		apollo.WithBaseURL(c.Apollo.BaseURL),
		apollo.WithTimeout(c.Apollo.Timeout()),
		apollo.WithRateLimit(c.Apollo.RequestsPerSec),
	)
}

// newScorer loads the configured rubric, or the built-in one.
func newScorer(c *config.Config) (*scorer.Scorer, error) {
	if c.ICP.RubricPath == "" {
		return scorer.New(scorer.DefaultRubric()), nil
	}
	rubric, err := scorer.LoadRubric(c.ICP.RubricPath)
	if err != nil {
		return nil, eris.Wrap(err, "load icp rubric")
	}
	zap.L().Info("loaded icp rubric", zap.String("path", c.ICP.RubricPath))
	return scorer.New(rubric), nil
}

func newLedger(c *config.Config) *cost.Ledger {
	return cost.NewLedger(cost.NewCalculator(cost.Rates{
		EmailCredit: c.People.EmailCredit,
		PhoneCredit: c.People.PhoneCredit,
	}))
}

func peopleOptions(c *config.Config) []people.Option {
	return []people.Option{
		people.WithRequestDelay(c.People.RequestDelay()),
		people.WithPersonas([]people.Persona{
			{Label: model.PersonaExecutive, Titles: people.ExecutiveTitles, PerPage: c.People.ExecutivePerPage},
			{Label: model.PersonaOperations, Titles: people.OperationsTitles, PerPage: c.People.OperationsPerPage},
		}),
	}
}

func newOrchestrator(c *config.Config, api apollo.Client, sc enrich.Scorer) *enrich.Orchestrator {
	lookup := provider.New(api)
	return enrich.NewOrchestrator(
		resolve.New(lookup, resolve.WithGuessTLDs(c.Resolve.GuessTLDs)),
		lookup,
		sc,
		enrich.WithInterRequestDelay(c.Enrich.InterRequestDelay()),
		enrich.WithRateLimitRetry(c.Enrich.MaxRetries, c.Enrich.BackoffBase()),
	)
}

// servicesFactory returns the per-key service builder used by the server.
// All services share sc and ledger.
func servicesFactory(c *config.Config, sc enrich.Scorer, ledger *cost.Ledger) func(key string) server.Services {
	return func(key string) server.Services {
		api := newAPI(c, key)
		return server.Services{
			API:      api,
			Enricher: newOrchestrator(c, api, sc),
			Searcher: people.NewSearcher(api, peopleOptions(c)...),
			Revealer: people.NewRevealer(api, ledger, peopleOptions(c)...),
		}
	}
}
