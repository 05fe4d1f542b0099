package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/enrich"
	"github.com/sells-group/prospector/internal/export"
	"github.com/sells-group/prospector/internal/model"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a candidate file and write the results",
	Long: `Resolves, enriches and scores every candidate in --input, streaming
progress events to stdout as JSON lines.

The input may be JSON (an array or {"companies": [...]}), CSV or XLSX with
company, domain, title, url and location columns.

Examples:
  enrich --input candidates.json --out prospects.xlsx
  enrich --input jobs.csv --out prospects.csv --quiet`,
	RunE: runEnrich,
}

func init() {
	f := enrichCmd.Flags()
	f.String("input", "", "candidate file (.json, .csv or .xlsx)")
	f.String("out", "", "export path (.csv or .xlsx); omit to skip the export")
	f.Bool("quiet", false, "suppress progress events on stdout")
	_ = enrichCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(config.ModeEnrich); err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	out, _ := cmd.Flags().GetString("out")
	quiet, _ := cmd.Flags().GetBool("quiet")

	format, err := exportFormat(out)
	if err != nil {
		return err
	}

	cands, err := export.ReadCandidatesFile(input)
	if err != nil {
		return err
	}
	if err := model.ValidateCandidates(cands); err != nil {
		return eris.Wrap(err, "enrich: invalid input")
	}

	sc, err := newScorer(cfg)
	if err != nil {
		return err
	}
	orch := newOrchestrator(cfg, newAPI(cfg, cfg.Apollo.Key), sc)

	sink := func(enrich.Event) {}
	if !quiet {
		sink = jsonLines(cmd.OutOrStdout())
	}

	log := zap.L().With(zap.String("command", "enrich"), zap.Int("companies", len(cands)))
	log.Info("enrich started")

	results, runErr := orch.Run(ctx, cands, sink)
	log.Info("enrich finished",
		zap.Int("successful", model.CountStatus(results, model.StatusSuccess)),
		zap.Int("not_found", model.CountStatus(results, model.StatusNotFound)),
		zap.Int("failed", model.CountStatus(results, model.StatusFailed)),
	)

	if out != "" && len(results) > 0 {
		if err := writeCompanies(out, format, results); err != nil {
			return err
		}
		log.Info("export written", zap.String("path", out))
	}

	return runErr
}

// exportFormat returns "csv" or "xlsx" from the path's extension.
func exportFormat(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "csv", "xlsx":
		return ext, nil
	default:
		return "", eris.Errorf("enrich: --out must end in .csv or .xlsx (got %q)", path)
	}
}

func writeCompanies(path, format string, results []model.EnrichedCompany) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "enrich: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "enrich: close %s", path)
		}
	}()

	if format == "xlsx" {
		return export.WriteCompaniesXLSX(f, results)
	}
	return export.WriteCompaniesCSV(f, results)
}

// jsonLines writes each event as one JSON object per line.
func jsonLines(w io.Writer) enrich.Sink {
	enc := json.NewEncoder(w)
	return func(ev enrich.Event) {
		if err := enc.Encode(ev); err != nil {
			zap.L().Warn("write event", zap.Error(err))
		}
	}
}
