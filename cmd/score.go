package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/model"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an organization profile against the ICP rubric",
	Long: `Reads an Apollo organization profile and prints its ICP score with the
per-factor breakdown. No provider calls are made.

The input is either the bare organization object or the enrichment response
wrapper {"organization": {...}}.

Examples:
  score --input acme.json --title "Customer Success Manager"`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "organization JSON file")
	f.String("title", "", "hiring job title used for the hiring signal factor")
	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(config.ModeScore); err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	title, _ := cmd.Flags().GetString("title")

	org, err := readOrganization(input)
	if err != nil {
		return err
	}

	sc, err := newScorer(cfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sc.Score(org, title))
}

func readOrganization(path string) (*model.Organization, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "score: read %s", path)
	}

	var wrapped struct {
		Organization *model.Organization `json:"organization"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Organization != nil {
		return wrapped.Organization, nil
	}

	var org model.Organization
	if err := json.Unmarshal(b, &org); err != nil {
		return nil, eris.Wrapf(err, "score: parse %s", path)
	}
	return &org, nil
}
