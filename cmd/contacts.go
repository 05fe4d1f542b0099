package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/export"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/people"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Find executive and operations contacts at a domain",
	Long: `Searches Apollo for founder/executive and operations leader contacts at
--domain and prints them as JSON. Names come back obfuscated; no credits are
spent. With --out the contacts are also written as CSV.

Examples:
  contacts --domain acme.com
  contacts --domain acme.com --out .`,
	RunE: runContacts,
}

func init() {
	f := contactsCmd.Flags()
	f.String("domain", "", "company domain to search")
	f.String("out", "", "directory for a contacts CSV export")
	_ = contactsCmd.MarkFlagRequired("domain")

	rootCmd.AddCommand(contactsCmd)
}

func runContacts(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(config.ModeContacts); err != nil {
		return err
	}

	domain, _ := cmd.Flags().GetString("domain")
	outDir, _ := cmd.Flags().GetString("out")

	searcher := people.NewSearcher(newAPI(cfg, cfg.Apollo.Key), peopleOptions(cfg)...)
	contacts, err := searcher.Search(ctx, domain)
	if err != nil {
		return eris.Wrapf(err, "contacts: search %s", domain)
	}
	zap.L().Info("contacts found", zap.String("domain", domain), zap.Int("count", len(contacts)))

	if outDir != "" && len(contacts) > 0 {
		path, err := writeContacts(outDir, domain, contacts)
		if err != nil {
			return err
		}
		zap.L().Info("export written", zap.String("path", path))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"domain": domain, "contacts": contacts})
}

func writeContacts(dir, domain string, contacts []model.Contact) (path string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "contacts: create %s", dir)
	}
	path = filepath.Join(dir, export.ContactsFilename(domain, time.Now().UTC()))

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "contacts: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "contacts: close %s", path)
		}
	}()

	company := model.EnrichedCompany{Domain: domain}
	return path, export.WriteContactsCSV(f, company, contacts)
}
