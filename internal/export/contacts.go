package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
)

// ContactHeaders are the column names of a contacts export.
var ContactHeaders = []string{
	"Company Name",
	"Company Domain",
	"Company ICP Score",
	"Company Industry",
	"Company Employees",
	"Contact Full Name",
	"Contact Title",
	"Contact Seniority Level",
	"Contact Email",
	"Contact Phone",
	"Contact LinkedIn URL",
	"Contact Department",
	"Persona Type",
	"Email Status",
	"Phone Status",
}

// ContactRow flattens a contact and its company into export columns.
func ContactRow(company model.EnrichedCompany, c model.Contact) []string {
	return []string{
		firstNonEmpty(company.MatchedName, company.CompanyName),
		company.Domain,
		intOrBlank(company.ICPScore),
		company.Industry,
		intOrBlank(company.EstimatedNumEmployees),
		c.Name,
		c.Title,
		c.Seniority,
		c.EmailValue,
		c.PhoneValue,
		c.LinkedInURL,
		strings.Join(c.Departments, listSep),
		c.PersonaType,
		c.EmailStatus.Label(),
		c.PhoneStatus.Label(),
	}
}

// WriteContactsCSV writes a header row and one row per contact.
func WriteContactsCSV(w io.Writer, company model.EnrichedCompany, contacts []model.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ContactHeaders); err != nil {
		return eris.Wrap(err, "export: write contacts header")
	}
	for i, c := range contacts {
		if err := cw.Write(ContactRow(company, c)); err != nil {
			return eris.Wrapf(err, "export: write contact row %d", i)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush contacts csv")
}

// ContactsFilename returns the attachment name for a contacts export, e.g.
// "acme_com_contacts_2025-07-01.csv".
func ContactsFilename(domain string, now time.Time) string {
	base := strings.ReplaceAll(domain, ".", "_")
	if base == "" {
		base = "company"
	}
	return base + "_contacts_" + now.Format(time.DateOnly) + ".csv"
}

// Disposition returns an attachment Content-Disposition header value.
func Disposition(filename string) string {
	return "attachment; filename=" + strconv.Quote(filename)
}
