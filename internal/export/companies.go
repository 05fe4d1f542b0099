// Package export writes enrichment results and contacts as CSV or XLSX and
// reads candidate lists back in.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospector/internal/model"
)

// SheetName is the worksheet written by WriteCompaniesXLSX.
const SheetName = "Prospects"

const listSep = "; "

// CompanyHeaders are the column names of a companies export.
var CompanyHeaders = []string{
	"Company Name",
	"Domain",
	"Industry",
	"Employees",
	"Annual Revenue",
	"Funding Stage",
	"Total Funding",
	"Founded Year",
	"City",
	"State",
	"Country",
	"LinkedIn URL",
	"Website URL",
	"Hiring Role",
	"ICP Score",
	"Tech Stack",
	"Keywords",
	"Company Description",
}

// CompanyRow flattens an enriched company into export columns. Printed
// revenue and funding are preferred over raw amounts.
func CompanyRow(c model.EnrichedCompany) []string {
	return []string{
		c.CompanyName,
		c.Domain,
		c.Industry,
		intOrBlank(c.EstimatedNumEmployees),
		firstNonEmpty(c.AnnualRevenuePrinted, floatOrBlank(c.AnnualRevenue)),
		c.LatestFundingStage,
		firstNonEmpty(c.TotalFundingPrinted, floatOrBlank(c.TotalFunding)),
		intOrBlank(c.FoundedYear),
		c.City,
		c.State,
		c.Country,
		c.LinkedInURL,
		c.WebsiteURL,
		c.ScrapedJobTitle,
		strconv.Itoa(c.ICPScore),
		strings.Join(c.TechnologyNames, listSep),
		strings.Join(c.Keywords, listSep),
		firstNonEmpty(c.ShortDescription, c.SEODescription),
	}
}

// WriteCompaniesCSV writes a header row and one row per company.
func WriteCompaniesCSV(w io.Writer, companies []model.EnrichedCompany) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CompanyHeaders); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for i, c := range companies {
		if err := cw.Write(CompanyRow(c)); err != nil {
			return eris.Wrapf(err, "export: write csv row %d", i)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteCompaniesXLSX writes the same columns as WriteCompaniesCSV to a
// single worksheet.
func WriteCompaniesXLSX(w io.Writer, companies []model.EnrichedCompany) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, CompanyHeaders)
	for _, c := range companies {
		row := CompanyRow(c)
		cells := addRow(sheet, row)
		// Numeric columns stay numeric so spreadsheets can sort them.
		for _, col := range []int{3, 7, 14} {
			if n, err := strconv.Atoi(row[col]); err == nil {
				cells[col].SetInt(n)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// CompaniesFilename returns the attachment name for a companies export.
func CompaniesFilename(ext string, now time.Time) string {
	return "prospects_" + now.Format(time.DateOnly) + "." + ext
}

func addRow(sheet *xlsx.Sheet, values []string) []*xlsx.Cell {
	row := sheet.AddRow()
	cells := make([]*xlsx.Cell, len(values))
	for i, v := range values {
		cells[i] = row.AddCell()
		cells[i].SetString(v)
	}
	return cells
}

func intOrBlank(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func floatOrBlank(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
