package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospector/internal/model"
)

// candidateColumns maps normalized header names to a candidate field setter.
var candidateColumns = map[string]func(*model.Candidate, string){
	"company":      func(c *model.Candidate, v string) { c.Company = v },
	"company name": func(c *model.Candidate, v string) { c.Company = v },
	"domain":       func(c *model.Candidate, v string) { c.Domain = v },
	"title":        func(c *model.Candidate, v string) { c.Title = v },
	"job title":    func(c *model.Candidate, v string) { c.Title = v },
	"hiring role":  func(c *model.Candidate, v string) { c.Title = v },
	"url":          func(c *model.Candidate, v string) { c.URL = v },
	"location":     func(c *model.Candidate, v string) { c.Location = v },
	"type":         func(c *model.Candidate, v string) { c.Type = v },
	"logo":         func(c *model.Candidate, v string) { c.Logo = v },
}

// ReadCandidatesFile loads candidates from a .json, .csv or .xlsx file.
// Tabular files need a header row; unknown columns are ignored.
func ReadCandidatesFile(path string) ([]model.Candidate, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "export: open candidates")
		}
		defer f.Close() //nolint:errcheck
		return ReadCandidatesJSON(f)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "export: open candidates")
		}
		defer f.Close() //nolint:errcheck
		return ReadCandidatesCSV(f)
	case ".xlsx":
		return readCandidatesXLSX(path)
	default:
		return nil, eris.Errorf("export: unsupported candidates file %q", path)
	}
}

// ReadCandidatesJSON accepts either a bare array or {"companies": [...]}.
func ReadCandidatesJSON(r io.Reader) ([]model.Candidate, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "export: read candidates json")
	}

	var list []model.Candidate
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Companies []model.Candidate `json:"companies"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, eris.Wrap(err, "export: decode candidates json")
	}
	return wrapped.Companies, nil
}

// ReadCandidatesCSV reads a CSV with a header row.
func ReadCandidatesCSV(r io.Reader) ([]model.Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "export: read candidates csv")
	}
	return candidatesFromRows(rows), nil
}

func readCandidatesXLSX(path string) ([]model.Candidate, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "export: open candidates xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("export: %s has no sheets", path)
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return candidatesFromRows(rows), nil
}

func candidatesFromRows(rows [][]string) []model.Candidate {
	if len(rows) == 0 {
		return nil
	}

	setters := make([]func(*model.Candidate, string), len(rows[0]))
	for i, h := range rows[0] {
		setters[i] = candidateColumns[strings.ToLower(strings.TrimSpace(h))]
	}

	var out []model.Candidate
	for _, row := range rows[1:] {
		var c model.Candidate
		blank := true
		for i, v := range row {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				setters[i](&c, v)
				blank = false
			}
		}
		if !blank {
			out = append(out, c)
		}
	}
	return out
}
