// Package importer parses lead workbooks (xlsx) into lead records, with
// header mapping and name standardization.
package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/outreach-cli/internal/model"
)

// headerSynonyms maps normalized workbook headers to canonical fields.
// Normalization lowercases and strips spaces, underscores, and dashes.
var headerSynonyms = map[string]string{
	"contactperson": "contact_person",
	"contact":       "contact_person",
	"name":          "contact_person",
	"fullname":      "contact_person",
	"contactemail":  "email",
	"email":         "email",
	"emailaddress":  "email",
	"contactphone":  "phone",
	"phone":         "phone",
	"phonenumber":   "phone",
	"mobile":        "phone",
	"company":       "company",
	"companyname":   "company",
	"organization":  "company",
	"website":       "website",
	"url":           "website",
	"source":        "source",
	"priority":      "priority",
	"notes":         "notes",
}

var titleCaser = cases.Title(language.English)

// ReadWorkbook parses the given sheet (first sheet when name is empty) into
// lead records. The first row must be a header; unrecognized columns are
// ignored. Rows with neither a company nor a contact person are dropped.
func ReadWorkbook(path, sheetName string) ([]model.Lead, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open workbook")
	}

	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("importer: workbook sheet is empty")
	}

	columns := mapHeader(rowToStrings(sheet.Rows[0]))
	if _, ok := columns["company"]; !ok {
		return nil, eris.New("importer: no company column found in header")
	}

	now := time.Now().UTC()
	var leads []model.Lead
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		lead := leadFromCells(cells, columns, now)
		if lead.Company == "" && lead.ContactPerson == "" {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

// mapHeader resolves each header cell to a canonical field, keyed by column
// index.
func mapHeader(header []string) map[string]int {
	columns := make(map[string]int)
	for i, h := range header {
		norm := normalizeHeader(h)
		if field, ok := headerSynonyms[norm]; ok {
			if _, taken := columns[field]; !taken {
				columns[field] = i
			}
		}
	}
	return columns
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	for _, r := range []string{" ", "_", "-"} {
		h = strings.ReplaceAll(h, r, "")
	}
	return h
}

func leadFromCells(cells []string, columns map[string]int, now time.Time) model.Lead {
	get := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	priority := 0
	if raw := get("priority"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			priority = n
		}
	}

	source := get("source")
	if source == "" {
		source = "import"
	}

	return model.Lead{
		ContactPerson: StandardizeName(get("contact_person")),
		Email:         strings.ToLower(get("email")),
		Phone:         get("phone"),
		Company:       get("company"),
		Website:       get("website"),
		Notes:         get("notes"),
		Priority:      priority,
		Source:        source,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// StandardizeName title-cases a person name that may arrive in all caps or
// all lowercase from hand-maintained spreadsheets.
func StandardizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(name))
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}
