package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Worksheet column layout, A through J. The STATUS cell is blank for
// unprocessed rows.
const (
	colContactPerson = iota
	colContactEmail
	colContactPhone
	colCompany
	colStatus
	colNotes
	colTimestamp
	colLastUpdated
	colSource
	colPriority
	columnCount
)

// sheetHeader is the expected first row of the worksheet.
var sheetHeader = []string{
	"CONTACT_PERSON", "CONTACT_EMAIL", "CONTACT_PHONE", "COMPANY", "STATUS",
	"NOTES", "TIMESTAMP", "LAST_UPDATED", "SOURCE", "PRIORITY",
}

// sheetTimeLayout is the timestamp format used in the TIMESTAMP and
// LAST_UPDATED columns.
const sheetTimeLayout = "2006-01-02 15:04:05"

// leadFromRow decodes one worksheet row. rowNum is the 1-based sheet row
// number and becomes the lead ID, so updates can address the row directly.
// Short rows are padded; malformed timestamps and priorities decode to zero
// values rather than failing the fetch.
func leadFromRow(rowNum int, row []any) model.Lead {
	cells := make([]string, columnCount)
	for i := 0; i < columnCount && i < len(row); i++ {
		cells[i] = cellString(row[i])
	}

	return model.Lead{
		ID:            strconv.Itoa(rowNum),
		ContactPerson: cells[colContactPerson],
		Email:         cells[colContactEmail],
		Phone:         cells[colContactPhone],
		Company:       cells[colCompany],
		Status:        model.ParseLeadStatus(cells[colStatus]),
		Notes:         cells[colNotes],
		CreatedAt:     parseSheetTime(cells[colTimestamp]),
		UpdatedAt:     parseSheetTime(cells[colLastUpdated]),
		Source:        cells[colSource],
		Priority:      parsePriority(cells[colPriority]),
	}
}

// rowFromLead encodes a lead as a worksheet row for appending. A blank
// status encodes as an empty cell, marking the row pending.
func rowFromLead(l model.Lead) []any {
	status := ""
	if l.Status != model.StatusPending {
		status = string(l.Status)
	}
	return []any{
		l.ContactPerson,
		l.Email,
		l.Phone,
		l.Company,
		status,
		l.Notes,
		formatSheetTime(l.CreatedAt),
		formatSheetTime(l.UpdatedAt),
		l.Source,
		strconv.Itoa(l.Priority),
	}
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func parseSheetTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(sheetTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatSheetTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(sheetTimeLayout)
}

func parsePriority(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
