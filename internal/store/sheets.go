package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sells-group/outreach-cli/internal/model"
)

// firstDataRow is the 1-based sheet row where lead data starts, row 1 being
// the header.
const firstDataRow = 2

// SheetsStore implements LeadStore on a Google Sheets worksheet. The sheet
// is the system of record; this process is its only writer while a batch is
// in flight.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewSheets creates a SheetsStore using a service-account credentials file.
func NewSheets(ctx context.Context, credentialsFile, spreadsheetID, worksheet string) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, eris.New("sheets: spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create service")
	}
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}, nil
}

// fetchAll reads every data row of the worksheet.
func (s *SheetsStore) fetchAll(ctx context.Context) ([]model.Lead, error) {
	readRange := fmt.Sprintf("%s!A%d:J", s.worksheet, firstDataRow)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrap(err, "sheets: read rows")
	}

	leads := make([]model.Lead, 0, len(resp.Values))
	for i, row := range resp.Values {
		lead := leadFromRow(firstDataRow+i, row)
		if lead.Company == "" && lead.ContactPerson == "" {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func (s *SheetsStore) FetchPending(ctx context.Context) ([]model.Lead, error) {
	leads, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	var pending []model.Lead
	for _, l := range leads {
		if l.Status == model.StatusPending {
			pending = append(pending, l)
		}
	}
	model.SortLeads(pending)

	zap.L().Debug("fetched pending leads",
		zap.Int("total_rows", len(leads)),
		zap.Int("pending", len(pending)))
	return pending, nil
}

func (s *SheetsStore) FetchByStatus(ctx context.Context, status model.LeadStatus) ([]model.Lead, error) {
	leads, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	var matched []model.Lead
	for _, l := range leads {
		if l.Status == status {
			matched = append(matched, l)
		}
	}
	model.SortLeads(matched)
	return matched, nil
}

// Update writes STATUS, NOTES, and LAST_UPDATED for one row in a single
// batched values update. The lead ID is the sheet row number.
func (s *SheetsStore) Update(ctx context.Context, id string, status model.LeadStatus, notes string, updatedAt time.Time) error {
	rowNum, err := strconv.Atoi(id)
	if err != nil || rowNum < firstDataRow {
		return eris.Errorf("sheets: invalid lead id %q", id)
	}

	statusCell := ""
	if status != model.StatusPending {
		statusCell = string(status)
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*sheets.ValueRange{
			{
				Range:  fmt.Sprintf("%s!E%d:F%d", s.worksheet, rowNum, rowNum),
				Values: [][]any{{statusCell, notes}},
			},
			{
				Range:  fmt.Sprintf("%s!H%d", s.worksheet, rowNum),
				Values: [][]any{{formatSheetTime(updatedAt)}},
			},
		},
	}

	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return eris.Wrapf(err, "sheets: update row %d", rowNum)
	}
	return nil
}

// EnsureHeader writes the column header row when the worksheet is empty, so
// imports into a fresh sheet produce a well-formed store.
func (s *SheetsStore) EnsureHeader(ctx context.Context) error {
	readRange := fmt.Sprintf("%s!A1:J1", s.worksheet)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return eris.Wrap(err, "sheets: read header")
	}
	if len(resp.Values) > 0 {
		return nil
	}

	header := make([]any, len(sheetHeader))
	for i, h := range sheetHeader {
		header[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]any{header}}
	_, err = s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, readRange, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrap(err, "sheets: write header")
	}

	zap.L().Info("wrote worksheet header", zap.String("worksheet", s.worksheet))
	return nil
}

// Append adds lead rows after the last data row.
func (s *SheetsStore) Append(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	values := make([][]any, 0, len(leads))
	for _, l := range leads {
		values = append(values, rowFromLead(l))
	}

	vr := &sheets.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, fmt.Sprintf("%s!A:J", s.worksheet), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrapf(err, "sheets: append %d rows", len(leads))
	}

	zap.L().Info("appended leads to sheet", zap.Int("count", len(leads)))
	return nil
}
