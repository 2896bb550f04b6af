// Package store provides lead persistence on Google Sheets and batch run
// history on SQLite or PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// LeadStore is the lead persistence interface. The production implementation
// is backed by a Google Sheets worksheet; tests substitute fakes.
type LeadStore interface {
	// FetchPending returns leads whose STATUS cell is blank, ordered by
	// descending priority then ascending creation time.
	FetchPending(ctx context.Context) ([]model.Lead, error)

	// Update writes status, notes, and the last-updated timestamp for one
	// lead in a single batched call.
	Update(ctx context.Context, id string, status model.LeadStatus, notes string, updatedAt time.Time) error

	// Append adds new lead rows after the existing ones.
	Append(ctx context.Context, leads []model.Lead) error

	// FetchByStatus returns leads currently in the given status.
	FetchByStatus(ctx context.Context, status model.LeadStatus) ([]model.Lead, error)
}

// RunFilter specifies criteria for listing batch runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// HistoryStore records batch run outcomes.
type HistoryStore interface {
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.BatchResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// OpenHistory constructs the history store named by driver.
func OpenHistory(ctx context.Context, driver, databaseURL string) (HistoryStore, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown history driver %q", driver)
	}
}
