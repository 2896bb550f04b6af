package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and manage leads in the store",
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads, optionally filtered by status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initLeadStore(ctx)
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetString("status")
		status, err := parseStatusFlag(raw)
		if err != nil {
			return err
		}

		leads, err := st.FetchByStatus(ctx, status)
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		model.SortLeads(leads)
		formatLeadsList(os.Stdout, leads)
		return nil
	},
}

// -- leads requeue --

var leadsRequeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Reset FAILED leads to pending for the next batch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initLeadStore(ctx)
		if err != nil {
			return err
		}

		leads, err := st.FetchByStatus(ctx, model.StatusFailed)
		if err != nil {
			return eris.Wrap(err, "fetch failed leads")
		}
		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No failed leads to requeue.")
			return nil
		}

		now := time.Now().UTC()
		requeued := 0
		for _, lead := range leads {
			lead.AppendNote("requeued " + now.Format("2006-01-02"))
			if err := st.Update(ctx, lead.ID, model.StatusPending, lead.Notes, now); err != nil {
				zap.L().Error("failed to requeue lead",
					zap.String("lead_id", lead.ID),
					zap.String("company", lead.Company),
					zap.Error(err))
				continue
			}
			requeued++
		}

		fmt.Printf("Requeued %d of %d failed leads.\n", requeued, len(leads))
		return nil
	},
}

func init() {
	leadsListCmd.Flags().String("status", "PENDING", "lead status to list (PENDING, SENT, FAILED, SKIPPED, ...)")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsRequeueCmd)
	rootCmd.AddCommand(leadsCmd)
}

// parseStatusFlag resolves the --status flag. "PENDING" (and the empty
// string) mean the blank-cell pending state; anything else must be a known
// status name.
func parseStatusFlag(raw string) (model.LeadStatus, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" || raw == "PENDING" {
		return model.StatusPending, nil
	}
	status := model.ParseLeadStatus(raw)
	if status == model.StatusFailed && raw != string(model.StatusFailed) {
		return "", eris.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// formatLeadsList writes a tabular list of leads to w.
func formatLeadsList(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROW\tCOMPANY\tCONTACT\tEMAIL\tPHONE\tPRI\tSTATUS\tNOTES")
	_, _ = fmt.Fprintln(w, "---\t-------\t-------\t-----\t-----\t---\t------\t-----")

	for _, l := range leads {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			l.ID,
			truncate(l.Company, 30),
			truncate(l.ContactPerson, 24),
			truncate(l.Email, 30),
			l.Phone,
			l.Priority,
			l.Status,
			truncate(l.Notes, 40),
		)
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
