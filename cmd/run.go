package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process all pending leads through the outreach pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := env.Leads.FetchPending(ctx)
		if err != nil {
			return eris.Wrap(err, "fetch pending leads")
		}
		if len(leads) == 0 {
			zap.L().Info("no pending leads")
			return nil
		}

		result, err := env.Pipeline.ProcessBatch(ctx, leads)
		if err != nil {
			return eris.Wrap(err, "process batch")
		}

		zap.L().Info("batch complete",
			zap.String("run_id", result.RunID),
			zap.Int("leads", len(result.Outcomes)),
			zap.Bool("cancelled", result.Cancelled),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
