package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/importer"
)

var (
	importFilePath  string
	importSheetName string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from an xlsx workbook into the lead store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		leads, err := importer.ReadWorkbook(importFilePath, importSheetName)
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			return eris.New("no leads found in workbook")
		}

		st, err := initLeadStore(ctx)
		if err != nil {
			return err
		}

		if err := st.EnsureHeader(ctx); err != nil {
			return err
		}
		if err := st.Append(ctx, leads); err != nil {
			return eris.Wrap(err, "append leads")
		}

		zap.L().Info("import complete",
			zap.Int("imported", len(leads)),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to xlsx workbook (required)")
	importCmd.Flags().StringVar(&importSheetName, "sheet", "", "worksheet name (default: first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
