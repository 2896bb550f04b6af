package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/outreach-cli/internal/config"
)

const configBanner = `# outreach-cli configuration.
#
# Every key can also be set via environment variable with the OUTREACH_
# prefix, e.g. OUTREACH_ANTHROPIC_KEY, OUTREACH_STORE_SPREADSHEET_ID.
# Secrets (API keys, SMTP password) are best left out of this file.
`

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented config.yaml template to the current directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "config.yaml"

		if !configInitForce {
			if _, err := os.Stat(path); err == nil {
				return eris.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		template := config.Config{
			Store: config.StoreConfig{
				CredentialsFile: "service-account.json",
				SpreadsheetID:   "your-spreadsheet-id",
				WorksheetName:   "Leads",
			},
			History: config.HistoryConfig{
				Driver:      "sqlite",
				DatabaseURL: "outreach.db",
			},
			Anthropic: config.AnthropicConfig{
				AnalysisModel:        "claude-haiku-4-5-20251001",
				GenerationModel:      "claude-sonnet-4-5-20250929",
				PersonalizationModel: "claude-sonnet-4-5-20250929",
				MaxContentChars:      12000,
			},
			Email: config.EmailConfig{
				SMTPHost:    "smtp.example.com",
				SMTPPort:    587,
				FromAddress: "outreach@example.com",
			},
			Messaging: config.MessagingConfig{SMSMaxLength: 320},
			Timeouts: config.TimeoutConfig{
				InferenceSecs: 60,
				FetchSecs:     45,
				StoreSecs:     30,
				DeliverySecs:  30,
			},
			Batch: config.BatchConfig{
				MaxLeads:       25,
				LeadPacingSecs: 5,
			},
			Server: config.ServerConfig{Port: 8080},
			Log: config.LogConfig{
				Level:  "info",
				Format: "json",
			},
		}

		data, err := yaml.Marshal(template)
		if err != nil {
			return eris.Wrap(err, "marshal config template")
		}

		if err := os.WriteFile(path, append([]byte(configBanner), data...), 0o644); err != nil {
			return eris.Wrap(err, "write config template")
		}

		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
