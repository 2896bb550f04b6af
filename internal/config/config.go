package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once at
// startup and passed explicitly into the pipeline so tests can construct it
// directly with fakes.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Hunter    HunterConfig    `yaml:"hunter" mapstructure:"hunter"`
	Email     EmailConfig     `yaml:"email" mapstructure:"email"`
	SMS       SMSConfig       `yaml:"sms" mapstructure:"sms"`
	Messaging MessagingConfig `yaml:"messaging" mapstructure:"messaging"`
	Timeouts  TimeoutConfig   `yaml:"timeouts" mapstructure:"timeouts"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the Google Sheets lead store.
type StoreConfig struct {
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	WorksheetName   string `yaml:"worksheet_name" mapstructure:"worksheet_name"`
}

// HistoryConfig configures the batch run-history store.
type HistoryConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds the API key and the model tier per pipeline stage.
type AnthropicConfig struct {
	Key                  string `yaml:"key" mapstructure:"key"`
	AnalysisModel        string `yaml:"analysis_model" mapstructure:"analysis_model"`
	GenerationModel      string `yaml:"generation_model" mapstructure:"generation_model"`
	PersonalizationModel string `yaml:"personalization_model" mapstructure:"personalization_model"`
	MaxContentChars      int    `yaml:"max_content_chars" mapstructure:"max_content_chars"`
}

// JinaConfig holds Jina AI Reader/Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// HunterConfig holds hunter.io email verification settings. Verification is
// skipped entirely when the key is empty.
type HunterConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// EmailConfig configures the SMTP transport.
type EmailConfig struct {
	SMTPHost    string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort    int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	FromAddress string `yaml:"from_address" mapstructure:"from_address"`
}

// SMSConfig configures the Textfully SMS transport.
type SMSConfig struct {
	Key    string `yaml:"key" mapstructure:"key"`
	Sender string `yaml:"sender" mapstructure:"sender"`
}

// MessagingConfig configures message constraints.
type MessagingConfig struct {
	SMSMaxLength int `yaml:"sms_max_length" mapstructure:"sms_max_length"`
}

// TimeoutConfig holds per-call timeouts in seconds. Each external call gets
// its own deadline; expiry fails that stage, never the batch.
type TimeoutConfig struct {
	InferenceSecs int `yaml:"inference_secs" mapstructure:"inference_secs"`
	FetchSecs     int `yaml:"fetch_secs" mapstructure:"fetch_secs"`
	StoreSecs     int `yaml:"store_secs" mapstructure:"store_secs"`
	DeliverySecs  int `yaml:"delivery_secs" mapstructure:"delivery_secs"`
}

// Inference returns the inference timeout as a duration.
func (t TimeoutConfig) Inference() time.Duration { return secs(t.InferenceSecs, 60) }

// Fetch returns the content-fetch timeout as a duration.
func (t TimeoutConfig) Fetch() time.Duration { return secs(t.FetchSecs, 45) }

// Store returns the store read/write timeout as a duration.
func (t TimeoutConfig) Store() time.Duration { return secs(t.StoreSecs, 30) }

// Delivery returns the per-channel delivery timeout as a duration.
func (t TimeoutConfig) Delivery() time.Duration { return secs(t.DeliverySecs, 30) }

func secs(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxLeads       int `yaml:"max_leads" mapstructure:"max_leads"`
	LeadPacingSecs int `yaml:"lead_pacing_secs" mapstructure:"lead_pacing_secs"`
}

// ServerConfig configures the control-surface HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.worksheet_name", "Leads")
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.database_url", "outreach.db")
	v.SetDefault("anthropic.analysis_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.generation_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.personalization_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_content_chars", 12000)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("messaging.sms_max_length", 320)
	v.SetDefault("timeouts.inference_secs", 60)
	v.SetDefault("timeouts.fetch_secs", 45)
	v.SetDefault("timeouts.store_secs", 30)
	v.SetDefault("timeouts.delivery_secs", 30)
	v.SetDefault("batch.max_leads", 25)
	v.SetDefault("batch.lead_pacing_secs", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
