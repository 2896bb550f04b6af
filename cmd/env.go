package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/pipeline"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/transport"
	anthropicpkg "github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/hunter"
	"github.com/sells-group/outreach-cli/pkg/jina"
	"github.com/sells-group/outreach-cli/pkg/textfully"
)

// outreachEnv holds the initialized stores, transports, and pipeline shared
// by the run and serve commands.
type outreachEnv struct {
	Leads    store.LeadStore
	History  store.HistoryStore
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *outreachEnv) Close() {
	if e.History != nil {
		_ = e.History.Close()
	}
}

// initLeadStore builds the Google Sheets lead store from config.
func initLeadStore(ctx context.Context) (*store.SheetsStore, error) {
	return store.NewSheets(ctx, cfg.Store.CredentialsFile, cfg.Store.SpreadsheetID, cfg.Store.WorksheetName)
}

// initEnv sets up both stores, all API clients, and the pipeline. Callers
// should defer env.Close().
func initEnv(ctx context.Context) (*outreachEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic key is required (OUTREACH_ANTHROPIC_KEY)")
	}

	leads, err := initLeadStore(ctx)
	if err != nil {
		return nil, err
	}

	history, err := initHistoryStore(ctx)
	if err != nil {
		return nil, err
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	jinaOpts := []jina.Option{}
	if cfg.Jina.BaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithBaseURL(cfg.Jina.BaseURL))
	}
	if cfg.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jinaOpts...)

	// Email verification is optional.
	var verifier hunter.Client
	if cfg.Hunter.Key != "" {
		verifier = hunter.NewClient(cfg.Hunter.Key)
		zap.L().Info("email verification enabled")
	}

	// Transports are optional; a missing one disables that channel.
	var emailSender transport.EmailSender
	if cfg.Email.SMTPHost != "" {
		s, err := transport.NewSMTPSender(cfg.Email)
		if err != nil {
			_ = history.Close()
			return nil, err
		}
		emailSender = s
	} else {
		zap.L().Warn("smtp not configured, email channel disabled")
	}

	var smsSender transport.SMSSender
	if cfg.SMS.Key != "" {
		smsSender = transport.NewTextfullySender(
			textfully.NewClient(cfg.SMS.Key, textfully.WithSender(cfg.SMS.Sender)))
	} else {
		zap.L().Warn("textfully not configured, sms channel disabled")
	}

	p := pipeline.New(cfg, leads, history, anthropicClient, jinaClient, verifier, emailSender, smsSender)

	return &outreachEnv{Leads: leads, History: history, Pipeline: p}, nil
}
