// Package pipeline implements the per-lead outreach state machine: website
// analysis, value proposition generation, message personalization, and
// delivery, with status written back to the lead store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/transport"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/hunter"
	"github.com/sells-group/outreach-cli/pkg/jina"
)

// Pipeline orchestrates the outreach stages for a batch of leads.
type Pipeline struct {
	cfg       *config.Config
	leads     store.LeadStore
	history   store.HistoryStore
	anthropic anthropic.Client
	jina      jina.Client
	verifier  hunter.Client
	email     transport.EmailSender
	sms       transport.SMSSender
	limiter   *rate.Limiter
}

// New creates a Pipeline with all dependencies. history, verifier, email,
// and sms may be nil: a nil verifier skips email verification, a nil
// transport disables that channel, a nil history disables run recording.
func New(
	cfg *config.Config,
	leads store.LeadStore,
	history store.HistoryStore,
	aiClient anthropic.Client,
	jinaClient jina.Client,
	verifier hunter.Client,
	email transport.EmailSender,
	sms transport.SMSSender,
) *Pipeline {
	pacing := time.Duration(cfg.Batch.LeadPacingSecs) * time.Second
	var limiter *rate.Limiter
	if pacing > 0 {
		limiter = rate.NewLimiter(rate.Every(pacing), 1)
	}

	return &Pipeline{
		cfg:       cfg,
		leads:     leads,
		history:   history,
		anthropic: aiClient,
		jina:      jinaClient,
		verifier:  verifier,
		email:     email,
		sms:       sms,
		limiter:   limiter,
	}
}

func (p *Pipeline) retryCfg(operation string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("pipeline", operation)
	return cfg
}

// ProcessBatch processes leads strictly in sequence: the sheet has no
// transactional isolation, so this process is its single writer. Each lead
// runs the stage machine to a terminal status and gets exactly one store
// write. Cancellation is honored at lead boundaries; the in-flight lead's
// terminal write stays intact, the rest are left untouched.
func (p *Pipeline) ProcessBatch(ctx context.Context, leads []model.Lead) (*model.BatchResult, error) {
	if p.cfg == nil {
		return nil, eris.New("pipeline: nil config")
	}
	return p.processRun(ctx, leads, p.beginRun(ctx))
}

// ProcessBatchRun is ProcessBatch under an already-created run record. The
// control surface creates the run up front so it can hand back the run id
// before processing starts.
func (p *Pipeline) ProcessBatchRun(ctx context.Context, leads []model.Lead, runID string) (*model.BatchResult, error) {
	if p.cfg == nil {
		return nil, eris.New("pipeline: nil config")
	}
	return p.processRun(ctx, leads, runID)
}

func (p *Pipeline) processRun(ctx context.Context, leads []model.Lead, runID string) (*model.BatchResult, error) {
	started := time.Now().UTC()

	model.SortLeads(leads)
	if limit := p.cfg.Batch.MaxLeads; limit > 0 && len(leads) > limit {
		zap.L().Info("capping batch size",
			zap.Int("pending", len(leads)),
			zap.Int("max_leads", limit))
		leads = leads[:limit]
	}

	result := &model.BatchResult{
		RunID:     runID,
		Counts:    make(map[model.LeadStatus]int),
		StartedAt: started,
	}

	log := zap.L().With(zap.String("run_id", result.RunID))
	log.Info("processing batch", zap.Int("leads", len(leads)))

	for i, lead := range leads {
		if ctx.Err() != nil {
			log.Warn("batch cancelled",
				zap.Int("processed", i),
				zap.Int("remaining", len(leads)-i))
			result.Cancelled = true
			break
		}

		if i > 0 && p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				result.Cancelled = true
				break
			}
		}

		outcome := p.processLead(ctx, lead)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Counts[outcome.Status]++
	}

	result.Duration = time.Since(started).Milliseconds()
	p.finishRun(ctx, result)

	log.Info("batch complete",
		zap.Int("processed", len(result.Outcomes)),
		zap.Int("sent", result.Counts[model.StatusSent]),
		zap.Int("failed", result.Counts[model.StatusFailed]),
		zap.Int("skipped", result.Counts[model.StatusSkipped]),
		zap.Bool("cancelled", result.Cancelled),
		zap.Int64("duration_ms", result.Duration))
	return result, nil
}

// processLead runs one lead through the stage machine to a terminal status
// and persists it. Stage errors never escape: they become FAILED plus a
// note. Returns the per-lead outcome for the batch result.
func (p *Pipeline) processLead(ctx context.Context, lead model.Lead) model.LeadOutcome {
	log := zap.L().With(zap.String("lead_id", lead.ID), zap.String("company", lead.Company))
	log.Info("processing lead", zap.Int("priority", lead.Priority))

	a := &attempt{lead: lead}

	p.runStages(ctx, a, log)

	p.persist(ctx, a, log)

	log.Info("lead finished", zap.String("status", a.lead.Status.String()))
	return model.LeadOutcome{
		LeadID:  a.lead.ID,
		Company: a.lead.Company,
		Status:  a.lead.Status,
		Summary: a.lead.Notes,
	}
}

func (p *Pipeline) runStages(ctx context.Context, a *attempt, log *zap.Logger) {
	// Contact validation happens before any stage or client call.
	if !a.lead.HasContact() {
		a.skip("no contact information")
		return
	}

	// Email verification gating. Failing verification drops the channel for
	// this attempt; the API being unreachable fails open.
	if a.lead.Email != "" && p.verifier != nil {
		p.verifyEmail(ctx, a, log)
		if !a.lead.HasContact() {
			a.skip("email failed verification and no phone on record")
			return
		}
	}

	// ANALYZING
	if err := a.advance(model.StatusAnalyzing); err != nil {
		a.fail(err.Error())
		return
	}
	findings, err := p.Analyze(ctx, a.lead)
	if err != nil {
		a.failStage(err)
		return
	}
	if findings.Partial {
		a.lead.AppendNote("analysis degraded to partial findings")
	}

	// GENERATING
	if err := a.advance(model.StatusGenerating); err != nil {
		a.fail(err.Error())
		return
	}
	props, err := p.Propose(ctx, findings)
	if err != nil {
		a.failStage(err)
		return
	}
	if len(props) == 0 {
		a.fail("no value proposition available")
		return
	}

	// PERSONALIZING
	if err := a.advance(model.StatusPersonalizing); err != nil {
		a.fail(err.Error())
		return
	}
	msgs, err := p.Personalize(ctx, props[0], a.lead)
	if err != nil {
		a.failStage(err)
		return
	}

	// SENDING
	if err := a.advance(model.StatusSending); err != nil {
		a.fail(err.Error())
		return
	}
	outcomes := p.Deliver(ctx, a.lead, msgs)

	delivered := false
	for _, o := range outcomes {
		if o.Delivered {
			delivered = true
			a.lead.AppendNote(fmt.Sprintf("%s delivered", o.Channel))
		} else {
			a.lead.AppendNote(fmt.Sprintf("%s failed: %s", o.Channel, o.Detail))
		}
	}

	if delivered {
		if err := a.advance(model.StatusSent); err != nil {
			a.fail(err.Error())
		}
		return
	}
	a.fail("no channel delivered")
}

// verifyEmail checks the lead's email against the verifier and drops the
// email channel on a definitive invalid verdict.
func (p *Pipeline) verifyEmail(ctx context.Context, a *attempt, log *zap.Logger) {
	verifyCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.Fetch())
	defer cancel()

	resp, err := p.verifier.VerifyEmail(verifyCtx, a.lead.Email)
	if err != nil {
		log.Warn("email verification unavailable, keeping channel", zap.Error(err))
		return
	}
	if !resp.Data.Deliverable() {
		log.Info("dropping email channel", zap.String("verdict", resp.Data.Status))
		a.lead.AppendNote(fmt.Sprintf("email %s failed verification", a.lead.Email))
		a.lead.Email = ""
	}
}

// persist writes the lead's terminal status, notes, and timestamp in one
// batched update. This is the only store write of the iteration, so the
// sheet never observes a transient state. Failure is logged and noted in
// the outcome; the batch continues.
func (p *Pipeline) persist(ctx context.Context, a *attempt, log *zap.Logger) {
	retryCfg := p.retryCfg("update lead")
	err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
		writeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeouts.Store())
		defer cancel()
		return p.leads.Update(writeCtx, a.lead.ID, a.lead.Status, a.lead.Notes, time.Now().UTC())
	})
	if err != nil {
		log.Error("failed to persist lead status", zap.Error(err))
		a.lead.AppendNote("status write failed: " + err.Error())
	}
}

// beginRun records the run in the history store, best-effort.
func (p *Pipeline) beginRun(ctx context.Context) string {
	if p.history == nil {
		return ""
	}
	run, err := p.history.CreateRun(ctx)
	if err != nil {
		zap.L().Warn("failed to create run record", zap.Error(err))
		return ""
	}
	return run.ID
}

func (p *Pipeline) finishRun(ctx context.Context, result *model.BatchResult) {
	if p.history == nil || result.RunID == "" {
		return
	}
	status := model.RunStatusComplete
	if result.Cancelled {
		status = model.RunStatusCancelled
	}
	if err := p.history.CompleteRun(ctx, result.RunID, status, result); err != nil {
		zap.L().Warn("failed to record run result", zap.Error(err))
	}
}

// attempt tracks one lead's in-memory state through a processing attempt.
type attempt struct {
	lead model.Lead
}

// advance moves the lead to the next stage status. An illegal transition is
// a programming error surfaced as a failure, never a panic.
func (a *attempt) advance(to model.LeadStatus) error {
	if !model.CanTransition(a.lead.Status, to) {
		return eris.Errorf("pipeline: illegal transition %s -> %s", a.lead.Status, to)
	}
	a.lead.Status = to
	return nil
}

func (a *attempt) skip(note string) {
	a.lead.AppendNote(note)
	a.lead.Status = model.StatusSkipped
}

func (a *attempt) fail(note string) {
	a.lead.AppendNote(note)
	a.lead.Status = model.StatusFailed
}

// failStage fails the attempt with the stage name prefixed to the note.
func (a *attempt) failStage(err error) {
	var se stageError
	if errors.As(err, &se) {
		a.fail(fmt.Sprintf("%s failed: %s", se.Stage(), err.Error()))
		return
	}
	a.fail(err.Error())
}
