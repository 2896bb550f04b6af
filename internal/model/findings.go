package model

import "time"

// Findings is the structured output of the analysis stage.
type Findings struct {
	BusinessDescription string   `json:"business_description"`
	ExportsDetected     bool     `json:"exports_detected"`
	PainPoints          []string `json:"pain_points"`

	// Partial marks findings recovered from a malformed model response where
	// only the business description was salvageable.
	Partial bool `json:"partial,omitempty"`

	// SourceURL is the page the analysis was derived from.
	SourceURL string `json:"source_url,omitempty"`
}

// ValueProposition pairs a detected pain point with a generated benefit
// claim. Lists are ordered highest relevance first, in the order the model
// produced them.
type ValueProposition struct {
	PainPoint   string `json:"pain_point"`
	Proposition string `json:"proposition"`
}

// Messages holds the channel-specific bodies produced by personalization.
// A body is empty when its channel had no contact target on the lead.
type Messages struct {
	EmailSubject string `json:"email_subject,omitempty"`
	EmailBody    string `json:"email_body,omitempty"`
	SMSBody      string `json:"sms_body,omitempty"`
}

// Channel identifies an outreach medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// DeliveryOutcome records one channel's send attempt for one lead.
type DeliveryOutcome struct {
	Channel   Channel `json:"channel"`
	Delivered bool    `json:"delivered"`
	Detail    string  `json:"detail,omitempty"`
}

// LeadOutcome is the per-lead entry in a batch result.
type LeadOutcome struct {
	LeadID  string     `json:"lead_id"`
	Company string     `json:"company"`
	Status  LeadStatus `json:"status"`
	Summary string     `json:"summary"`
}

// BatchResult is the aggregate outcome of one ProcessBatch invocation,
// returned to the display surface and persisted to run history.
type BatchResult struct {
	RunID     string             `json:"run_id"`
	Outcomes  []LeadOutcome      `json:"outcomes"`
	Counts    map[LeadStatus]int `json:"counts"`
	StartedAt time.Time          `json:"started_at"`
	Duration  int64              `json:"duration_ms"`
	Cancelled bool               `json:"cancelled,omitempty"`
}

// RunStatus tracks a batch run in the history store.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusComplete  RunStatus = "complete"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded batch invocation.
type Run struct {
	ID        string       `json:"id"`
	Status    RunStatus    `json:"status"`
	Result    *BatchResult `json:"result,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
