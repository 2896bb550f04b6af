package model

import (
	"sort"
	"strings"
	"time"
)

// LeadStatus represents the processing state of a lead. The empty string is
// PENDING: the sheet leaves the STATUS column blank for unprocessed rows.
type LeadStatus string

const (
	StatusPending       LeadStatus = ""
	StatusAnalyzing     LeadStatus = "ANALYZING"
	StatusGenerating    LeadStatus = "GENERATING"
	StatusPersonalizing LeadStatus = "PERSONALIZING"
	StatusSending       LeadStatus = "SENDING"
	StatusSent          LeadStatus = "SENT"
	StatusFailed        LeadStatus = "FAILED"
	StatusSkipped       LeadStatus = "SKIPPED"
)

// ParseLeadStatus normalizes a raw STATUS cell value. Unknown values map to
// FAILED so a hand-edited sheet can never put a row into an undefined state.
func ParseLeadStatus(raw string) LeadStatus {
	switch LeadStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending, StatusAnalyzing, StatusGenerating, StatusPersonalizing,
		StatusSending, StatusSent, StatusFailed, StatusSkipped:
		return LeadStatus(strings.ToUpper(strings.TrimSpace(raw)))
	default:
		return StatusFailed
	}
}

// Terminal reports whether a status ends a processing attempt.
func (s LeadStatus) Terminal() bool {
	switch s {
	case StatusSent, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// String renders the status, making the PENDING zero value readable in logs.
func (s LeadStatus) String() string {
	if s == StatusPending {
		return "PENDING"
	}
	return string(s)
}

// transitions is the monotonic per-attempt state machine. FAILED is reachable
// from every in-flight state (stage failure short-circuits the pipeline);
// SKIPPED only from PENDING.
var transitions = map[LeadStatus][]LeadStatus{
	StatusPending:       {StatusAnalyzing, StatusSkipped},
	StatusAnalyzing:     {StatusGenerating, StatusFailed},
	StatusGenerating:    {StatusPersonalizing, StatusFailed},
	StatusPersonalizing: {StatusSending, StatusFailed},
	StatusSending:       {StatusSent, StatusFailed},
}

// CanTransition reports whether moving from one status to another is legal
// within a single processing attempt.
func CanTransition(from, to LeadStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Lead is one prospect row from the backing sheet. The orchestrator never
// creates or deletes leads; it only advances Status and appends to Notes.
type Lead struct {
	ID            string     `json:"id"`
	ContactPerson string     `json:"contact_person"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Company       string     `json:"company"`
	Website       string     `json:"website,omitempty"`
	Status        LeadStatus `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	Priority      int        `json:"priority"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Source        string     `json:"source,omitempty"`
}

// HasContact reports whether at least one delivery channel has a target.
func (l Lead) HasContact() bool {
	return l.Email != "" || l.Phone != ""
}

// AppendNote adds an entry to the notes trail. Entries are separated by "; "
// and never overwrite earlier entries within an attempt.
func (l *Lead) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if l.Notes == "" {
		l.Notes = note
		return
	}
	l.Notes += "; " + note
}

// SortLeads orders leads by descending priority, breaking ties by ascending
// creation time. The sort is stable so equal rows keep their sheet order.
func SortLeads(leads []Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].Priority != leads[j].Priority {
			return leads[i].Priority > leads[j].Priority
		}
		return leads[i].CreatedAt.Before(leads[j].CreatedAt)
	})
}
