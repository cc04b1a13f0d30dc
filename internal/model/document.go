package model

import (
	"strings"
	"time"
)

// Status tracks a document through the intake pipeline.
type Status string

const (
	StatusReceived     Status = "received"
	StatusAnalyzing    Status = "analyzing"
	StatusAnalyzed     Status = "analyzed"
	StatusDistributing Status = "distributing"
	StatusDistributed  Status = "distributed"
	StatusFailed       Status = "failed"
)

// HasAnalysis reports whether a document in this status carries an analysis.
func (s Status) HasAnalysis() bool {
	switch s {
	case StatusAnalyzed, StatusDistributing, StatusDistributed:
		return true
	}
	return false
}

// Urgency is the ordinal triage level assigned during analysis.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency normalizes a user-supplied urgency value.
// The second return value is false for unrecognized input.
func ParseUrgency(s string) (Urgency, bool) {
	switch Urgency(strings.ToLower(s)) {
	case UrgencyLow:
		return UrgencyLow, true
	case UrgencyMedium:
		return UrgencyMedium, true
	case UrgencyHigh:
		return UrgencyHigh, true
	}
	return "", false
}

// Document represents one ingested file plus its derived analysis and the
// latest distribution attempt. This is a pure domain model with no
// database-specific dependencies or tags; the store is its single owner and
// all mutation goes through the pipeline's transition functions.
type Document struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	StoragePath   string            `json:"storage_path"`
	SizeBytes     int64             `json:"size_bytes"`
	ContentType   string            `json:"content_type"`
	UploadedAt    time.Time         `json:"uploaded_at"`
	Status        Status            `json:"status"`
	Analysis      *DocumentAnalysis `json:"analysis,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Distribution  *Distribution     `json:"distribution,omitempty"`
}

// DocumentAnalysis is the immutable structured result of analyzing a document.
type DocumentAnalysis struct {
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points"`
	Urgency        Urgency  `json:"urgency"`
	Departments    []string `json:"departments"`
	ComplianceNote string   `json:"compliance_note"`
	ActionItems    []string `json:"action_items"`
}

// HasDepartment reports whether the analysis tags the given department.
func (a *DocumentAnalysis) HasDepartment(dept string) bool {
	for _, d := range a.Departments {
		if d == dept {
			return true
		}
	}
	return false
}

// Distribution records one attempt at notifying a recipient, successful or not.
type Distribution struct {
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sent_at"`
	Delivered bool      `json:"delivered"`
	Detail    string    `json:"detail,omitempty"`
}
