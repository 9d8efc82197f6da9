package models

import (
	"time"
)

// Severity classifies a notification message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Valid reports whether the severity is one of the known levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// NotificationMessage is derived from a flagged DetectionResult.
// Result is a non-owning back-reference to the originating verdict.
type NotificationMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`

	Severity       Severity `json:"severity"`
	ActionRequired bool     `json:"action_required"`
	Message        string   `json:"message"`

	Result *DetectionResult `json:"-"`
}
