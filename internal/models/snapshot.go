package models

import (
	"time"
)

// Snapshot is one durable recording of a ProductRecord tied to a viewing
// event. The (SessionID, ProductID) pair is the unique key within a store.
// Snapshots are owned exclusively by the snapshot store; no other component
// mutates them.
type Snapshot struct {
	SessionID  string        `json:"session_id"`
	ProductID  string        `json:"product_id"`
	CapturedAt time.Time     `json:"captured_at"`
	Record     ProductRecord `json:"record"`

	// Provenance, optional.
	SourceURL string `json:"source_url,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
}

// Expired reports whether the snapshot is older than maxAge at instant now.
func (s *Snapshot) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.CapturedAt) > maxAge
}
