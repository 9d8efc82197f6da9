// Package snapshot provides durable storage of first-observed product
// state, keyed by (session, product). The stored snapshot is the baseline
// that later verification runs compare against.
package snapshot

import (
	"time"

	"github.com/baitwatch/baitwatch/internal/models"
)

// PutOptions carries optional provenance recorded with a snapshot.
type PutOptions struct {
	SourceURL string
	AgentID   string
}

// Store is the snapshot store contract. All operations are total: missing
// keys yield an explicit not-found signal, never an error or panic. Put is
// atomic with respect to concurrent Gets on the same key.
type Store interface {
	// Put records a snapshot for (sessionID, productID) with the current
	// time as capture instant. Whether an existing snapshot is replaced
	// depends on the store's overwrite policy.
	Put(sessionID, productID string, record models.ProductRecord, opts PutOptions) error

	// Get returns the snapshot for the key, or false when absent.
	Get(sessionID, productID string) (*models.Snapshot, bool)

	// ListForSession returns all snapshots of a session, unordered.
	ListForSession(sessionID string) []models.Snapshot

	// Remove deletes the snapshot for the key, reporting whether one
	// existed.
	Remove(sessionID, productID string) bool

	// SweepExpired removes every snapshot older than maxAge and prunes
	// sessions left empty, returning the number removed.
	SweepExpired(maxAge time.Duration) int

	// Close releases any underlying resources.
	Close() error
}

// Options configures store behavior shared by all implementations.
type Options struct {
	// PreserveFirstView keeps the very first observation as the deception
	// baseline: a Put for an existing key becomes a no-op. The default is
	// last-view-wins, where a re-view replaces the baseline.
	PreserveFirstView bool
}
