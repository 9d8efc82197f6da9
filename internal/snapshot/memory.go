package snapshot

import (
	"sync"
	"time"

	"github.com/baitwatch/baitwatch/internal/logger"
	"github.com/baitwatch/baitwatch/internal/models"
)

// MemoryStore is the reference in-memory snapshot store. It is safe for
// concurrent use across sessions.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*models.Snapshot
	opts     Options

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]*models.Snapshot),
		opts:     opts,
		now:      time.Now,
	}
}

func (s *MemoryStore) Put(sessionID, productID string, record models.ProductRecord, opts PutOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, ok := s.sessions[sessionID]
	if !ok {
		products = make(map[string]*models.Snapshot)
		s.sessions[sessionID] = products
	}
	if _, exists := products[productID]; exists && s.opts.PreserveFirstView {
		logger.Debug("snapshot for session %s product %s preserved (first-view policy)", sessionID, productID)
		return nil
	}

	products[productID] = &models.Snapshot{
		SessionID:  sessionID,
		ProductID:  productID,
		CapturedAt: s.now(),
		Record:     *record.Clone(),
		SourceURL:  opts.SourceURL,
		AgentID:    opts.AgentID,
	}
	logger.Info("snapshot stored: session %s, product %s", sessionID, productID)
	return nil
}

func (s *MemoryStore) Get(sessionID, productID string) (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.sessions[sessionID][productID]
	if !ok {
		logger.Warn("snapshot not found: session %s, product %s", sessionID, productID)
		return nil, false
	}
	cp := *snap
	cp.Record = *snap.Record.Clone()
	return &cp, true
}

func (s *MemoryStore) ListForSession(sessionID string) []models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := s.sessions[sessionID]
	out := make([]models.Snapshot, 0, len(products))
	for _, snap := range products {
		cp := *snap
		cp.Record = *snap.Record.Clone()
		out = append(out, cp)
	}
	return out
}

func (s *MemoryStore) Remove(sessionID, productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	if _, ok := products[productID]; !ok {
		return false
	}
	delete(products, productID)
	if len(products) == 0 {
		delete(s.sessions, sessionID)
	}
	logger.Info("snapshot removed: session %s, product %s", sessionID, productID)
	return true
}

func (s *MemoryStore) SweepExpired(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for sessionID, products := range s.sessions {
		for productID, snap := range products {
			if snap.Expired(now, maxAge) {
				delete(products, productID)
				count++
			}
		}
		if len(products) == 0 {
			delete(s.sessions, sessionID)
		}
	}
	if count > 0 {
		logger.Info("swept %d expired snapshots", count)
	}
	return count
}

func (s *MemoryStore) Close() error {
	return nil
}
