// Package detect implements the verification orchestrator: it pulls the
// stored snapshot for a (session, product) pair, re-collects current state
// through a Collector, diffs the two records with the configured
// comparators, and turns material discrepancies into a DetectionResult.
package detect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/baitwatch/baitwatch/internal/compare"
	"github.com/baitwatch/baitwatch/internal/logger"
	"github.com/baitwatch/baitwatch/internal/models"
	"github.com/baitwatch/baitwatch/internal/snapshot"
	"github.com/google/uuid"
)

// Collector re-fetches the current state of a listing. Expected failures
// (network error, listing gone) are returned as errors or a nil record;
// the orchestrator aborts the verification in both cases. Retries belong
// to the Collector, not here.
type Collector interface {
	CollectCurrent(ctx context.Context, productID string) (*models.ProductRecord, error)
}

// Audit receives every produced DetectionResult for durable bookkeeping.
// Audit failures are logged and never fail a verification.
type Audit interface {
	RecordResult(result *models.DetectionResult) error
}

// Config holds the comparison thresholds.
type Config struct {
	PriceChangeThreshold           float64
	DescriptionSimilarityThreshold float64
	UseSemanticJudge               bool
	DeceptionThreshold             float64
}

// DefaultConfig returns the standard detection thresholds.
func DefaultConfig() Config {
	return Config{
		PriceChangeThreshold:           0.05,
		DescriptionSimilarityThreshold: 0.8,
		UseSemanticJudge:               true,
		DeceptionThreshold:             5.0,
	}
}

// Detector orchestrates verification runs and keeps per-session detection
// history. Verify calls for the same (session, product) pair are expected
// to be serialized by the caller; calls across sessions may run
// concurrently.
type Detector struct {
	store     snapshot.Store
	collector Collector
	judge     compare.SemanticJudge
	audit     Audit
	config    Config

	price   compare.PriceComparator
	lexical compare.LexicalComparator
	tokens  compare.TokenSetComparator

	mu      sync.Mutex
	history map[string][]*models.DetectionResult
}

// New creates a Detector. judge and audit may be nil; a nil judge (or
// UseSemanticJudge=false) leaves description comparison to the lexical and
// token-set comparators.
func New(store snapshot.Store, collector Collector, judge compare.SemanticJudge, audit Audit, cfg Config) *Detector {
	return &Detector{
		store:     store,
		collector: collector,
		judge:     judge,
		audit:     audit,
		config:    cfg,
		price:     compare.PriceComparator{Threshold: cfg.PriceChangeThreshold},
		lexical:   compare.LexicalComparator{Threshold: cfg.DescriptionSimilarityThreshold},
		tokens:    compare.TokenSetComparator{Threshold: cfg.DescriptionSimilarityThreshold},
		history:   make(map[string][]*models.DetectionResult),
	}
}

// Verify runs one verification for (sessionID, productID). It returns nil,
// without error, when no snapshot exists for the key or the collector
// yields no usable current record; both cases are logged. A produced
// result is appended to the session's detection history before returning.
func (d *Detector) Verify(ctx context.Context, sessionID, productID string) *models.DetectionResult {
	snap, ok := d.store.Get(sessionID, productID)
	if !ok {
		logger.Warn("no snapshot for session %s, product %s", sessionID, productID)
		return nil
	}

	current, err := d.collector.CollectCurrent(ctx, productID)
	if err != nil {
		logger.Error("failed to collect current state for product %s: %v", productID, err)
		return nil
	}
	if current == nil {
		logger.Warn("no usable current record for product %s", productID)
		return nil
	}

	var result *models.DetectionResult
	if current.ProductID != snap.Record.ProductID {
		// Caller bug, not a deception event.
		logger.Error("product ID mismatch: snapshot %s vs collected %s", snap.Record.ProductID, current.ProductID)
		result = &models.DetectionResult{
			ID:         uuid.New().String(),
			SessionID:  sessionID,
			ProductID:  productID,
			Timestamp:  time.Now(),
			Confidence: 1.0,
			Details:    fmt.Sprintf("product ID mismatch: snapshot has %s, collected %s", snap.Record.ProductID, current.ProductID),
		}
	} else {
		result = d.compareRecords(ctx, sessionID, &snap.Record, current)
	}

	d.mu.Lock()
	d.history[sessionID] = append(d.history[sessionID], result)
	d.mu.Unlock()

	if d.audit != nil {
		if err := d.audit.RecordResult(result); err != nil {
			logger.Warn("failed to audit detection result %s: %v", result.ID, err)
		}
	}

	if result.IsFlagged {
		logger.Warn("deception flagged: session %s, product %s, fields: %v",
			sessionID, productID, result.ChangedFields())
	} else {
		logger.Info("verification clean: session %s, product %s", sessionID, productID)
	}
	return result
}

// compareRecords diffs original against current and assembles the verdict.
func (d *Detector) compareRecords(ctx context.Context, sessionID string, original, current *models.ProductRecord) *models.DetectionResult {
	changes := make(map[models.FieldKey]models.ChangeEntry)

	if changed, ratio := d.price.Compare(original.Price, current.Price); changed {
		changes[models.FieldPrice] = models.ChangeEntry{
			Field:    models.FieldPrice,
			Original: original.Price,
			Current:  current.Price,
			Metric:   ratio,
		}
	}

	entry, semantic, degraded := d.compareDescription(ctx, original.Description, current.Description)
	if entry != nil {
		changes[models.FieldDescription] = *entry
	}

	for _, entry := range compare.CompareAttributes(original.Attributes, current.Attributes) {
		changes[entry.Field] = entry
	}

	result := &models.DetectionResult{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		ProductID:  original.ProductID,
		Timestamp:  time.Now(),
		IsFlagged:  len(changes) > 0,
		Changes:    changes,
		Confidence: 1.0, // extension point, see Config docs
		Degraded:   degraded,
		Semantic:   semantic,
	}
	result.Details = buildDetails(result)
	return result
}

// compareDescription applies the configured description strategies.
// The lexical similarity is always computed and kept on any change entry;
// when a semantic judge is configured and the texts differ, its verdict is
// authoritative. On judge
// failure the run degrades to the lexical/token-set verdict. Without a
// judge, a change reported by either the lexical or the token-set
// comparator flags the field.
func (d *Detector) compareDescription(ctx context.Context, original, current string) (*models.ChangeEntry, *models.SemanticAnalysis, bool) {
	lexChanged, lexSim := d.lexical.Compare(original, current)
	tokChanged, tokSim := d.tokens.Compare(original, current)

	entry := func(metric float64, narrative string) *models.ChangeEntry {
		return &models.ChangeEntry{
			Field:             models.FieldDescription,
			Original:          original,
			Current:           current,
			Metric:            metric,
			LexicalSimilarity: lexSim,
			Narrative:         narrative,
		}
	}

	if d.judge != nil && d.config.UseSemanticJudge && original != current && original != "" && current != "" {
		analysis, err := d.judge.Judge(ctx, original, current)
		if err == nil {
			if compare.IsDeceptive(analysis, d.config.DeceptionThreshold) {
				return entry(analysis.Similarity, analysis.Narrative), analysis, false
			}
			return nil, analysis, false
		}
		logger.Error("semantic judge failed, falling back to lexical comparison: %v", err)
		if lexChanged || tokChanged {
			return entry(fallbackMetric(lexChanged, lexSim, tokSim), ""), nil, true
		}
		return nil, nil, true
	}

	if lexChanged || tokChanged {
		return entry(fallbackMetric(lexChanged, lexSim, tokSim), ""), nil, false
	}
	return nil, nil, false
}

// fallbackMetric picks the similarity of the comparator that decided the
// change: lexical when it flagged, token-set otherwise.
func fallbackMetric(lexChanged bool, lexSim, tokSim float64) float64 {
	if lexChanged {
		return lexSim
	}
	return tokSim
}

func buildDetails(result *models.DetectionResult) string {
	if !result.IsFlagged {
		return "no changes detected"
	}
	details := fmt.Sprintf("changed fields: %s", joinFields(result.ChangedFields()))
	if result.Semantic != nil && result.Semantic.Narrative != "" {
		details += ". " + result.Semantic.Narrative
	}
	return details
}

func joinFields(fields []models.FieldKey) string {
	s := ""
	for i, f := range fields {
		if i > 0 {
			s += ", "
		}
		s += string(f)
	}
	return s
}

// History returns the session's detection results in call order.
func (d *Detector) History(sessionID string) []*models.DetectionResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*models.DetectionResult, len(d.history[sessionID]))
	copy(out, d.history[sessionID])
	return out
}
