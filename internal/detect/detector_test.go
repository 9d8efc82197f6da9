package detect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/baitwatch/baitwatch/internal/models"
	"github.com/baitwatch/baitwatch/internal/snapshot"
)

// stubCollector returns a canned record or error.
type stubCollector struct {
	record *models.ProductRecord
	err    error
}

func (c *stubCollector) CollectCurrent(_ context.Context, _ string) (*models.ProductRecord, error) {
	return c.record, c.err
}

// stubJudge returns a canned analysis or error and records invocations.
type stubJudge struct {
	analysis *models.SemanticAnalysis
	err      error
	calls    int
}

func (j *stubJudge) Judge(_ context.Context, _, _ string) (*models.SemanticAnalysis, error) {
	j.calls++
	return j.analysis, j.err
}

// recordingAudit captures audited results in memory.
type recordingAudit struct {
	results []*models.DetectionResult
	err     error
}

func (a *recordingAudit) RecordResult(result *models.DetectionResult) error {
	a.results = append(a.results, result)
	return a.err
}

func baseRecord() models.ProductRecord {
	return models.ProductRecord{
		ProductID:   "prod-001",
		Price:       100000,
		Description: "Premium wireless earbuds with noise cancellation and a 2-year warranty",
		Attributes:  map[string]any{"shipping": "free"},
	}
}

func newTestDetector(t *testing.T, current *models.ProductRecord, collectErr error, judge *stubJudge) (*Detector, snapshot.Store) {
	t.Helper()
	store := snapshot.NewMemoryStore(snapshot.Options{})
	if err := store.Put("session-1", "prod-001", baseRecord(), snapshot.PutOptions{}); err != nil {
		t.Fatalf("failed to store snapshot: %v", err)
	}

	cfg := DefaultConfig()
	collector := &stubCollector{record: current, err: collectErr}
	if judge != nil {
		// A typed nil inside the interface would defeat the judge==nil
		// check in the detector.
		return New(store, collector, judge, nil, cfg), store
	}
	return New(store, collector, nil, nil, cfg), store
}

func TestVerifyIdenticalRecordNotFlagged(t *testing.T) {
	rec := baseRecord()
	d, _ := newTestDetector(t, &rec, nil, nil)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil {
		t.Fatal("Verify returned nil")
	}
	if result.IsFlagged {
		t.Errorf("identical record flagged: %s", result.Details)
	}
	if result.Details != "no changes detected" {
		t.Errorf("Details = %q", result.Details)
	}
}

func TestVerifyPriceIncreaseFlagged(t *testing.T) {
	rec := baseRecord()
	rec.Price = 120000
	d, _ := newTestDetector(t, &rec, nil, nil)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil || !result.IsFlagged {
		t.Fatal("20% price increase not flagged")
	}
	if !result.HasPriceChange() {
		t.Fatal("price field not in changes")
	}
	entry := result.Changes[models.FieldPrice]
	if entry.Metric < 0.199 || entry.Metric > 0.201 {
		t.Errorf("price change ratio = %v, want 0.2", entry.Metric)
	}
	if entry.Original != 100000.0 || entry.Current != 120000.0 {
		t.Errorf("change entry = %v → %v, want 100000 → 120000", entry.Original, entry.Current)
	}
}

func TestVerifySmallPriceChangeNotFlagged(t *testing.T) {
	rec := baseRecord()
	rec.Price = 103000 // 3%, under the 5% threshold
	d, _ := newTestDetector(t, &rec, nil, nil)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil {
		t.Fatal("Verify returned nil")
	}
	if result.IsFlagged {
		t.Errorf("3%% price change flagged: %s", result.Details)
	}
}

func TestVerifyDescriptionChangeFlagged(t *testing.T) {
	rec := baseRecord()
	rec.Description = "Premium wireless earbuds with noise cancellation"
	d, _ := newTestDetector(t, &rec, nil, nil)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil || !result.IsFlagged {
		t.Fatal("warranty removal not flagged")
	}
	if !result.HasDescriptionChange() {
		t.Fatal("description field not in changes")
	}
	entry := result.Changes[models.FieldDescription]
	if entry.Original != baseRecord().Description {
		t.Error("change entry lost the original description")
	}
	if entry.Current != rec.Description {
		t.Error("change entry lost the current description")
	}
}

func TestVerifyAttributeChangeFlagged(t *testing.T) {
	rec := baseRecord()
	rec.Attributes = map[string]any{"shipping": "paid"}
	d, _ := newTestDetector(t, &rec, nil, nil)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil || !result.IsFlagged {
		t.Fatal("attribute change not flagged")
	}
	entry, ok := result.Changes[models.AttributeField("shipping")]
	if !ok {
		t.Fatal("shipping attribute not in changes")
	}
	if entry.Original != "free" || entry.Current != "paid" {
		t.Errorf("change entry = %v → %v, want free → paid", entry.Original, entry.Current)
	}
}

func TestVerifyNoSnapshot(t *testing.T) {
	rec := baseRecord()
	d, _ := newTestDetector(t, &rec, nil, nil)

	if result := d.Verify(context.Background(), "session-1", "prod-999"); result != nil {
		t.Errorf("Verify without snapshot = %+v, want nil", result)
	}
}

func TestVerifyCollectorFailure(t *testing.T) {
	d, _ := newTestDetector(t, nil, errors.New("connection refused"), nil)

	if result := d.Verify(context.Background(), "session-1", "prod-001"); result != nil {
		t.Errorf("Verify with failing collector = %+v, want nil", result)
	}
	if got := d.History("session-1"); len(got) != 0 {
		t.Errorf("aborted verification recorded in history: %d entries", len(got))
	}
}

func TestVerifyProductIDMismatch(t *testing.T) {
	rec := baseRecord()
	rec.ProductID = "prod-002"
	d, _ := newTestDetector(t, &rec, nil, nil)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil {
		t.Fatal("Verify returned nil")
	}
	if result.IsFlagged {
		t.Error("ID mismatch flagged as deception")
	}
	if !strings.Contains(result.Details, "product ID mismatch") {
		t.Errorf("Details = %q, want mismatch note", result.Details)
	}
}

func TestVerifyJudgeVerdictAuthoritative(t *testing.T) {
	rec := baseRecord()
	rec.Description = "Premium wireless earbuds with noise cancellation"
	judge := &stubJudge{analysis: &models.SemanticAnalysis{
		Similarity:          0.7,
		IsSignificantChange: true,
		DeceptionScore:      9,
		Narrative:           "The 2-year warranty was silently removed.",
		RemovedBenefits:     []string{"2-year warranty"},
	}}
	d, _ := newTestDetector(t, &rec, nil, judge)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil || !result.IsFlagged {
		t.Fatal("judged deceptive change not flagged")
	}
	if judge.calls != 1 {
		t.Errorf("judge invoked %d times, want 1", judge.calls)
	}
	if result.Semantic == nil || result.Semantic.DeceptionScore != 9 {
		t.Fatal("semantic analysis not attached to result")
	}
	if result.Degraded {
		t.Error("successful judge run marked degraded")
	}
	entry := result.Changes[models.FieldDescription]
	if entry.Narrative != judge.analysis.Narrative {
		t.Errorf("Narrative = %q, want judge narrative", entry.Narrative)
	}
	if entry.Metric != judge.analysis.Similarity {
		t.Errorf("Metric = %v, want judge similarity %v", entry.Metric, judge.analysis.Similarity)
	}
	// The sequence similarity of this pair is 96/118; it must survive
	// alongside the judge's value.
	if entry.LexicalSimilarity < 0.80 || entry.LexicalSimilarity > 0.82 {
		t.Errorf("LexicalSimilarity = %v, want the computed sequence similarity", entry.LexicalSimilarity)
	}
}

func TestVerifyJudgeClearsBenignRewording(t *testing.T) {
	rec := baseRecord()
	// Heavy rewording the lexical comparator would flag.
	rec.Description = "Noise-cancelling wireless earbuds, premium grade, warranty included for two years"
	judge := &stubJudge{analysis: &models.SemanticAnalysis{
		Similarity:     0.95,
		DeceptionScore: 1,
		Narrative:      "Same claims, reworded.",
	}}
	d, _ := newTestDetector(t, &rec, nil, judge)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil {
		t.Fatal("Verify returned nil")
	}
	if result.HasDescriptionChange() {
		t.Error("benign rewording flagged despite judge verdict")
	}
	if result.Semantic == nil {
		t.Error("semantic analysis dropped from clean result")
	}
}

func TestVerifyJudgeFailureDegradesToLexical(t *testing.T) {
	rec := baseRecord()
	rec.Description = "Premium wireless earbuds with noise cancellation"
	judge := &stubJudge{err: errors.New("judge unavailable")}
	d, _ := newTestDetector(t, &rec, nil, judge)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil || !result.IsFlagged {
		t.Fatal("lexical fallback did not flag the change")
	}
	if !result.Degraded {
		t.Error("fallback result not marked degraded")
	}
	if result.Semantic != nil {
		t.Error("failed judge attached an analysis")
	}
}

func TestVerifyJudgeSkippedForIdenticalDescriptions(t *testing.T) {
	rec := baseRecord()
	judge := &stubJudge{err: errors.New("should not be called")}
	d, _ := newTestDetector(t, &rec, nil, judge)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil {
		t.Fatal("Verify returned nil")
	}
	if judge.calls != 0 {
		t.Errorf("judge invoked %d times for identical descriptions", judge.calls)
	}
	if result.Degraded {
		t.Error("result marked degraded without a judge run")
	}
}

func TestVerifyAppendsHistoryInOrder(t *testing.T) {
	rec := baseRecord()
	d, _ := newTestDetector(t, &rec, nil, nil)

	first := d.Verify(context.Background(), "session-1", "prod-001")
	second := d.Verify(context.Background(), "session-1", "prod-001")

	history := d.History("session-1")
	if len(history) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(history))
	}
	if history[0].ID != first.ID || history[1].ID != second.ID {
		t.Error("history not in call order")
	}
}

func TestVerifyRecordsAudit(t *testing.T) {
	store := snapshot.NewMemoryStore(snapshot.Options{})
	if err := store.Put("session-1", "prod-001", baseRecord(), snapshot.PutOptions{}); err != nil {
		t.Fatalf("failed to store snapshot: %v", err)
	}
	audit := &recordingAudit{}
	rec := baseRecord()
	d := New(store, &stubCollector{record: &rec}, nil, audit, DefaultConfig())

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if result == nil {
		t.Fatal("Verify returned nil")
	}
	if len(audit.results) != 1 || audit.results[0].ID != result.ID {
		t.Errorf("audit = %d results, want the produced result", len(audit.results))
	}

	// An audit failure never fails the verification.
	audit.err = errors.New("disk full")
	if got := d.Verify(context.Background(), "session-1", "prod-001"); got == nil {
		t.Error("Verify failed on audit error")
	}
}

func TestCreateNotification(t *testing.T) {
	rec := baseRecord()
	rec.Price = 120000
	d, _ := newTestDetector(t, &rec, nil, nil)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	msg := d.CreateNotification(result)
	if msg == nil {
		t.Fatal("CreateNotification returned nil for flagged result")
	}
	if msg.Severity != models.SeverityWarning {
		t.Errorf("Severity = %v, want warning", msg.Severity)
	}
	if !msg.ActionRequired {
		t.Error("ActionRequired = false")
	}
	if !strings.Contains(msg.Message, "prod-001") {
		t.Errorf("Message %q does not name the product", msg.Message)
	}
	if !strings.Contains(msg.Message, "price") {
		t.Errorf("Message %q does not name the changed field", msg.Message)
	}
}

func TestCreateNotificationEscalatesOnHighDeceptionScore(t *testing.T) {
	rec := baseRecord()
	rec.Description = "Premium wireless earbuds"
	judge := &stubJudge{analysis: &models.SemanticAnalysis{
		Similarity:      0.5,
		DeceptionScore:  9,
		Narrative:       "Noise cancellation and warranty claims removed.",
		RemovedBenefits: []string{"noise cancellation", "2-year warranty"},
	}}
	d, _ := newTestDetector(t, &rec, nil, judge)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	msg := d.CreateNotification(result)
	if msg == nil {
		t.Fatal("CreateNotification returned nil")
	}
	if msg.Severity != models.SeverityError {
		t.Errorf("Severity = %v, want error for deception score 9", msg.Severity)
	}
	if !strings.Contains(msg.Message, "Removed benefits: noise cancellation, 2-year warranty") {
		t.Errorf("Message %q missing removed benefits", msg.Message)
	}
}

func TestCreateNotificationUnflaggedResult(t *testing.T) {
	rec := baseRecord()
	d, _ := newTestDetector(t, &rec, nil, nil)

	result := d.Verify(context.Background(), "session-1", "prod-001")
	if msg := d.CreateNotification(result); msg != nil {
		t.Errorf("notification created for clean result: %q", msg.Message)
	}
	if msg := d.CreateNotification(nil); msg != nil {
		t.Error("notification created for nil result")
	}
}
