package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FieldKey identifies which listing field a ChangeEntry refers to.
// Attribute changes use the "attribute:<key>" form.
type FieldKey string

const (
	FieldPrice       FieldKey = "price"
	FieldDescription FieldKey = "description"
)

// AttributeField returns the FieldKey for a named attribute.
func AttributeField(key string) FieldKey {
	return FieldKey("attribute:" + key)
}

// IsAttribute reports whether the key refers to an attribute, returning the
// attribute name when it does.
func (f FieldKey) IsAttribute() (string, bool) {
	name, ok := strings.CutPrefix(string(f), "attribute:")
	return name, ok
}

// ChangeEntry is one field-level discrepancy between the snapshot baseline
// and the freshly collected record. Metric is field-specific: a change
// ratio for price, a similarity in [0,1] for descriptions.
type ChangeEntry struct {
	Field    FieldKey `json:"field"`
	Original any      `json:"original"`
	Current  any      `json:"current"`
	Metric   float64  `json:"metric"`

	// LexicalSimilarity keeps the sequence-matching similarity for
	// description entries even when a semantic judge's similarity fills
	// Metric.
	LexicalSimilarity float64 `json:"lexical_similarity,omitempty"`

	// Narrative carries a natural-language explanation when a semantic
	// judge supplied one.
	Narrative string `json:"narrative,omitempty"`
}

// Summary renders the entry as "<field>: <original> → <current>".
func (c ChangeEntry) Summary() string {
	return fmt.Sprintf("%s: %v → %v", c.Field, c.Original, c.Current)
}

// SemanticAnalysis is the structured output of the optional semantic judge.
// DeceptionScore rates how misleading a description change is on a 0–10
// scale; the benefit lists describe claimed benefits that were removed,
// added, or reworded between the two texts.
type SemanticAnalysis struct {
	Similarity          float64  `json:"similarity_score"`
	IsSignificantChange bool     `json:"has_significant_change"`
	DeceptionScore      float64  `json:"deception_score"`
	Narrative           string   `json:"change_description"`
	RemovedBenefits     []string `json:"removed_benefits,omitempty"`
	AddedBenefits       []string `json:"added_benefits,omitempty"`
	ChangedBenefits     []string `json:"changed_benefits,omitempty"`
}

// DetectionResult is the verdict for one verification attempt. It is
// immutable after construction and appended to the session's detection
// history in call order.
type DetectionResult struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`

	IsFlagged bool                     `json:"is_flagged"`
	Changes   map[FieldKey]ChangeEntry `json:"changes,omitempty"`

	// Confidence is a constant 1.0 placeholder, kept as an extension
	// point rather than a finished algorithm.
	Confidence float64 `json:"confidence"`
	Details    string  `json:"details,omitempty"`

	// Degraded marks results where the semantic judge failed and the
	// lexical comparator served as fallback.
	Degraded bool `json:"degraded,omitempty"`

	// Semantic holds the judge's analysis of the description change,
	// when one ran successfully.
	Semantic *SemanticAnalysis `json:"semantic,omitempty"`
}

// HasPriceChange reports whether the price field was flagged.
func (d *DetectionResult) HasPriceChange() bool {
	_, ok := d.Changes[FieldPrice]
	return ok
}

// HasDescriptionChange reports whether the description field was flagged.
func (d *DetectionResult) HasDescriptionChange() bool {
	_, ok := d.Changes[FieldDescription]
	return ok
}

// ChangedFields returns the flagged field keys in deterministic order:
// price first, then description, then attributes sorted by key.
func (d *DetectionResult) ChangedFields() []FieldKey {
	var fields []FieldKey
	if d.HasPriceChange() {
		fields = append(fields, FieldPrice)
	}
	if d.HasDescriptionChange() {
		fields = append(fields, FieldDescription)
	}
	var attrs []string
	for f := range d.Changes {
		if _, ok := f.IsAttribute(); ok {
			attrs = append(attrs, string(f))
		}
	}
	if len(attrs) > 0 {
		sort.Strings(attrs)
		for _, a := range attrs {
			fields = append(fields, FieldKey(a))
		}
	}
	return fields
}

// ChangeSummary renders a one-line human-readable summary of all flagged
// fields, suitable for notification messages and logs.
func (d *DetectionResult) ChangeSummary() string {
	if !d.IsFlagged {
		return "no changes detected"
	}
	parts := make([]string, 0, len(d.Changes))
	for _, f := range d.ChangedFields() {
		c := d.Changes[f]
		if f == FieldPrice {
			orig, okO := toFloat(c.Original)
			cur, okC := toFloat(c.Current)
			if okO && okC && orig > 0 {
				pct := (cur - orig) / orig * 100
				parts = append(parts, fmt.Sprintf("price: %.2f → %.2f (%+.1f%%)", orig, cur, pct))
				continue
			}
		}
		parts = append(parts, c.Summary())
	}
	return strings.Join(parts, ", ")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
