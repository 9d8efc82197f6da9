package models

import (
	"strings"
	"testing"
	"time"
)

func TestProductRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  ProductRecord
		wantErr bool
	}{
		{
			name: "valid record",
			record: ProductRecord{
				ProductID:   "PROD001",
				Price:       100000,
				Description: "Premium phone - 1yr warranty",
				Attributes:  map[string]any{"brand": "BrandX"},
			},
			wantErr: false,
		},
		{
			name:    "empty product ID",
			record:  ProductRecord{Price: 100},
			wantErr: true,
		},
		{
			name:    "negative price",
			record:  ProductRecord{ProductID: "P1", Price: -1},
			wantErr: true,
		},
		{
			name:    "zero price allowed by validation",
			record:  ProductRecord{ProductID: "P1", Price: 0},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProductRecordClone(t *testing.T) {
	orig := &ProductRecord{
		ProductID:  "P1",
		Price:      100,
		Attributes: map[string]any{"brand": "BrandX"},
	}
	cp := orig.Clone()
	cp.Attributes["brand"] = "BrandY"
	if orig.Attributes["brand"] != "BrandX" {
		t.Error("clone shares attribute map with original")
	}
}

func TestSnapshotExpired(t *testing.T) {
	now := time.Now()
	s := &Snapshot{CapturedAt: now.Add(-25 * time.Hour)}
	if !s.Expired(now, 24*time.Hour) {
		t.Error("snapshot older than max age should be expired")
	}
	s.CapturedAt = now.Add(-23 * time.Hour)
	if s.Expired(now, 24*time.Hour) {
		t.Error("snapshot younger than max age should not be expired")
	}
	// Exactly at max age is not expired (strict inequality).
	s.CapturedAt = now.Add(-24 * time.Hour)
	if s.Expired(now, 24*time.Hour) {
		t.Error("snapshot exactly at max age should not be expired")
	}
}

func TestAttributeField(t *testing.T) {
	f := AttributeField("brand")
	if f != "attribute:brand" {
		t.Errorf("got %q, want attribute:brand", f)
	}
	name, ok := f.IsAttribute()
	if !ok || name != "brand" {
		t.Errorf("IsAttribute() = %q, %v", name, ok)
	}
	if _, ok := FieldPrice.IsAttribute(); ok {
		t.Error("price field should not parse as attribute")
	}
}

func TestChangeSummary(t *testing.T) {
	d := &DetectionResult{
		IsFlagged: true,
		Changes: map[FieldKey]ChangeEntry{
			FieldPrice: {
				Field:    FieldPrice,
				Original: 100000.0,
				Current:  120000.0,
				Metric:   0.2,
			},
			FieldDescription: {
				Field:    FieldDescription,
				Original: "old text",
				Current:  "new text",
				Metric:   0.4,
			},
		},
	}
	got := d.ChangeSummary()
	if !strings.Contains(got, "+20.0%") {
		t.Errorf("summary missing price percentage: %q", got)
	}
	if !strings.Contains(got, "description: old text → new text") {
		t.Errorf("summary missing description change: %q", got)
	}
	if !strings.HasPrefix(got, "price:") {
		t.Errorf("price should come first: %q", got)
	}
}

func TestChangeSummary_NotFlagged(t *testing.T) {
	d := &DetectionResult{IsFlagged: false}
	if got := d.ChangeSummary(); got != "no changes detected" {
		t.Errorf("got %q", got)
	}
}

func TestChangedFields_Order(t *testing.T) {
	d := &DetectionResult{
		IsFlagged: true,
		Changes: map[FieldKey]ChangeEntry{
			AttributeField("color"): {Field: AttributeField("color")},
			FieldDescription:        {Field: FieldDescription},
			AttributeField("brand"): {Field: AttributeField("brand")},
		},
	}
	got := d.ChangedFields()
	want := []FieldKey{FieldDescription, AttributeField("brand"), AttributeField("color")}
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSeverityValid(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityError} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Severity("critical").Valid() {
		t.Error("unknown severity should be invalid")
	}
}
