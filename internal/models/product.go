// Package models defines the core domain entities: product records,
// snapshots, detection results, and notification messages.
package models

import (
	"errors"
	"fmt"
	"sort"
)

// ProductRecord represents one observed state of a marketplace listing.
// ProductID is the stable listing identifier and is never regenerated;
// everything else may differ between observations of the same listing.
type ProductRecord struct {
	ProductID   string         `json:"product_id"`
	Price       float64        `json:"price"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Validate checks record field constraints. A record that fails validation
// is still accepted by the snapshot store; comparators treat its invalid
// fields as "cannot assess" rather than as a positive signal.
func (r *ProductRecord) Validate() error {
	if r.ProductID == "" {
		return errors.New("product ID must not be empty")
	}
	if r.Price < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

// Clone returns a deep copy so callers can hold a record without observing
// later mutations of the original's attribute map.
func (r *ProductRecord) Clone() *ProductRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Attributes != nil {
		cp.Attributes = make(map[string]any, len(r.Attributes))
		for k, v := range r.Attributes {
			cp.Attributes[k] = v
		}
	}
	return &cp
}

// AttributeKeys returns the attribute keys in sorted order for
// deterministic iteration in summaries and logs.
func (r *ProductRecord) AttributeKeys() []string {
	keys := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *ProductRecord) String() string {
	return fmt.Sprintf("product %s (price %.2f)", r.ProductID, r.Price)
}
