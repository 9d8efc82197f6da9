// Package compare implements the field comparison strategies used to diff
// an original product snapshot against a freshly collected record.
package compare

import (
	"math"

	"github.com/baitwatch/baitwatch/internal/logger"
)

// PriceComparator flags price drift beyond a relative threshold.
// A threshold of 0.05 flags any change greater than 5%.
type PriceComparator struct {
	Threshold float64
}

// Compare returns whether the price changed materially and the change
// ratio |current-original|/original. Non-positive prices cannot be
// assessed and never flag: the result is (false, 0).
// The threshold is a strict bound; a ratio exactly at it does not flag.
func (c PriceComparator) Compare(original, current float64) (bool, float64) {
	if original <= 0 {
		logger.Warn("original price is not assessable: %v", original)
		return false, 0
	}
	if current <= 0 {
		logger.Warn("current price is not assessable: %v", current)
		return false, 0
	}
	ratio := math.Abs(current-original) / original
	changed := ratio > c.Threshold
	logger.Debug("price compare: %v -> %v (ratio %.4f, threshold %.4f)",
		original, current, ratio, c.Threshold)
	return changed, ratio
}
