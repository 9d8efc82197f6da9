package compare

import (
	"reflect"
	"sort"

	"github.com/baitwatch/baitwatch/internal/models"
)

// CompareAttributes flags every key present in both maps whose values are
// not equal. Keys present only on one side are not flagged; detecting
// silently dropped or introduced attributes is left to callers that care.
// Entries are returned sorted by key for deterministic output.
func CompareAttributes(original, current map[string]any) []models.ChangeEntry {
	var keys []string
	for k := range original {
		if _, ok := current[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var changes []models.ChangeEntry
	for _, k := range keys {
		if reflect.DeepEqual(original[k], current[k]) {
			continue
		}
		changes = append(changes, models.ChangeEntry{
			Field:    models.AttributeField(k),
			Original: original[k],
			Current:  current[k],
		})
	}
	return changes
}
