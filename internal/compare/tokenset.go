package compare

import (
	"strings"
	"unicode"

	"github.com/baitwatch/baitwatch/internal/logger"
)

// stopwords contains common English words excluded from token-set
// comparison.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "what": true, "which": true, "who": true, "how": true,
	"when": true, "where": true, "why": true, "you": true, "me": true,
	"i": true, "my": true, "your": true, "we": true, "they": true,
	"he": true, "she": true, "her": true, "him": true, "us": true,
	"them": true,
}

// TokenSetComparator scores descriptions by Jaccard similarity over their
// alphanumeric, lowercased, stop-word-filtered token sets. It is symmetric
// in its arguments.
type TokenSetComparator struct {
	Threshold float64
}

// Compare reports a change when Jaccard similarity falls below the
// threshold. An empty token set on either side cannot be assessed:
// (false, 0).
func (c TokenSetComparator) Compare(original, current string) (bool, float64) {
	origSet := tokenSet(original)
	curSet := tokenSet(current)
	if len(origSet) == 0 || len(curSet) == 0 {
		logger.Warn("original or current description has no usable tokens")
		return false, 0
	}

	intersection := 0
	for tok := range origSet {
		if curSet[tok] {
			intersection++
		}
	}
	union := len(origSet) + len(curSet) - intersection
	similarity := float64(intersection) / float64(union)
	changed := similarity < c.Threshold
	logger.Debug("token-set compare: similarity %.4f, threshold %.4f", similarity, c.Threshold)
	return changed, similarity
}

// tokenSet splits text into unique lowercase alphanumeric tokens with
// stop-words removed.
func tokenSet(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if stopwords[w] {
			continue
		}
		set[w] = true
	}
	return set
}
