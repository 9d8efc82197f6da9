package compare

import (
	"context"

	"github.com/baitwatch/baitwatch/internal/models"
)

// SemanticJudge is an external capability that analyzes whether a
// description change is deceptive. Implementations may call a language
// model or any other judge; the orchestrator only depends on this
// contract and falls back to lexical comparison on any error.
type SemanticJudge interface {
	Judge(ctx context.Context, originalText, currentText string) (*models.SemanticAnalysis, error)
}

// IsDeceptive applies the configured deception threshold to a judge
// verdict: deceptive iff the score strictly exceeds the threshold.
func IsDeceptive(analysis *models.SemanticAnalysis, threshold float64) bool {
	if analysis == nil {
		return false
	}
	return analysis.DeceptionScore > threshold
}
