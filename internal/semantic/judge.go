// Package semantic implements the HTTP-backed semantic judge: an external
// service that compares two description texts and scores how misleading the
// change is.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/baitwatch/baitwatch/internal/models"
)

// HTTPJudge calls a judge endpoint over HTTP. It satisfies the detector's
// SemanticJudge contract; callers treat any error as a signal to degrade to
// lexical comparison.
type HTTPJudge struct {
	endpoint   string
	httpClient *http.Client
}

type judgeRequest struct {
	OriginalText string `json:"original_text"`
	CurrentText  string `json:"current_text"`
}

// NewHTTPJudge creates a judge client for the given endpoint.
func NewHTTPJudge(endpoint string, timeout time.Duration) *HTTPJudge {
	return &HTTPJudge{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Judge submits the two texts and returns the structured analysis.
func (j *HTTPJudge) Judge(ctx context.Context, originalText, currentText string) (*models.SemanticAnalysis, error) {
	body, err := json.Marshal(judgeRequest{
		OriginalText: originalText,
		CurrentText:  currentText,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", j.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var analysis models.SemanticAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("failed to decode judge response: %w", err)
	}

	if analysis.DeceptionScore < 0 || analysis.DeceptionScore > 10 {
		return nil, fmt.Errorf("judge returned deception score %v outside [0,10]", analysis.DeceptionScore)
	}
	return &analysis, nil
}
