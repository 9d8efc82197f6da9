package detect

import (
	"fmt"
	"strings"
	"time"

	"github.com/baitwatch/baitwatch/internal/models"
	"github.com/google/uuid"
)

// escalationScore is the deception score above which a notification is
// raised from warning to error severity.
const escalationScore = 7.0

// CreateNotification derives a notification from a flagged result. It
// returns nil for a nil or unflagged result. Severity defaults to warning
// and escalates to error when the semantic judge scored the change above
// the escalation bound. The message always names the changed fields; a
// semantic narrative is included verbatim when available, otherwise a
// generated per-field summary is used.
func (d *Detector) CreateNotification(result *models.DetectionResult) *models.NotificationMessage {
	if result == nil || !result.IsFlagged {
		return nil
	}

	severity := models.SeverityWarning
	var b strings.Builder
	fmt.Fprintf(&b, "Important information for product %s changed (%s): ",
		result.ProductID, joinFields(result.ChangedFields()))

	if result.Semantic != nil && result.Semantic.Narrative != "" {
		b.WriteString(result.Semantic.Narrative)
		if len(result.Semantic.RemovedBenefits) > 0 {
			fmt.Fprintf(&b, " Removed benefits: %s.", strings.Join(result.Semantic.RemovedBenefits, ", "))
		}
		if len(result.Semantic.AddedBenefits) > 0 {
			fmt.Fprintf(&b, " Added benefits: %s.", strings.Join(result.Semantic.AddedBenefits, ", "))
		}
	} else {
		b.WriteString(result.ChangeSummary())
	}

	if result.Semantic != nil && result.Semantic.DeceptionScore > escalationScore {
		severity = models.SeverityError
	}

	return &models.NotificationMessage{
		ID:             uuid.New().String(),
		SessionID:      result.SessionID,
		ProductID:      result.ProductID,
		Timestamp:      time.Now(),
		Severity:       severity,
		ActionRequired: true,
		Message:        b.String(),
		Result:         result,
	}
}
