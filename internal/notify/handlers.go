package notify

import (
	"fmt"
	"io"

	"github.com/baitwatch/baitwatch/internal/logger"
	"github.com/baitwatch/baitwatch/internal/models"
)

// ConsoleHandler writes a marked one-line rendition of the message to w.
func ConsoleHandler(w io.Writer) Handler {
	marks := map[models.Severity]string{
		models.SeverityInfo:    "[i]",
		models.SeverityWarning: "[!]",
		models.SeverityError:   "[x]",
	}
	return func(msg *models.NotificationMessage) {
		fmt.Fprintf(w, "%s [%s] %s\n",
			marks[msg.Severity], msg.Timestamp.Format("2006-01-02 15:04:05"), msg.Message)
	}
}

// LogHandler forwards the message to the process logger at the matching
// level.
func LogHandler(msg *models.NotificationMessage) {
	switch msg.Severity {
	case models.SeverityError:
		logger.Error("%s", msg.Message)
	case models.SeverityWarning:
		logger.Warn("%s", msg.Message)
	default:
		logger.Info("%s", msg.Message)
	}
}

// AgentResponseHandler relays the message back to the shopping agent so it
// can react before the purchase commits, e.g. by removing the product from
// the cart.
func AgentResponseHandler(msg *models.NotificationMessage) {
	logger.Info("[agent notice] %s", msg.Message)
	if msg.ActionRequired {
		logger.Warn("[agent action] product %s requires review before checkout", msg.ProductID)
	}
}
