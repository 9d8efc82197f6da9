// Package notify dispatches notification messages to registered handlers
// and keeps a per-session delivery history.
package notify

import (
	"sync"

	"github.com/baitwatch/baitwatch/internal/logger"
	"github.com/baitwatch/baitwatch/internal/models"
)

// Handler consumes one notification message. Handlers must not be assumed
// safe to retry; delivery is at-most-once per handler.
type Handler func(msg *models.NotificationMessage)

// Notifier fans messages out to every handler registered for the
// message's severity. Dispatch is best-effort: a failing handler is
// logged and never blocks delivery to the remaining handlers.
type Notifier struct {
	mu       sync.Mutex
	handlers map[models.Severity][]Handler
	history  map[string][]*models.NotificationMessage
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{
		handlers: make(map[models.Severity][]Handler),
		history:  make(map[string][]*models.NotificationMessage),
	}
}

// RegisterHandler adds a handler for the given severity.
func (n *Notifier) RegisterHandler(severity models.Severity, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[severity] = append(n.handlers[severity], h)
	logger.Debug("registered %s notification handler", severity)
}

// Notify records the message in the session history and dispatches it to
// every handler of its severity. It returns false only when the message
// is nil; handler failures do not fail the delivery.
func (n *Notifier) Notify(msg *models.NotificationMessage) bool {
	if msg == nil {
		return false
	}

	n.mu.Lock()
	n.history[msg.SessionID] = append(n.history[msg.SessionID], msg)
	handlers := make([]Handler, len(n.handlers[msg.Severity]))
	copy(handlers, n.handlers[msg.Severity])
	n.mu.Unlock()

	if len(handlers) == 0 {
		logger.Warn("no %s handlers registered", msg.Severity)
	}
	for _, h := range handlers {
		dispatch(h, msg)
	}

	logger.Info("notification sent: %s - %s", msg.Severity, msg.Message)
	return true
}

// dispatch invokes one handler, containing any panic so the remaining
// handlers still receive the message.
func dispatch(h Handler, msg *models.NotificationMessage) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("notification handler panicked: %v", r)
		}
	}()
	h(msg)
}

// History returns the session's delivered notifications in send order.
func (n *Notifier) History(sessionID string) []*models.NotificationMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*models.NotificationMessage, len(n.history[sessionID]))
	copy(out, n.history[sessionID])
	return out
}
