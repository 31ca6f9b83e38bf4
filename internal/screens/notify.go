// Package screens implements the per-screen view models: fetch
// orchestration, client-side filtering, dialog workflows with server
// validation mapping, and transient notifications. Screens never talk to
// the network directly; they consume the service facades through small
// interfaces so tests can count calls.
package screens

import (
	"sync"
	"time"
)

// Severity classifies a notification for rendering.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a transient status message.
type Notification struct {
	Message  string
	Severity Severity
}

// DefaultNotificationTTL is how long a notification stays up before the
// auto-dismiss fires.
const DefaultNotificationTTL = 6 * time.Second

// Notifier holds at most one current notification and dismisses it after
// a delay. A manual dismiss, or a replacement by a newer notification,
// cancels the pending auto-dismiss so a stale timer can never clear a
// message it does not own.
type Notifier struct {
	mu      sync.Mutex
	ttl     time.Duration
	seq     int
	current *Notification
	timer   *time.Timer
}

// NewNotifier creates a Notifier with the given time-to-live; ttl <= 0
// selects DefaultNotificationTTL.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl}
}

// Push replaces the current notification and restarts the auto-dismiss.
func (n *Notifier) Push(severity Severity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	id := n.seq
	n.current = &Notification{Message: message, Severity: severity}
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(id) })
}

// expire clears the notification only if it is still the one the timer
// was armed for.
func (n *Notifier) expire(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seq == id {
		n.current = nil
	}
}

// Dismiss clears the current notification and cancels its auto-dismiss.
// Safe to call when nothing is showing.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.seq++
	n.current = nil
}

// Current returns the notification on display, or nil.
func (n *Notifier) Current() *Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	c := *n.current
	return &c
}
