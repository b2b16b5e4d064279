// Package notify delivers short user-facing messages (the dashboard's toasts)
// about save, sync and export outcomes.
package notify

import "time"

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is one user-facing message.
type Notification struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// IsError reports whether the notification should be shown as an error.
func (n Notification) IsError() bool {
	return n.Level == LevelError
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, x := range m {
		if x != nil {
			x.Notify(n)
		}
	}
}

// Send stamps and delivers a notification. A nil notifier is allowed.
func Send(to Notifier, level Level, msg string) {
	if to == nil {
		return
	}
	to.Notify(Notification{Level: level, Message: msg, Timestamp: time.Now()})
}
