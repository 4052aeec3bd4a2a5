// Package notify is the fire-and-forget "show message" surface.
//
// Callers hand over a message and a severity and move on; they never learn
// whether or how the message was displayed.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Notification is one entry of the feed.
type Notification struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	At       time.Time `json:"at"`
}

// DefaultCapacity bounds the feed when no capacity is configured.
const DefaultCapacity = 50

// Feed keeps the most recent notifications for clients to poll, and logs
// every one of them.
type Feed struct {
	mu       sync.Mutex
	items    []Notification // oldest first
	capacity int
	logger   *slog.Logger
	now      func() time.Time
}

// NewFeed creates a feed holding at most capacity entries.
func NewFeed(capacity int, logger *slog.Logger) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{capacity: capacity, logger: logger, now: time.Now}
}

func (f *Feed) Notify(message string, severity Severity) {
	n := Notification{Message: message, Severity: severity, At: f.now()}

	f.mu.Lock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append([]Notification(nil), f.items[over:]...)
	}
	f.mu.Unlock()

	level := slog.LevelInfo
	if severity == Error {
		level = slog.LevelWarn
	}
	f.logger.Log(context.Background(), level, "notification",
		slog.String("message", message),
		slog.String("severity", string(severity)),
	)
}

// Recent returns the stored notifications, newest first.
func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	for i, n := range f.items {
		out[len(f.items)-1-i] = n
	}
	return out
}
