// Package logging sets up the logrus logger shared by the editor and its hosts.
package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// ComponentField is the field every component logger is tagged with.
const ComponentField = "component"

// New creates a text logger writing to out. An unknown level falls back to info.
func New(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Discard returns a logger that drops every entry. Hooks still fire.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	return l
}

// Component returns an entry tagged with the component name.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	if l == nil {
		l = Discard()
	}
	return l.WithField(ComponentField, name)
}

// ─────────────────────────────────────────────────────────────
// CallbackHook: forwards log lines to the host's onLogMessage
// ─────────────────────────────────────────────────────────────

// CallbackHook is a logrus hook that hands every entry, formatted as
// "[component]: message", to a callback. The callback can be swapped at any time.
type CallbackHook struct {
	mu     sync.RWMutex
	fn     func(string)
	levels []logrus.Level
}

// NewCallbackHook fires for the given levels, or for all levels when none are given.
func NewCallbackHook(levels ...logrus.Level) *CallbackHook {
	if len(levels) == 0 {
		levels = logrus.AllLevels
	}
	return &CallbackHook{levels: levels}
}

// Set replaces the callback. nil disables forwarding.
func (h *CallbackHook) Set(fn func(string)) {
	h.mu.Lock()
	h.fn = fn
	h.mu.Unlock()
}

func (h *CallbackHook) Levels() []logrus.Level {
	return h.levels
}

func (h *CallbackHook) Fire(e *logrus.Entry) error {
	h.mu.RLock()
	fn := h.fn
	h.mu.RUnlock()
	if fn == nil {
		return nil
	}
	fn(Format(e))
	return nil
}

// Format renders an entry the way it is handed to log callbacks.
func Format(e *logrus.Entry) string {
	if name, ok := e.Data[ComponentField].(string); ok && name != "" {
		return fmt.Sprintf("[%s]: %s", name, e.Message)
	}
	return e.Message
}
