// Package notify carries short user-facing messages (the cashier's toasts) out of the core.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a plain function to Notifier.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Discard drops every notification.
var Discard Notifier = Func(func(Level, string) {})

// Writer prints notifications one per line, prefixed with a status mark.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(level Level, message string) {
	mark := "✓"
	if level == LevelError {
		mark = "✕"
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s %s\n", mark, message)
}

// Logger forwards notifications to a zap logger.
type Logger struct {
	log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Notify(level Level, message string) {
	if level == LevelError {
		l.log.Warn("notification", zap.String("message", message))
		return
	}
	l.log.Info("notification", zap.String("message", message))
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

type Entry struct {
	Level   Level
	Message string
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: message})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Errors returns the messages of error-level entries.
func (r *Recorder) Errors() []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == LevelError {
			out = append(out, e.Message)
		}
	}
	return out
}
