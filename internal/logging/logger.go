// Package logging is the small leveled logger shared by the node's
// components. It wraps the standard library logger.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"
)

// Logger interface for dependency injection
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// DefaultLogger writes "[LEVEL] msg key=value ..." lines.
type DefaultLogger struct {
	logger *log.Logger
	debug  atomic.Bool
}

// NewDefaultLogger logs to stderr with the standard flags.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: log.Default(),
	}
}

// New logs to w with the given prefix.
func New(w io.Writer, prefix string) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(w, prefix, log.LstdFlags|log.Lmicroseconds),
	}
}

// SetDebug toggles Debug output.
func (l *DefaultLogger) SetDebug(on bool) {
	l.debug.Store(on)
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	if !l.debug.Load() {
		return
	}
	l.logger.Print("[DEBUG] " + format(msg, fields))
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logger.Print("[INFO] " + format(msg, fields))
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Print("[WARN] " + format(msg, fields))
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logger.Print("[ERROR] " + format(msg, fields))
}

// format renders fields as key=value pairs. An odd trailing field is
// printed under the key "extra".
func format(msg string, fields []interface{}) string {
	if len(fields) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			fmt.Fprintf(&sb, " extra=%v", fields[i])
			break
		}
		fmt.Fprintf(&sb, " %v=%v", fields[i], fields[i+1])
	}
	return sb.String()
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}
