// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package engine models the engine-level logging API that runs beside the
// primary structured logger. It has its own severity vocabulary (LogType),
// a composite-format call shape and a process-wide Debug facade whose active
// logger can be substituted at the getter.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogType is the engine's severity vocabulary.
type LogType int

// LogType constants, most severe first.
const (
	// Error is a failure.
	Error LogType = iota
	// Assert is a failed assertion.
	Assert
	// Warning is something unexpected that did not fail.
	Warning
	// Log is an ordinary message.
	Log
	// Exception is a logged error value; it bypasses the type filter.
	Exception
)

// String returns the engine's display name for the type.
func (t LogType) String() string {
	switch t {
	case Error:
		return "Error"
	case Assert:
		return "Assert"
	case Warning:
		return "Warning"
	case Log:
		return "Log"
	case Exception:
		return "Exception"
	default:
		return fmt.Sprintf("LogType(%d)", int(t))
	}
}

// LogTypes lists every defined LogType.
func LogTypes() []LogType {
	return []LogType{Error, Assert, Warning, Log, Exception}
}

// LogHandler receives every message emitted through an engine Logger.
type LogHandler interface {
	LogFormat(ctx context.Context, t LogType, format string, args ...any)
	LogException(ctx context.Context, err error)
}

// Logger is the engine's front-end over a LogHandler.
// Messages whose type is filtered out, or emitted while disabled, are dropped.
type Logger struct {
	Handler LogHandler
	Enabled bool
	// FilterType is the least severe type still emitted. Error is the most
	// severe, so the default Log lets everything through.
	FilterType LogType
}

// NewLogger returns an enabled Logger that emits every type.
func NewLogger(h LogHandler) *Logger {
	return &Logger{Handler: h, Enabled: true, FilterType: Log}
}

// IsLogTypeAllowed reports whether t passes the enabled flag and filter.
func (l *Logger) IsLogTypeAllowed(t LogType) bool {
	if l == nil || !l.Enabled || l.Handler == nil {
		return false
	}
	if t == Exception {
		return true
	}
	if l.FilterType == Exception {
		return false
	}
	return t <= l.FilterType
}

// Log emits message as a single "{0}" argument.
func (l *Logger) Log(ctx context.Context, t LogType, message any) {
	if l.IsLogTypeAllowed(t) {
		l.Handler.LogFormat(ctx, t, "{0}", message)
	}
}

// LogWarning emits message as a Warning.
func (l *Logger) LogWarning(ctx context.Context, message any) { l.Log(ctx, Warning, message) }

// LogError emits message as an Error.
func (l *Logger) LogError(ctx context.Context, message any) { l.Log(ctx, Error, message) }

// LogFormat emits a composite-format template with positional arguments.
func (l *Logger) LogFormat(ctx context.Context, t LogType, format string, args ...any) {
	if l.IsLogTypeAllowed(t) {
		l.Handler.LogFormat(ctx, t, format, args...)
	}
}

// LogException emits err through the handler's exception entry point.
func (l *Logger) LogException(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if l.IsLogTypeAllowed(Exception) {
		l.Handler.LogException(ctx, err)
	}
}

// Listener observes every message the console handler emits.
type Listener func(ctx context.Context, message, stack string, t LogType)

// ConsoleHandler is the engine's built-in handler: it renders the template,
// writes "[<Type>] <message>" to its writer and notifies listeners.
type ConsoleHandler struct {
	mu        sync.Mutex
	w         io.Writer
	listeners []Listener
}

// NewConsoleHandler writes to w, or os.Stderr when w is nil.
func NewConsoleHandler(w io.Writer) *ConsoleHandler {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleHandler{w: w}
}

// AddListener subscribes fn to every subsequent message.
func (h *ConsoleHandler) AddListener(fn Listener) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// LogFormat renders the template and emits it. A malformed template is
// written as is.
func (h *ConsoleHandler) LogFormat(ctx context.Context, t LogType, format string, args ...any) {
	msg, err := Sprintf(format, args...)
	if err != nil {
		msg = format
	}
	h.emit(ctx, t, msg, "")
}

// LogException emits err's text with its "%+v" rendering as the stack.
func (h *ConsoleHandler) LogException(ctx context.Context, err error) {
	h.emit(ctx, Exception, err.Error(), fmt.Sprintf("%+v", err))
}

func (h *ConsoleHandler) emit(ctx context.Context, t LogType, msg, stack string) {
	h.mu.Lock()
	_, _ = fmt.Fprintf(h.w, "[%s] %s\n", t, msg)
	ls := make([]Listener, len(h.listeners))
	copy(ls, h.listeners)
	h.mu.Unlock()

	for _, fn := range ls {
		fn(ctx, msg, stack, t)
	}
}

// LoggerAdvice runs before the Debug getter. When it returns false the
// getter returns the advice's logger instead of the built-in one.
type LoggerAdvice func() (*Logger, bool)

// Debug is the engine's logging facade. Callers reach the active logger only
// through Logger(), which is the seam an interception layer substitutes.
type Debug struct {
	console *ConsoleHandler
	builtin *Logger

	mu     sync.RWMutex
	advice LoggerAdvice
}

// NewDebug builds a facade whose built-in logger writes to console.
func NewDebug(console *ConsoleHandler) *Debug {
	if console == nil {
		console = NewConsoleHandler(nil)
	}
	return &Debug{console: console, builtin: NewLogger(console)}
}

// Default is the process-wide engine facade.
var Default = NewDebug(nil)

// Console returns the facade's built-in handler.
func (d *Debug) Console() *ConsoleHandler { return d.console }

// SetLoggerAdvice installs adv ahead of the getter, replacing any previous one.
func (d *Debug) SetLoggerAdvice(adv LoggerAdvice) {
	d.mu.Lock()
	d.advice = adv
	d.mu.Unlock()
}

// Logger returns the active logger.
func (d *Debug) Logger() *Logger {
	d.mu.RLock()
	adv := d.advice
	d.mu.RUnlock()
	if adv != nil {
		if l, cont := adv(); !cont && l != nil {
			return l
		}
	}
	return d.builtin
}

// Log emits message as a Log through the active logger.
func (d *Debug) Log(ctx context.Context, message any) { d.Logger().Log(ctx, Log, message) }

// LogWarning emits message as a Warning through the active logger.
func (d *Debug) LogWarning(ctx context.Context, message any) { d.Logger().Log(ctx, Warning, message) }

// LogError emits message as an Error through the active logger.
func (d *Debug) LogError(ctx context.Context, message any) { d.Logger().Log(ctx, Error, message) }

// LogFormat emits a template through the active logger.
func (d *Debug) LogFormat(ctx context.Context, t LogType, format string, args ...any) {
	d.Logger().LogFormat(ctx, t, format, args...)
}

// LogException emits err through the active logger.
func (d *Debug) LogException(ctx context.Context, err error) { d.Logger().LogException(ctx, err) }
