// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap provides the interception pipeline for the primary and engine logging APIs.
// This file contains the primary structured logging API: a Backend owning
// named Loggers. Every Logger method funnels into LogAtLevel, which runs the
// registered before-advice and then, unless vetoed, the original body that
// writes to the backend's output.

package logtap

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/phuonguno98/logtap/engine"
)

// EngineLoggerName is the primary logger that engine messages are forwarded to.
const EngineLoggerName = "Engine.Debug"

// Backend is the primary logging API's log manager.
type Backend struct {
	registry *Registry

	outMu sync.Mutex
	out   io.Writer
	line  TextFormatter
	now   func() time.Time

	loggersMu sync.RWMutex
	loggers   map[string]*Logger

	attachMu sync.Mutex
	attached map[*engine.Debug]bool
}

// NewBackend creates a backend whose original implementation writes to out.
func NewBackend(out io.Writer) *Backend {
	if out == nil {
		out = io.Discard
	}
	return &Backend{
		registry: NewRegistry(),
		out:      out,
		now:      time.Now,
		loggers:  make(map[string]*Logger),
		attached: make(map[*engine.Debug]bool),
	}
}

// Registry returns the before-advice table of this backend.
func (b *Backend) Registry() *Registry { return b.registry }

// GetLogger returns the logger for name, creating it on first use.
func (b *Backend) GetLogger(name string) *Logger {
	b.loggersMu.RLock()
	l, ok := b.loggers[name]
	b.loggersMu.RUnlock()
	if ok {
		return l
	}

	b.loggersMu.Lock()
	defer b.loggersMu.Unlock()
	if l, ok = b.loggers[name]; ok {
		return l
	}
	l = &Logger{name: name, b: b}
	b.loggers[name] = l
	return l
}

// AttachEngine subscribes HandleEngineLog to d's console handler, so
// messages from the engine's built-in logger reach the primary API.
// Attaching the same facade twice is a no-op.
func (b *Backend) AttachEngine(d *engine.Debug) {
	b.attachMu.Lock()
	defer b.attachMu.Unlock()
	if b.attached[d] {
		return
	}
	b.attached[d] = true
	d.Console().AddListener(b.HandleEngineLog)
}

// HandleEngineLog is the default forwarding path from the engine into the
// primary API. Advice on EntryHandleEngineLog may veto it.
func (b *Backend) HandleEngineLog(ctx context.Context, message, stack string, t engine.LogType) {
	lvl, _ := MapLogType(t)
	ev := LogEvent{Source: EngineLoggerName, Level: lvl, Message: Text(message)}
	if !b.registry.Before(ctx, EntryHandleEngineLog, ev) {
		return
	}
	var opts []EventOption
	if stack != "" {
		opts = append(opts, WithError(engineStackError{msg: message, stack: stack}))
	}
	b.GetLogger(EngineLoggerName).LogAtLevel(ctx, lvl, Text(message), opts...)
}

// writeOriginal is the original body of LogAtLevel.
func (b *Backend) writeOriginal(ev LogEvent) {
	line := b.now().Format(time.RFC3339) + " " + b.line.FormatMessage(ev) + "\n"
	b.outMu.Lock()
	defer b.outMu.Unlock()
	_, _ = io.WriteString(b.out, line)
}

// engineStackError carries an engine exception that only exists as text.
type engineStackError struct {
	msg   string
	stack string
}

func (e engineStackError) Error() string { return e.msg + "\n" + e.stack }

// EventOption decorates a LogEvent at the call site.
type EventOption func(*LogEvent)

// WithError attaches err as the event's exception.
func WithError(err error) EventOption {
	return func(ev *LogEvent) { ev.Err = err }
}

// WithLocation attaches a stack-trace descriptor.
func WithLocation(loc Location) EventOption {
	return func(ev *LogEvent) { ev.Location = loc }
}

// WithCaller captures the caller's stack as the event location. skip=0 is
// the function calling the log method.
func WithCaller(skip int) EventOption {
	loc := CaptureLocation(skip + 1)
	return func(ev *LogEvent) { ev.Location = loc }
}

// Logger is a named logger of the primary API.
type Logger struct {
	name string
	b    *Backend
}

// Name returns the logger's source name.
func (l *Logger) Name() string { return l.name }

// LogAtLevel is the single entry point every Logger method goes through.
func (l *Logger) LogAtLevel(ctx context.Context, level Level, msg Message, opts ...EventOption) {
	if ctx == nil {
		ctx = context.Background()
	}
	ev := LogEvent{Source: l.name, Level: level, Message: msg}
	for _, opt := range opts {
		opt(&ev)
	}
	if !l.b.registry.Before(ctx, EntryLogAtLevel, ev) {
		return
	}
	l.b.writeOriginal(ev)
}

// LogDebug logs message at Debug.
func (l *Logger) LogDebug(ctx context.Context, message any, opts ...EventOption) {
	l.LogAtLevel(ctx, Debug, toMessage(message), opts...)
}

// Log logs message at Log.
func (l *Logger) Log(ctx context.Context, message any, opts ...EventOption) {
	l.LogAtLevel(ctx, Log, toMessage(message), opts...)
}

// LogWarning logs message at Warning.
func (l *Logger) LogWarning(ctx context.Context, message any, opts ...EventOption) {
	l.LogAtLevel(ctx, Warning, toMessage(message), opts...)
}

// LogError logs message at Error.
func (l *Logger) LogError(ctx context.Context, message any, opts ...EventOption) {
	l.LogAtLevel(ctx, Error, toMessage(message), opts...)
}

// LogException logs err at Error with no separate message.
func (l *Logger) LogException(ctx context.Context, err error, opts ...EventOption) {
	l.LogAtLevel(ctx, Error, nil, append([]EventOption{WithError(err)}, opts...)...)
}

// toMessage narrows a loosely typed call-site argument to a Message variant.
func toMessage(v any) Message {
	switch m := v.(type) {
	case nil:
		return nil
	case Message:
		return m
	case string:
		return Text(m)
	case Fields:
		return Structured(m)
	case map[string]interface{}:
		return Structured(m)
	case fmt.Stringer:
		return Value{V: m}
	case error:
		return Value{V: errorStringer{m}}
	default:
		return Text(fmt.Sprint(m))
	}
}

// errorStringer defers err.Error() to format time, where panics are caught.
type errorStringer struct{ err error }

func (e errorStringer) String() string { return e.err.Error() }
