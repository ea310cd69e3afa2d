// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap intercepts log calls from the primary logging API and the
// engine logging API, formats each event into one canonical line, suppresses
// lines that match configured prefixes, optionally mirrors everything to a
// full log and optionally vetoes the original logging backend.
// This file defines the core data structures used throughout the library,
// including the Config struct for initialization.

package logtap

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Level is the primary API's severity vocabulary.
// The zero value for Level is Debug.
type Level int32

// Log level constants.
const (
	// Debug is for diagnostic chatter, below the engine's vocabulary.
	Debug Level = iota
	// Log is the ordinary informational level.
	Log
	// Warning marks something unexpected that did not fail.
	Warning
	// Error marks a failure.
	Error
)

// String returns the uppercase tag used in the canonical line.
func (lvl Level) String() string {
	switch lvl {
	case Debug:
		return "DEBUG"
	case Log:
		return "LOG"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fields is a map for structured, key-value message payloads.
type Fields map[string]interface{}

// Message is the payload of a log call. The set of variants is closed:
// Text, Structured and Value.
type Message interface {
	render() string
}

// Text is a plain string message.
type Text string

func (t Text) render() string { return string(t) }

// Structured is a key-value message, rendered as sorted key=value pairs.
type Structured Fields

func (s Structured) render() string {
	if len(s) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(fmt.Sprint(s[k]))
	}
	return sb.String()
}

// Value wraps any printable host value.
type Value struct {
	V fmt.Stringer
}

func (v Value) render() string {
	if v.V == nil {
		return ""
	}
	return v.V.String()
}

// Location is a stack-trace descriptor attached to an event for traceability.
type Location = errors.StackTrace

// LogEvent is one intercepted log call. It is built at the interception
// point, consumed by the formatter and not retained.
type LogEvent struct {
	Source   string
	Level    Level
	Message  Message
	Err      error
	Location Location
}

// Formatter turns a LogEvent into the canonical single-line string.
type Formatter interface {
	FormatMessage(ev LogEvent) string
}

// Sink is an append-only line destination.
type Sink interface {
	Append(line string) error
}

// RetryPolicy configures bounded retries for failed sink writes.
type RetryPolicy struct {
	// MaxRetries is the maximum number of times to retry a failed write.
	// If 0, no retries will be attempted. Defaults to 0.
	MaxRetries int
	// Backoff is the wait before each retry. Clamped to maxBackoff so a log
	// call never stalls for long.
	Backoff time.Duration
}

// RotationConfig configures the lumberjack-backed log files.
type RotationConfig struct {
	// MaxSizeMB is the maximum size in megabytes before a file is rotated.
	MaxSizeMB int
	// MaxAge is the maximum number of days to retain old files.
	MaxAge int
	// MaxBackups is the maximum number of old files to keep.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
	// FreshOnStart rotates existing files away when the sinks are opened,
	// so each process run starts with empty logs.
	FreshOnStart bool
}

// Config is the central configuration struct for New and Init.
type Config struct {
	// Settings is the pre-parsed policy. See ParseSettings.
	Settings Settings
	// Formatter overrides the canonical TextFormatter.
	Formatter Formatter
	// FullLog receives every event when Settings.PreserveFullLog is set.
	// If nil and Directory is set, a file sink named FullLogFile is opened.
	FullLog Sink
	// DebugLog receives events that are not suppressed.
	// If nil and Directory is set, a file sink named DebugLogFile is opened.
	DebugLog Sink
	// Directory is where file sinks are created.
	Directory string
	// Rotation configures the file sinks opened under Directory.
	Rotation RotationConfig
	// Retry configures retries for failed sink writes. Defaults to disabled.
	Retry RetryPolicy
	// Diagnostics receives non-fatal internal failures.
	// Defaults to a logrus logger on stderr.
	Diagnostics logrus.FieldLogger
	// Original is where the primary backend's original implementation
	// writes. Only used by Init. Defaults to os.Stdout.
	Original io.Writer
}

// Default file names used under Config.Directory.
const (
	FullLogFile  = "logtap_full.log"
	DebugLogFile = "logtap_debug.log"
)

// --- Counters ---

type counters struct {
	events      atomic.Int64
	suppressed  atomic.Int64
	fullWrites  atomic.Int64
	debugWrites atomic.Int64
	formatErrs  atomic.Int64
	writeErrs   atomic.Int64
	continued   atomic.Int64
	vetoed      atomic.Int64
}
