// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap provides the interception pipeline for the primary and engine logging APIs.
// This file implements the canonical formatter. Every intercepted call, from
// either API, is rendered by it exactly once before routing decisions are made.

package logtap

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// unprintable replaces any segment whose String or Error method panicked.
const unprintable = "<unprintable>"

// newlineEscaper keeps every canonical string on a single line.
var newlineEscaper = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// stackTracer is implemented by errors created with github.com/pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// TextFormatter renders the canonical line:
//
//	<source> [<LEVEL>] <message> | exception: <type>: <error> | stack: <frames>
//
// The exception segment appears only when the event carries an error. When
// there is no error but a Location, " | at: <frames>" is appended instead.
// No timestamp is written, so prefix rules can anchor on the source name.
type TextFormatter struct {
	// MaxFrames caps the number of stack frames rendered. 0 means 8.
	MaxFrames int
}

// FormatMessage returns the canonical line. It never fails; unprintable
// segments are replaced with a placeholder.
func (f *TextFormatter) FormatMessage(ev LogEvent) string {
	s, _ := f.Format(ev)
	return s
}

// Format is FormatMessage that also reports, wrapped in ErrFormat, whether a
// placeholder had to be used.
func (f *TextFormatter) Format(ev LogEvent) (string, error) {
	var (
		sb     strings.Builder
		failed []string
	)

	if ev.Source != "" {
		sb.WriteString(escapeLine(ev.Source))
		sb.WriteByte(' ')
	}
	sb.WriteByte('[')
	sb.WriteString(ev.Level.String())
	sb.WriteByte(']')

	if ev.Message != nil {
		msg, ok := safeString(ev.Message.render)
		if !ok {
			failed = append(failed, "message")
		}
		if msg != "" {
			sb.WriteByte(' ')
			sb.WriteString(escapeLine(msg))
		}
	}

	switch {
	case ev.Err != nil:
		text, ok := safeString(ev.Err.Error)
		if !ok {
			failed = append(failed, "exception")
		}
		sb.WriteString(" | exception: ")
		sb.WriteString(fmt.Sprintf("%T", errors.Cause(ev.Err)))
		sb.WriteString(": ")
		sb.WriteString(escapeLine(text))

		st := ev.Location
		if tr := findStackTracer(ev.Err); tr != nil {
			st = tr.StackTrace()
		}
		if frames := f.frames(st); frames != "" {
			sb.WriteString(" | stack: ")
			sb.WriteString(frames)
		}
	case len(ev.Location) > 0:
		if frames := f.frames(ev.Location); frames != "" {
			sb.WriteString(" | at: ")
			sb.WriteString(frames)
		}
	}

	if len(failed) > 0 {
		return sb.String(), errors.Wrapf(ErrFormat, "unprintable %s", strings.Join(failed, ", "))
	}
	return sb.String(), nil
}

// frames renders up to MaxFrames frames as "func (file:line)" joined by "; ".
func (f *TextFormatter) frames(st errors.StackTrace) string {
	if len(st) == 0 {
		return ""
	}
	limit := f.MaxFrames
	if limit <= 0 {
		limit = 8
	}
	if len(st) > limit {
		st = st[:limit]
	}
	parts := make([]string, 0, len(st))
	for _, fr := range st {
		parts = append(parts, fmt.Sprintf("%n (%v)", fr, fr))
	}
	return escapeLine(strings.Join(parts, "; "))
}

// findStackTracer returns the outermost error in the chain carrying a stack.
func findStackTracer(err error) stackTracer {
	for err != nil {
		if tr, ok := err.(stackTracer); ok {
			return tr
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// safeString calls fn and converts a panic into the placeholder.
func safeString(fn func() string) (s string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s, ok = unprintable, false
		}
	}()
	return fn(), true
}

func escapeLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return newlineEscaper.Replace(s)
}
