// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

package logtap

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// SlogHandler is a slog.Handler that routes records into a primary Logger,
// so log/slog call sites pass through the same interception point as every
// other log call. Attributes become a Structured message next to the text;
// an attribute holding an error becomes the event's exception.
type SlogHandler struct {
	log   *Logger
	attrs []slog.Attr
	group string
}

// NewSlogHandler returns a handler forwarding to log.
func NewSlogHandler(log *Logger) *SlogHandler {
	return &SlogHandler{log: log}
}

// Enabled accepts every level; suppression is decided on the formatted line.
func (h *SlogHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle converts r to a LogAtLevel call.
func (h *SlogHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := Fields{}
	var errAttr error
	add := func(a slog.Attr) {
		if e, ok := a.Value.Any().(error); ok && errAttr == nil {
			errAttr = e
			return
		}
		fields[a.Key] = a.Value.Any()
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(h.qualify(a))
		return true
	})

	var msg Message = Text(r.Message)
	if len(fields) > 0 {
		msg = Text(r.Message + " " + Structured(fields).render())
	}
	var opts []EventOption
	if errAttr != nil {
		if findStackTracer(errAttr) == nil {
			errAttr = errors.WithStack(errAttr)
		}
		opts = append(opts, WithError(errAttr))
	}
	h.log.LogAtLevel(ctx, fromSlogLevel(r.Level), msg, opts...)
	return nil
}

// WithAttrs returns a copy of the handler with additional base attributes.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	if len(attrs) > 0 {
		nh.attrs = append([]slog.Attr{}, h.attrs...)
		for _, a := range attrs {
			nh.attrs = append(nh.attrs, h.qualify(a))
		}
	}
	return &nh
}

// qualify prefixes a's key with the handler's current group.
func (h *SlogHandler) qualify(a slog.Attr) slog.Attr {
	if h.group != "" {
		a.Key = h.group + "." + a.Key
	}
	return a
}

// WithGroup returns a copy of the handler that prefixes later keys with name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if nh.group != "" {
		nh.group += "." + name
	} else {
		nh.group = name
	}
	return &nh
}

func fromSlogLevel(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return Error
	case l >= slog.LevelWarn:
		return Warning
	case l >= slog.LevelInfo:
		return Log
	default:
		return Debug
	}
}
