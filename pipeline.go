// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap provides the interception pipeline for the primary and engine logging APIs.
// This file implements the per-event path: format the event once, test it
// against the prefix matcher, write the full and debug logs, and decide
// whether the original backend may still run.

package logtap

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/phuonguno98/logtap/engine"
)

// Pipeline is the process-wide interception state. It is built once by New
// and is read-only afterwards, so Before may be called from any goroutine.
type Pipeline struct {
	settings  Settings
	matcher   *Matcher
	formatter Formatter
	full      namedSink
	debug     namedSink
	retry     RetryPolicy
	diag      logrus.FieldLogger

	stats      counters
	writerErrs sync.Map // name -> *atomic.Int64

	engineOnce   sync.Once
	engineLogger *engine.Logger

	closeOnce sync.Once
	closeErr  error
}

// Settings returns the active policy.
func (p *Pipeline) Settings() Settings {
	s := p.settings
	s.PrefixesToIgnore = append([]string(nil), p.settings.PrefixesToIgnore...)
	return s
}

// Matcher returns the compiled prefix matcher.
func (p *Pipeline) Matcher() *Matcher { return p.matcher }

// FormatMessage renders ev with the configured formatter. It never panics;
// a failing custom formatter yields the placeholder line.
func (p *Pipeline) FormatMessage(ev LogEvent) (s string) {
	defer func() {
		if r := recover(); r != nil {
			p.stats.formatErrs.Add(1)
			p.diag.WithField("source", ev.Source).
				WithError(errors.Wrapf(ErrFormat, "formatter panic: %v", r)).
				Warn("logtap: format failed")
			s = ev.Source + " [" + ev.Level.String() + "] " + unprintable
		}
	}()

	if f, ok := p.formatter.(interface {
		Format(LogEvent) (string, error)
	}); ok {
		out, err := f.Format(ev)
		if err != nil {
			p.stats.formatErrs.Add(1)
			p.diag.WithField("source", ev.Source).WithError(err).Debug("logtap: format degraded")
		}
		return out
	}
	return p.formatter.FormatMessage(ev)
}

// Before is the primary API's before-advice. It formats ev exactly once,
// applies the routing policy and returns whether the original
// implementation should still run. It never panics and never blocks; the
// result is !SkipOriginalLoggers even when routing fails.
func (p *Pipeline) Before(ctx context.Context, ev LogEvent) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			cont = !p.settings.SkipOriginalLoggers
			defer func() { _ = recover() }()
			p.diag.WithError(errors.Errorf("%v", r)).Error("logtap: interception failed")
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	p.stats.events.Add(1)
	s := p.FormatMessage(ev)
	return p.Route(ctx, s)
}

// Route applies the routing policy to an already formatted line:
//  1. with PreserveFullLog, s goes to the full log unconditionally;
//  2. when s does not match an ignored prefix, it goes to the debug log;
//  3. the result is !SkipOriginalLoggers, independent of 1 and 2.
//
// Sink failures are reported to diagnostics and the active span only.
func (p *Pipeline) Route(ctx context.Context, s string) bool {
	if p.settings.PreserveFullLog {
		if err := p.tryWrite(p.full, s); err != nil {
			p.reportWriteErr(ctx, p.full.name, err)
		} else if p.full.sink != nil {
			p.stats.fullWrites.Add(1)
		}
	}

	if p.matcher.Matches(s) {
		p.stats.suppressed.Add(1)
	} else {
		if err := p.tryWrite(p.debug, s); err != nil {
			p.reportWriteErr(ctx, p.debug.name, err)
		} else if p.debug.sink != nil {
			p.stats.debugWrites.Add(1)
		}
	}

	if p.settings.SkipOriginalLoggers {
		p.stats.vetoed.Add(1)
		return false
	}
	p.stats.continued.Add(1)
	return true
}

func (p *Pipeline) reportWriteErr(ctx context.Context, sink string, err error) {
	recordSpanError(ctx, sink, err)
	entry := p.diag.WithError(err).WithField("sink", sink)
	if tid := extractOTelTraceID(ctx); tid != "" {
		entry = entry.WithField("trace_id", tid).WithField("span_id", extractOTelSpanID(ctx))
	}
	entry.Warn("logtap: sink write failed")
}
