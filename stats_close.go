// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap provides the interception pipeline for the primary and engine logging APIs.
// This file contains runtime statistics for a pipeline and the shutdown
// path that closes its sinks.

package logtap

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Stats is a snapshot of pipeline activity.
type Stats struct {
	Events      int64            // events seen by Before
	Suppressed  int64            // events withheld from the debug log
	FullWrites  int64            // successful full log appends
	DebugWrites int64            // successful debug log appends
	FormatErrs  int64            // events rendered with a placeholder
	WriteErrs   int64            // failed sink append attempts, retries included
	Continued   int64            // events where the original backend ran
	Vetoed      int64            // events where the original backend was skipped
	WriterErrs  map[string]int64 // failed attempts per sink name
}

// Stats returns a snapshot of the pipeline's counters. Safe for concurrent use.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Events:      p.stats.events.Load(),
		Suppressed:  p.stats.suppressed.Load(),
		FullWrites:  p.stats.fullWrites.Load(),
		DebugWrites: p.stats.debugWrites.Load(),
		FormatErrs:  p.stats.formatErrs.Load(),
		WriteErrs:   p.stats.writeErrs.Load(),
		Continued:   p.stats.continued.Load(),
		Vetoed:      p.stats.vetoed.Load(),
		WriterErrs:  p.getWriterErrorStats(),
	}
}

// Close closes the full and debug sinks that implement io.Closer and prints
// a writer error summary to diagnostics. It is idempotent.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		var errs []string
		for _, ns := range []namedSink{p.full, p.debug} {
			c, ok := ns.sink.(io.Closer)
			if !ok {
				continue
			}
			if err := c.Close(); err != nil {
				p.incWriterErr(ns.name)
				errs = append(errs, fmt.Sprintf("%s: %v", ns.name, err))
			}
		}
		if summary := p.formatWriterErrorStats(); summary != "" {
			p.diag.Warn(summary)
		}
		if len(errs) > 0 {
			p.closeErr = errors.Errorf("logtap: close: %s", strings.Join(errs, "; "))
		}
	})
	return p.closeErr
}

// incWriterErr increments the error count for a sink.
func (p *Pipeline) incWriterErr(name string) {
	if c, ok := p.writerErrs.Load(name); ok {
		c.(*atomic.Int64).Add(1)
		return
	}
	c := &atomic.Int64{}
	prev, _ := p.writerErrs.LoadOrStore(name, c)
	prev.(*atomic.Int64).Add(1)
}

// getWriterErrorStats snapshots the per-sink error counts.
func (p *Pipeline) getWriterErrorStats() map[string]int64 {
	stats := make(map[string]int64)
	p.writerErrs.Range(func(key, value any) bool {
		stats[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return stats
}

// formatWriterErrorStats creates a summary string of writer errors.
func (p *Pipeline) formatWriterErrorStats() string {
	stats := p.getWriterErrorStats()
	if len(stats) == 0 {
		return ""
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("logtap: writer errors: ")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s=%d", name, stats[name]))
	}
	return sb.String()
}
