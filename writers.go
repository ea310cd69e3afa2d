// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap provides the interception pipeline for the primary and engine logging APIs.
// This file implements the sinks that persist canonical lines. Each sink
// serializes its own writes; the pipeline wraps every append with a bounded
// retry policy and tracks per-sink error statistics.

package logtap

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// maxBackoff bounds a single retry wait; log calls are synchronous.
const maxBackoff = 50 * time.Millisecond

// WriterSink appends lines to an io.Writer, one Write per line.
// Concurrent Appends are serialized so lines never interleave.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w. If w also implements io.Closer, Close closes it.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Append writes line followed by a newline.
func (s *WriterSink) Append(line string) error {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.w.Write(buf)
	if err != nil {
		return err
	}
	if n < len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// Close closes the underlying writer if it is an io.Closer.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// namedSink pairs a Sink with the name used in error statistics.
type namedSink struct {
	name string
	sink Sink
}

// tryWrite appends line to sink, retrying per the policy. It returns the
// last error wrapped in ErrSinkWrite when every attempt failed.
func (p *Pipeline) tryWrite(ns namedSink, line string) error {
	if ns.sink == nil {
		return nil
	}
	rp := p.retry
	maxRetries := rp.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = safeAppend(ns.sink, line); err == nil {
			return nil
		}
		p.stats.writeErrs.Add(1)
		p.incWriterErr(ns.name)

		if attempt == maxRetries {
			break
		}
		delay := rp.Backoff
		if delay > maxBackoff {
			delay = maxBackoff
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return errors.Wrapf(ErrSinkWrite, "%s: %v", ns.name, err)
}

// safeAppend turns a panicking sink into an error.
func safeAppend(s Sink, line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("sink panic: %v", r)
		}
	}()
	return s.Append(line)
}
