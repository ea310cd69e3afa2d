// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

package logtap

import "github.com/pkg/errors"

// Failure classes inside the pipeline. None of them ever reaches the caller
// of an intercepted log call; they surface through Config.Diagnostics and
// Stats only. Use errors.Is to classify.
var (
	// ErrConfigLoad reports settings that could not be decoded; defaults apply.
	ErrConfigLoad = errors.New("logtap: settings load failed")
	// ErrFormat reports a message, error or template that could not be rendered.
	ErrFormat = errors.New("logtap: format failed")
	// ErrMatcherCompile reports a prefix expression that did not compile.
	ErrMatcherCompile = errors.New("logtap: prefix matcher compile failed")
	// ErrSinkWrite reports a failed append to the full or debug log.
	ErrSinkWrite = errors.New("logtap: sink write failed")
	// ErrAdvicePanic reports a before-advice that panicked.
	ErrAdvicePanic = errors.New("logtap: advice panic")
)
