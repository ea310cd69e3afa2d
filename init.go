// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap provides the interception pipeline for the primary and engine logging APIs.
// This file handles building a Pipeline from a Config and the one-time
// installation of the process-wide pipeline.

package logtap

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/phuonguno98/logtap/engine"
)

var (
	globalPipeline *Pipeline
	globalBackend  *Backend
	globalMu       sync.RWMutex
	initMu         sync.Mutex
)

// New builds a Pipeline from cfg. It only fails when file sinks under
// cfg.Directory cannot be opened; every other problem degrades to defaults.
func New(cfg Config) (*Pipeline, error) {
	// --- Apply Defaults ---
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = defaultDiagnostics()
	}
	if cfg.Formatter == nil {
		cfg.Formatter = &TextFormatter{}
	}
	if cfg.Settings.PrefixesToIgnore == nil {
		cfg.Settings.PrefixesToIgnore = []string{}
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if err := openDirSinks(&cfg); err != nil {
		return nil, err
	}

	p := &Pipeline{
		settings:  cfg.Settings,
		formatter: cfg.Formatter,
		full:      namedSink{name: "full", sink: cfg.FullLog},
		debug:     namedSink{name: "debug", sink: cfg.DebugLog},
		retry:     cfg.Retry,
		diag:      cfg.Diagnostics,
	}
	p.settings.PrefixesToIgnore = append([]string(nil), cfg.Settings.PrefixesToIgnore...)
	p.matcher = mustCompilePrefixes(p.settings.PrefixesToIgnore, p.diag)
	return p, nil
}

// Init builds the process-wide pipeline and installs it into the default
// primary backend and engine.Default. Once a call succeeds, later calls
// return that pipeline and ignore their cfg. A failed call installs
// nothing, so Init may be retried.
func Init(cfg Config) (*Pipeline, error) {
	initMu.Lock()
	defer initMu.Unlock()

	globalMu.RLock()
	p := globalPipeline
	globalMu.RUnlock()
	if p != nil {
		return p, nil
	}

	p, err := New(cfg)
	if err != nil {
		return nil, err
	}

	globalMu.Lock()
	b := globalBackend
	if b == nil {
		out := cfg.Original
		if out == nil {
			out = os.Stdout
		}
		b = NewBackend(out)
		globalBackend = b
	}
	globalPipeline = p
	globalMu.Unlock()

	b.AttachEngine(engine.Default)
	Install(p, b, engine.Default)
	return p, nil
}

// InitFromBytes is Init with settings decoded from raw JSON or YAML. Bad
// settings never fail startup; defaults apply and a diagnostic is logged.
func InitFromBytes(directory string, settings []byte) (*Pipeline, error) {
	diag := defaultDiagnostics()
	return Init(Config{
		Settings:    SettingsFromBytes(settings, diag),
		Directory:   directory,
		Rotation:    RotationConfig{FreshOnStart: true},
		Diagnostics: diag,
	})
}

// GetLogger returns a named logger from the process-wide backend. A backend
// created here, before Init, writes to os.Stdout and is reused by Init, so
// loggers obtained early are intercepted too.
func GetLogger(name string) *Logger {
	globalMu.Lock()
	if globalBackend == nil {
		globalBackend = NewBackend(os.Stdout)
	}
	b := globalBackend
	globalMu.Unlock()
	return b.GetLogger(name)
}

// defaultDiagnostics returns the logger used when Config.Diagnostics is nil.
func defaultDiagnostics() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l.WithField("component", "logtap")
}
