// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

package logtap

import (
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Settings is the routing policy. It is loaded once and never mutated.
type Settings struct {
	// PrefixesToIgnore lists literal prefixes; a canonical line starting with
	// any of them is withheld from the debug log.
	PrefixesToIgnore []string `json:"prefixesToIgnore"`
	// PreserveFullLog mirrors every line to the full log, suppressed or not.
	PreserveFullLog bool `json:"preserveFullLog"`
	// SkipOriginalLoggers vetoes the original backend for every call.
	SkipOriginalLoggers bool `json:"skipOriginalLoggers"`
}

// DefaultSettings returns the fallback policy: nothing suppressed, no full
// log, original backends untouched.
func DefaultSettings() Settings {
	return Settings{PrefixesToIgnore: []string{}}
}

// ParseSettings decodes JSON or YAML settings. Keys match case-insensitively,
// so both "prefixesToIgnore" and "PrefixesToIgnore" are accepted.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), errors.Wrap(ErrConfigLoad, err.Error())
	}
	if s.PrefixesToIgnore == nil {
		s.PrefixesToIgnore = []string{}
	}
	return s, nil
}

// SettingsFromBytes is ParseSettings with the startup fallback applied: a
// decode failure is reported to diag and DefaultSettings is returned.
func SettingsFromBytes(data []byte, diag logrus.FieldLogger) Settings {
	s, err := ParseSettings(data)
	if err != nil {
		if diag == nil {
			diag = defaultDiagnostics()
		}
		diag.WithError(err).Warn("logtap: using default settings")
		return DefaultSettings()
	}
	return s
}
