// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap - matcher.go
// Biên dịch danh sách tiền tố cần bỏ qua (PrefixesToIgnore) thành một biểu thức chính quy duy nhất.
// Mỗi tiền tố được coi là chuỗi literal (đã escape), so khớp neo tại đầu chuỗi.
// Lỗi biên dịch không bao giờ làm hỏng tiến trình: fallback về matcher không khớp gì.

package logtap

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Matcher kiểm tra một dòng log đã format có bắt đầu bằng tiền tố bị bỏ qua không.
type Matcher struct {
	re *regexp.Regexp // nil nghĩa là không khớp gì
}

// Matches trả về true nếu s bắt đầu bằng một trong các tiền tố đã biên dịch.
func (m *Matcher) Matches(s string) bool {
	if m == nil || m.re == nil {
		return false
	}
	return m.re.MatchString(s)
}

// String trả về biểu thức đã biên dịch, rỗng nếu matcher không khớp gì.
func (m *Matcher) String() string {
	if m == nil || m.re == nil {
		return ""
	}
	return m.re.String()
}

// prefixPattern ghép các tiền tố đã escape thành "^(?:p1|p2|...)".
func prefixPattern(prefixes []string) string {
	escaped := make([]string, len(prefixes))
	for i, p := range prefixes {
		escaped[i] = regexp.QuoteMeta(p)
	}
	return "^(?:" + strings.Join(escaped, "|") + ")"
}

// CompilePrefixes biên dịch danh sách tiền tố theo đúng thứ tự đã cho.
// Danh sách rỗng trả về matcher không khớp gì (không bao giờ chặn log).
func CompilePrefixes(prefixes []string) (*Matcher, error) {
	if len(prefixes) == 0 {
		return &Matcher{}, nil
	}
	pattern := prefixPattern(prefixes)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &Matcher{}, errors.Wrapf(ErrMatcherCompile, "%s: %v", pattern, err)
	}
	return &Matcher{re: re}, nil
}

// mustCompilePrefixes như CompilePrefixes nhưng chỉ ghi lỗi ra diag, không trả lỗi.
func mustCompilePrefixes(prefixes []string, diag logrus.FieldLogger) *Matcher {
	m, err := CompilePrefixes(prefixes)
	if err != nil {
		diag.WithError(err).Warn("logtap: prefix suppression disabled")
	}
	return m
}
