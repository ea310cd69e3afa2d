// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrBadFormat reports a malformed composite-format template or an
// argument index with no matching argument.
var ErrBadFormat = errors.New("engine: malformed format string")

// maxWidth bounds alignment and precision values.
const maxWidth = 1000000

// Sprintf renders a composite-format template: "{index[,alignment][:verb]}"
// items are replaced by the positional argument, "{{" and "}}" are literal
// braces. A nil argument renders as the empty string.
//
// Supported verbs: "X"/"x" (hex), "D<n>" (zero padded), "F<n>"/"N<n>"
// (fixed point). Any other verb falls back to %v.
func Sprintf(format string, args ...any) (string, error) {
	var sb strings.Builder
	sb.Grow(len(format) + 16*len(args))

	for i := 0; i < len(format); i++ {
		c := format[i]
		switch c {
		case '{':
			if i+1 < len(format) && format[i+1] == '{' {
				sb.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(format[i+1:], '}')
			if end < 0 {
				return "", errors.Wrapf(ErrBadFormat, "unclosed item at offset %d", i)
			}
			item := format[i+1 : i+1+end]
			s, err := renderItem(item, args)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
			i += end + 1
		case '}':
			if i+1 < len(format) && format[i+1] == '}' {
				sb.WriteByte('}')
				i++
				continue
			}
			return "", errors.Wrapf(ErrBadFormat, "unmatched '}' at offset %d", i)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

func renderItem(item string, args []any) (string, error) {
	verb := ""
	if k := strings.IndexByte(item, ':'); k >= 0 {
		item, verb = item[:k], item[k+1:]
	}
	align := 0
	if k := strings.IndexByte(item, ','); k >= 0 {
		a, err := strconv.Atoi(strings.TrimSpace(item[k+1:]))
		if err != nil {
			return "", errors.Wrapf(ErrBadFormat, "bad alignment %q", item[k+1:])
		}
		if a <= -maxWidth || a >= maxWidth {
			return "", errors.Wrapf(ErrBadFormat, "alignment %d out of range", a)
		}
		item, align = item[:k], a
	}
	idx, err := strconv.Atoi(strings.TrimSpace(item))
	if err != nil || idx < 0 {
		return "", errors.Wrapf(ErrBadFormat, "bad index %q", item)
	}
	if idx >= len(args) {
		return "", errors.Wrapf(ErrBadFormat, "index %d out of range (%d args)", idx, len(args))
	}

	s, err := formatValue(args[idx], verb)
	if err != nil {
		return "", err
	}
	if pad := abs(align) - len(s); pad > 0 {
		if align > 0 {
			s = strings.Repeat(" ", pad) + s
		} else {
			s += strings.Repeat(" ", pad)
		}
	}
	return s, nil
}

func formatValue(v any, verb string) (string, error) {
	prec := -1
	if len(verb) > 1 {
		if n, err := strconv.Atoi(verb[1:]); err == nil {
			if n <= -maxWidth || n >= maxWidth {
				return "", errors.Wrapf(ErrBadFormat, "precision %d out of range", n)
			}
			prec = n
		}
	}
	if v == nil {
		return "", nil
	}
	if verb == "" {
		return fmt.Sprint(v), nil
	}
	switch verb[0] {
	case 'X', 'x':
		if n, ok := toInt(v); ok {
			s := strconv.FormatInt(n, 16)
			if verb[0] == 'X' {
				s = strings.ToUpper(s)
			}
			return zeroPad(s, prec), nil
		}
	case 'D', 'd':
		if n, ok := toInt(v); ok {
			neg := n < 0
			if neg {
				n = -n
			}
			s := zeroPad(strconv.FormatInt(n, 10), prec)
			if neg {
				s = "-" + s
			}
			return s, nil
		}
	case 'F', 'f', 'N', 'n':
		if f, ok := toFloat(v); ok {
			if prec < 0 {
				prec = 2
			}
			return strconv.FormatFloat(f, 'f', prec, 64), nil
		}
	}
	return fmt.Sprint(v), nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

func zeroPad(s string, width int) string {
	if width > len(s) {
		return strings.Repeat("0", width-len(s)) + s
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
