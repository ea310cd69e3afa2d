// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap - adapter.go
// Adapter chuyển API log của engine (LogType + template kiểu "{0}") sang API log chính,
// để mọi sự kiện engine đi qua đúng một đường format + routing như sự kiện của API chính.
// Install gắn cả hai điểm chặn: advice trên LogAtLevel và getter của engine.Debug.

package logtap

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuonguno98/logtap/engine"
)

// logTypeLevels là bảng ánh xạ LogType của engine sang Level của API chính.
var logTypeLevels = map[engine.LogType]Level{
	engine.Log:       Log,
	engine.Assert:    Log,
	engine.Warning:   Warning,
	engine.Error:     Error,
	engine.Exception: Error,
}

// MapLogType ánh xạ t sang Level. Giá trị ngoài bảng trả về (Log, false).
func MapLogType(t engine.LogType) (Level, bool) {
	lvl, ok := logTypeLevels[t]
	if !ok {
		return Log, false
	}
	return lvl, true
}

// EngineAdapter cài đặt engine.LogHandler bằng cách chuyển tiếp vào một Logger của API chính.
// Nó không tự format hay routing: LogAtLevel sẽ đi lại qua Pipeline.Before.
type EngineAdapter struct {
	log *Logger
}

// NewEngineAdapter tạo adapter chuyển tiếp vào log.
func NewEngineAdapter(log *Logger) *EngineAdapter {
	return &EngineAdapter{log: log}
}

// LogFormat chuẩn hóa LogType, render template với tham số vị trí rồi gọi LogAtLevel.
func (a *EngineAdapter) LogFormat(ctx context.Context, t engine.LogType, format string, args ...any) {
	lvl, _ := MapLogType(t)
	a.log.LogAtLevel(ctx, lvl, Text(renderTemplate(format, args)))
}

// LogException chuyển thẳng vào LogException của API chính.
func (a *EngineAdapter) LogException(ctx context.Context, err error) {
	a.log.LogException(ctx, err)
}

// renderTemplate render template; nếu lỗi thì trả về template gốc kèm danh sách tham số.
// Không bao giờ panic.
func renderTemplate(format string, args []any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = templateFallback(format, args)
		}
	}()
	s, err := engine.Sprintf(format, args...)
	if err != nil {
		return templateFallback(format, args)
	}
	return s
}

func templateFallback(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	parts := make([]string, len(args))
	for i, a := range args {
		s, ok := safeString(func() string {
			if st, isStringer := a.(fmt.Stringer); isStringer {
				return st.String()
			}
			return fmt.Sprint(a)
		})
		if !ok {
			s = unprintable
		}
		parts[i] = s
	}
	return format + " [args: " + strings.Join(parts, ", ") + "]"
}

// EngineLogger trả về engine.Logger dùng adapter, trỏ vào logger EngineLoggerName của b.
// Chỉ được tạo đúng một lần trong suốt vòng đời Pipeline, kể cả khi nhiều goroutine gọi đồng thời.
func (p *Pipeline) EngineLogger(b *Backend) *engine.Logger {
	p.engineOnce.Do(func() {
		p.engineLogger = engine.NewLogger(NewEngineAdapter(b.GetLogger(EngineLoggerName)))
	})
	return p.engineLogger
}

// Install gắn p vào backend b và facade d:
//   - Pipeline.Before chạy trước mọi LogAtLevel của b;
//   - đường chuyển tiếp mặc định engine -> b (HandleEngineLog) bị chặn;
//   - getter của d trả về engine.Logger dùng adapter (tạo lười, một lần).
func Install(p *Pipeline, b *Backend, d *engine.Debug) {
	b.Registry().Register(EntryLogAtLevel, p.Before)
	b.Registry().Register(EntryHandleEngineLog, func(context.Context, LogEvent) bool {
		return false
	})
	if d != nil {
		d.SetLoggerAdvice(func() (*engine.Logger, bool) {
			return p.EngineLogger(b), false
		})
	}
}
