// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap - hooks.go
// Bảng đăng ký before-advice theo từng entry point của API log gốc.
// Mỗi advice chạy đồng bộ trước phần thân gốc và có quyền phủ quyết (veto) phần thân gốc.
// Advice bị panic được ghi nhận lỗi và coi như cho phép chạy tiếp; không bao giờ lan ra nơi gọi log.

package logtap

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// EntryPoint định danh một điểm vào của API log gốc có thể gắn advice.
type EntryPoint string

const (
	// EntryLogAtLevel là Logger.LogAtLevel: mọi lời gọi log của API chính đều đi qua đây.
	EntryLogAtLevel EntryPoint = "Logger.LogAtLevel"
	// EntryHandleEngineLog là đường chuyển tiếp mặc định từ engine vào API chính.
	EntryHandleEngineLog EntryPoint = "Backend.HandleEngineLog"
)

// BeforeFunc chạy trước phần thân gốc; trả về false để chặn phần thân gốc.
type BeforeFunc func(ctx context.Context, ev LogEvent) bool

// AdviceError lưu thông tin một advice bị panic.
type AdviceError struct {
	Time   time.Time  // Thời điểm xảy ra lỗi.
	Entry  EntryPoint // Entry point đang chạy.
	Source string     // Tên logger của sự kiện.
	Err    error      // Lỗi đã bọc ErrAdvicePanic.
}

const defaultAdviceErrMax = 1000

// Registry là bảng advice, khóa theo EntryPoint.
type Registry struct {
	mu     sync.RWMutex
	advice map[EntryPoint][]BeforeFunc

	errMu    sync.Mutex
	errLog   []AdviceError
	errMax   int
	errCount atomic.Int64
}

// NewRegistry tạo bảng advice rỗng.
func NewRegistry() *Registry {
	return &Registry{
		advice: make(map[EntryPoint][]BeforeFunc),
		errMax: defaultAdviceErrMax,
	}
}

// Register gắn fn vào ep; các advice chạy theo thứ tự đăng ký.
func (r *Registry) Register(ep EntryPoint, fn BeforeFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.advice[ep] = append(r.advice[ep], fn)
	r.mu.Unlock()
}

// snapshot trả về bản sao slice advice (không giữ khóa khi thực thi).
func (r *Registry) snapshot(ep EntryPoint) []BeforeFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := r.advice[ep]
	if len(fns) == 0 {
		return nil
	}
	cp := make([]BeforeFunc, len(fns))
	copy(cp, fns)
	return cp
}

// Before chạy mọi advice của ep. Phần thân gốc chỉ được chạy khi tất cả đều trả về true;
// một advice trả về false không ngăn các advice sau chạy.
func (r *Registry) Before(ctx context.Context, ep EntryPoint, ev LogEvent) bool {
	cont := true
	for _, fn := range r.snapshot(ep) {
		if !r.run(ctx, ep, fn, ev) {
			cont = false
		}
	}
	return cont
}

// run thực thi một advice, chống panic.
func (r *Registry) run(ctx context.Context, ep EntryPoint, fn BeforeFunc, ev LogEvent) (cont bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.recordAdviceError(ep, ev, errors.Wrapf(ErrAdvicePanic, "%v", rec))
			cont = true
		}
	}()
	return fn(ctx, ev)
}

// recordAdviceError ghi nhận lỗi advice vào bộ đếm và log chi tiết (có giới hạn).
func (r *Registry) recordAdviceError(ep EntryPoint, ev LogEvent, err error) {
	r.errCount.Add(1)
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if r.errMax <= 0 {
		r.errMax = defaultAdviceErrMax
	}
	// Giới hạn số lỗi lưu lại để tránh tăng bộ nhớ vô hạn
	if len(r.errLog) >= r.errMax {
		r.errLog = r.errLog[len(r.errLog)-r.errMax+1:]
	}
	r.errLog = append(r.errLog, AdviceError{
		Time:   time.Now(),
		Entry:  ep,
		Source: ev.Source,
		Err:    err,
	})
}

// AdviceErrors trả về bản sao các lỗi advice đã ghi nhận.
func (r *Registry) AdviceErrors() []AdviceError {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	out := make([]AdviceError, len(r.errLog))
	copy(out, r.errLog)
	return out
}

// AdviceErrorCount trả về tổng số lần advice bị panic.
func (r *Registry) AdviceErrorCount() int64 {
	return r.errCount.Load()
}
