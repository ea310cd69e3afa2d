// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

package logtap

import (
	"runtime"

	"github.com/pkg/errors"
)

const maxLocationDepth = 32

// CaptureLocation records the caller's stack. skip=0 starts at the function
// calling CaptureLocation.
func CaptureLocation(skip int) Location {
	var pcs [maxLocationDepth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return nil
	}
	st := make(errors.StackTrace, n)
	for i := 0; i < n; i++ {
		st[i] = errors.Frame(pcs[i])
	}
	return st
}
