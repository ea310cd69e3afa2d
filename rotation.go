// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap - rotation.go
// Tạo sink ghi file có xoay vòng (rotation) cho full log và debug log.
// Sử dụng thư viện lumberjack để xoay file theo dung lượng, thời gian và số lượng file backup.

package logtap

import (
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileSink là sink ghi file dựa trên lumberjack; lumberjack tự khóa khi ghi.
type FileSink struct {
	*WriterSink
	lj *lumberjack.Logger
}

// NewFileSink mở (hoặc tạo) file log tại path với cấu hình xoay vòng cfg.
// Nếu cfg.FreshOnStart, file cũ được xoay đi để mỗi lần chạy bắt đầu với file rỗng.
func NewFileSink(path string, cfg RotationConfig) (*FileSink, error) {
	lj := &lumberjack.Logger{
		Filename:   path,           // Đường dẫn file log
		MaxSize:    cfg.MaxSizeMB,  // Dung lượng tối đa (MB) trước khi xoay
		MaxAge:     cfg.MaxAge,     // Số ngày lưu file log cũ
		MaxBackups: cfg.MaxBackups, // Số file log cũ tối đa
		Compress:   cfg.Compress,   // Nén file log cũ
	}
	if cfg.FreshOnStart {
		if err := lj.Rotate(); err != nil {
			return nil, errors.Wrapf(err, "rotate %s", path)
		}
	}
	return &FileSink{WriterSink: NewWriterSink(lj), lj: lj}, nil
}

// Rotate xoay file hiện tại ngay lập tức.
func (s *FileSink) Rotate() error {
	return s.lj.Rotate()
}

// Filename trả về đường dẫn file đang ghi.
func (s *FileSink) Filename() string {
	return s.lj.Filename
}

// openDirSinks mở full/debug sink trong dir cho những sink chưa được cấu hình.
func openDirSinks(cfg *Config) error {
	if cfg.Directory == "" {
		return nil
	}
	if cfg.FullLog == nil && cfg.Settings.PreserveFullLog {
		s, err := NewFileSink(filepath.Join(cfg.Directory, FullLogFile), cfg.Rotation)
		if err != nil {
			return err
		}
		cfg.FullLog = s
	}
	if cfg.DebugLog == nil {
		s, err := NewFileSink(filepath.Join(cfg.Directory, DebugLogFile), cfg.Rotation)
		if err != nil {
			return err
		}
		cfg.DebugLog = s
	}
	return nil
}
