// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

// Package logtap
//
// logtap chặn mọi lời gọi log của hai API độc lập (API log chính và API log của engine),
// đưa chúng về một chuỗi chuẩn duy nhất rồi áp dụng một chính sách chung:
//
//   - Full log: nếu PreserveFullLog bật, mọi dòng đều được ghi, không lọc.
//   - Debug log: dòng bắt đầu bằng một tiền tố trong PrefixesToIgnore bị bỏ qua; các dòng khác được ghi.
//   - Veto: nếu SkipOriginalLoggers bật, phần thân gốc của API log không chạy nữa.
//
// Dòng chuẩn có dạng:
//
//	<source> [<LEVEL>] <message> | exception: <type>: <error> | stack: <frames>
//
// Cấp độ log của API chính: DEBUG, LOG, WARNING, ERROR.
// LogType của engine được ánh xạ: Log, Assert -> LOG; Warning -> WARNING; Error, Exception -> ERROR.
//
// Tính năng chính:
//   - **Before-advice**: Registry gắn advice trước từng entry point; advice có quyền veto.
//   - **Engine adapter**: getter của engine.Debug trả về logger dùng adapter, tạo đúng một lần.
//   - **Prefix matcher**: tiền tố được escape, ghép thành một regexp neo tại đầu chuỗi.
//   - **Rotation**: full/debug log ghi qua lumberjack.
//   - **Diagnostics**: lỗi nội bộ ghi ra logrus, không bao giờ lan về nơi gọi log.
//   - **OTel**: lỗi ghi sink được gắn vào span đang chạy trong context.
//   - **slog**: SlogHandler đưa log/slog vào cùng một điểm chặn.
//
// Ví dụ:
//
//	package main
//
//	import (
//		"context"
//
//		"github.com/phuonguno98/logtap"
//		"github.com/phuonguno98/logtap/engine"
//	)
//
//	func main() {
//		p, err := logtap.InitFromBytes("logs", []byte(`{
//			"prefixesToIgnore": ["Combat [LOG] tick"],
//			"preserveFullLog": true,
//			"skipOriginalLoggers": false
//		}`))
//		if err != nil {
//			panic(err)
//		}
//		defer p.Close()
//
//		ctx := context.Background()
//		logtap.GetLogger("Combat").Log(ctx, "tick 42")          // chỉ vào full log
//		logtap.GetLogger("Combat").LogWarning(ctx, "low ammo")  // full log + debug log
//		engine.Default.LogFormat(ctx, engine.Error, "boom {0}", "x") // qua adapter
//	}
package logtap
