// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/phuonguno98/logtap"
	"github.com/phuonguno98/logtap/engine"
)

const settingsJSON = `{
	"prefixesToIgnore": ["Combat [LOG] tick", "Engine.Debug [LOG] [TRACE]"],
	"preserveFullLog": true,
	"skipOriginalLoggers": false
}`

// main demonstrates both logging APIs flowing through one interception pipeline.
func main() {
	// 1. Install the process-wide pipeline. Bad settings would fall back to
	// defaults; only an unusable log directory is an error.
	p, err := logtap.InitFromBytes("example/logs", []byte(settingsJSON))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logtap init: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := p.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "logtap close: %v\n", err)
		}
	}()

	ctx := context.Background()

	// 2. Primary API. The tick line is suppressed from the debug log but kept
	// in the full log; the warning reaches both.
	combat := logtap.GetLogger("Combat")
	combat.Log(ctx, "tick 42")
	combat.LogWarning(ctx, logtap.Fields{"unit": "mech-7", "ammo": 3})
	combat.LogException(ctx, errors.New("weapon jammed\nretrying"))

	// 3. Engine API. The getter hands out the adapter, so these lines are
	// formatted and routed exactly like primary calls on "Engine.Debug".
	engine.Default.Log(ctx, "[TRACE] entity spawned")
	engine.Default.LogFormat(ctx, engine.Error, "boom {0}", "x")
	engine.Default.LogFormat(ctx, engine.Warning, "{0,-6}|{1:F1}", "hp", 12.345)

	// 4. log/slog call sites, inside a span so sink failures would be
	// recorded on it.
	ctx, span := otel.Tracer("logtap-example").Start(ctx, "slog-demo")
	slogger := slog.New(logtap.NewSlogHandler(logtap.GetLogger("Network")))
	slogger.InfoContext(ctx, "peer connected", "peer", "10.0.0.4")
	span.End()

	// 5. Stats.
	st := p.Stats()
	fmt.Printf("events=%d suppressed=%d full=%d debug=%d writeErrs=%d\n",
		st.Events, st.Suppressed, st.FullWrites, st.DebugWrites, st.WriteErrs)
}
