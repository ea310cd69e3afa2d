// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

package logtap

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/phuonguno98/logtap/engine"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

// harness wires a backend, an engine facade and a pipeline the way Init
// does, but with in-memory outputs.
type harness struct {
	b       *Backend
	d       *engine.Debug
	p       *Pipeline
	orig    *bytes.Buffer
	console *bytes.Buffer
	full    *memSink
	debug   *memSink
	hook    *test.Hook
}

func newHarness(t *testing.T, s Settings) *harness {
	t.Helper()
	h := &harness{orig: &bytes.Buffer{}, console: &bytes.Buffer{}}
	h.b = NewBackend(h.orig)
	h.b.now = fixedNow
	h.d = engine.NewDebug(engine.NewConsoleHandler(h.console))
	h.b.AttachEngine(h.d)
	h.p, h.full, h.debug, h.hook = newTestPipeline(t, s)
	Install(h.p, h.b, h.d)
	return h
}

func TestBackendWithoutPipeline(t *testing.T) {
	var out bytes.Buffer
	b := NewBackend(&out)
	b.now = fixedNow
	ctx := context.Background()

	l := b.GetLogger("Combat")
	require.Same(t, l, b.GetLogger("Combat"))
	require.Equal(t, "Combat", l.Name())

	l.Log(ctx, "tick 1")
	l.LogWarning(ctx, Fields{"ammo": 3})
	l.LogDebug(ctx, "verbose")
	l.LogError(ctx, "jammed", WithError(fmt.Errorf("pin")))
	require.Equal(t, strings.Join([]string{
		"2025-03-01T12:00:00Z Combat [LOG] tick 1",
		"2025-03-01T12:00:00Z Combat [WARNING] ammo=3",
		"2025-03-01T12:00:00Z Combat [DEBUG] verbose",
		"2025-03-01T12:00:00Z Combat [ERROR] jammed | exception: *errors.errorString: pin",
		"",
	}, "\n"), out.String())
}

func TestNewBackendNilWriter(t *testing.T) {
	b := NewBackend(nil)
	require.NotPanics(t, func() { b.GetLogger("x").Log(context.Background(), "dropped") })
}

func TestEngineForwardingBeforeInstall(t *testing.T) {
	var out, console bytes.Buffer
	b := NewBackend(&out)
	b.now = fixedNow
	d := engine.NewDebug(engine.NewConsoleHandler(&console))
	b.AttachEngine(d)
	b.AttachEngine(d)

	ctx := context.Background()
	d.LogWarning(ctx, "hp low")
	d.LogFormat(ctx, engine.Assert, "check {0}", "failed")

	require.Equal(t, "[Warning] hp low\n[Assert] check failed\n", console.String())
	require.Equal(t,
		"2025-03-01T12:00:00Z Engine.Debug [WARNING] hp low\n"+
			"2025-03-01T12:00:00Z Engine.Debug [LOG] check failed\n",
		out.String(), "attached once, forwarded once")
}

func TestEngineForwardingCarriesStack(t *testing.T) {
	var out bytes.Buffer
	b := NewBackend(&out)
	d := engine.NewDebug(engine.NewConsoleHandler(&bytes.Buffer{}))
	b.AttachEngine(d)

	d.LogException(context.Background(), errors.New("crash"))
	got := out.String()
	require.Contains(t, got, "Engine.Debug [ERROR] crash | exception: logtap.engineStackError: crash")
	require.NotContains(t, strings.TrimSuffix(got, "\n"), "\n")
}

func TestPrimaryCallIsIntercepted(t *testing.T) {
	h := newHarness(t, Settings{PreserveFullLog: true})
	ctx := context.Background()

	h.b.GetLogger("Combat").LogWarning(ctx, "low ammo")
	require.Equal(t, []string{"Combat [WARNING] low ammo"}, h.debug.Lines())
	require.Equal(t, h.debug.Lines(), h.full.Lines())
	require.Equal(t, "2025-03-01T12:00:00Z Combat [WARNING] low ammo\n", h.orig.String())
}

func TestPrimaryCallSuppressedAndVetoed(t *testing.T) {
	h := newHarness(t, Settings{
		PrefixesToIgnore:    []string{"World [LOG] [TRACE]"},
		PreserveFullLog:     true,
		SkipOriginalLoggers: true,
	})

	h.b.GetLogger("World").Log(context.Background(), "[TRACE] entity spawned")
	require.Equal(t, []string{"World [LOG] [TRACE] entity spawned"}, h.full.Lines())
	require.Empty(t, h.debug.Lines())
	require.Empty(t, h.orig.String(), "original backend vetoed")

	st := h.p.Stats()
	require.EqualValues(t, 1, st.Suppressed)
	require.EqualValues(t, 1, st.Vetoed)
}

func TestEngineCallMatchesPrimaryCall(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	ctx := context.Background()

	h.d.LogFormat(ctx, engine.Error, "boom {0}", "x")
	h.b.GetLogger(EngineLoggerName).LogAtLevel(ctx, Error, Text("boom x"))

	lines := h.debug.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, "Engine.Debug [ERROR] boom x", lines[0])
	require.Equal(t, lines[0], lines[1])
	require.Empty(t, h.console.String(), "built-in engine logger bypassed")
	require.EqualValues(t, 2, h.p.Stats().Events, "each call intercepted exactly once")
}

func TestEngineLogTypesThroughAdapter(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	ctx := context.Background()

	h.d.Log(ctx, "spawned")
	h.d.LogWarning(ctx, "slow frame")
	h.d.LogError(ctx, "lost device")
	h.d.LogFormat(ctx, engine.Assert, "{0} != {1}", 1, 2)
	h.d.LogFormat(ctx, engine.Warning, "[{0,-4}|{1:F1}]", "hp", 12.345)
	h.d.LogFormat(ctx, engine.Log, "boom {1}", "x")
	h.d.LogException(ctx, fmt.Errorf("shader"))

	require.Equal(t, []string{
		"Engine.Debug [LOG] spawned",
		"Engine.Debug [WARNING] slow frame",
		"Engine.Debug [ERROR] lost device",
		"Engine.Debug [LOG] 1 != 2",
		"Engine.Debug [WARNING] [hp  |12.3]",
		"Engine.Debug [LOG] boom {1} [args: x]",
		"Engine.Debug [ERROR] | exception: *errors.errorString: shader",
	}, h.debug.Lines())
}

func TestDefaultForwardingVetoedAfterInstall(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	h.b.HandleEngineLog(context.Background(), "late", "", engine.Log)
	require.Empty(t, h.debug.Lines())
	require.Empty(t, h.orig.String())
	require.Zero(t, h.p.Stats().Events)
}

func TestEngineLoggerCreatedOnce(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	var g errgroup.Group
	got := make([]*engine.Logger, 32)
	for i := range got {
		i := i
		g.Go(func() error {
			got[i] = h.d.Logger()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, l := range got {
		require.Same(t, got[0], l)
	}
	require.Same(t, got[0], h.p.EngineLogger(h.b))
}

func TestConcurrentLoggingKeepsLinesIntact(t *testing.T) {
	diag, _ := test.NewNullLogger()
	var buf bytes.Buffer
	p, err := New(Config{
		Settings:    Settings{PrefixesToIgnore: []string{"Noise"}},
		DebugLog:    NewWriterSink(&buf),
		Diagnostics: diag,
	})
	require.NoError(t, err)
	b := NewBackend(nil)
	d := engine.NewDebug(engine.NewConsoleHandler(&bytes.Buffer{}))
	Install(p, b, d)

	const workers, perWorker = 8, 200
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			ctx := context.Background()
			for i := 0; i < perWorker; i++ {
				b.GetLogger(fmt.Sprintf("W%d", w)).Log(ctx, fmt.Sprintf("msg %d", i))
				b.GetLogger("Noise").Log(ctx, "dropped")
				d.LogFormat(ctx, engine.Warning, "engine {0}", i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, workers*perWorker*2)
	var primary, engineLines int
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "W") && strings.Contains(line, " [LOG] msg "):
			primary++
		case strings.HasPrefix(line, "Engine.Debug [WARNING] engine "):
			engineLines++
		default:
			t.Fatalf("corrupted line %q", line)
		}
	}
	require.Equal(t, workers*perWorker, primary)
	require.Equal(t, workers*perWorker, engineLines)

	st := p.Stats()
	require.EqualValues(t, workers*perWorker*3, st.Events)
	require.EqualValues(t, workers*perWorker, st.Suppressed)
}

func TestRegistryVetoAndPanic(t *testing.T) {
	r := NewRegistry()
	ev := LogEvent{Source: "Combat", Level: Log}
	ctx := context.Background()

	require.True(t, r.Before(ctx, EntryLogAtLevel, ev), "no advice means continue")

	var ran atomic.Int64
	r.Register(EntryLogAtLevel, func(context.Context, LogEvent) bool { ran.Add(1); return false })
	r.Register(EntryLogAtLevel, func(context.Context, LogEvent) bool { ran.Add(1); panic("advice bug") })
	r.Register(EntryLogAtLevel, func(context.Context, LogEvent) bool { ran.Add(1); return true })
	r.Register(EntryLogAtLevel, nil)

	require.False(t, r.Before(ctx, EntryLogAtLevel, ev))
	require.EqualValues(t, 3, ran.Load(), "a veto does not stop later advice")
	require.True(t, r.Before(ctx, EntryHandleEngineLog, ev), "advice is per entry point")

	require.EqualValues(t, 1, r.AdviceErrorCount())
	errs := r.AdviceErrors()
	require.Len(t, errs, 1)
	require.Equal(t, EntryLogAtLevel, errs[0].Entry)
	require.Equal(t, "Combat", errs[0].Source)
	require.True(t, errors.Is(errs[0].Err, ErrAdvicePanic))
}

func TestPanickingAdviceLetsOriginalRun(t *testing.T) {
	var out bytes.Buffer
	b := NewBackend(&out)
	b.Registry().Register(EntryLogAtLevel, func(context.Context, LogEvent) bool { panic("oops") })

	require.NotPanics(t, func() { b.GetLogger("A").Log(context.Background(), "still here") })
	require.Contains(t, out.String(), "A [LOG] still here")
}

func TestWithCaller(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.b.GetLogger("AI").Log(context.Background(), "path found", WithCaller(0))

	lines := h.debug.Lines()
	require.Len(t, lines, 1)
	require.True(t, strings.HasPrefix(lines[0], "AI [LOG] path found | at: TestWithCaller (logger_core_test.go:"), lines[0])
}
