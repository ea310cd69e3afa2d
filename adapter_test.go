// Copyright (c) 2025 Nguyễn Thanh Phương
// This source code is licensed under the MIT License found in the LICENSE file.

package logtap

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/logtap/engine"
)

func TestMapLogType(t *testing.T) {
	want := map[engine.LogType]Level{
		engine.Log:       Log,
		engine.Assert:    Log,
		engine.Warning:   Warning,
		engine.Error:     Error,
		engine.Exception: Error,
	}
	for _, lt := range engine.LogTypes() {
		lvl, ok := MapLogType(lt)
		require.True(t, ok, lt.String())
		require.Equal(t, want[lt], lvl, lt.String())
	}

	for _, lt := range []engine.LogType{-1, 5, 99} {
		lvl, ok := MapLogType(lt)
		require.False(t, ok)
		require.Equal(t, Log, lvl)
	}
}

func TestRenderTemplate(t *testing.T) {
	require.Equal(t, "boom x", renderTemplate("boom {0}", []any{"x"}))
	require.Equal(t, "boom {1} [args: x]", renderTemplate("boom {1}", []any{"x"}))
	require.Equal(t, "bad {0", renderTemplate("bad {0", nil))
	require.Equal(t, "hp {0,9000000000} [args: 3]", renderTemplate("hp {0,9000000000}", []any{3}))
	require.Equal(t, "id {0:D9000000000} [args: 3]", renderTemplate("id {0:D9000000000}", []any{3}))
	require.Equal(t, "n {0 [args: 1, <nil>, <unprintable>]", renderTemplate("n {0", []any{1, nil, panicStringer{}}))
}

func TestEngineAdapterUnknownLogType(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	NewEngineAdapter(h.b.GetLogger(EngineLoggerName)).LogFormat(context.Background(), engine.LogType(42), "odd {0}", 1)
	require.Equal(t, []string{"Engine.Debug [LOG] odd 1"}, h.debug.Lines())
}

func TestInstallWithoutEngine(t *testing.T) {
	p, _, debug, _ := newTestPipeline(t, DefaultSettings())
	b := NewBackend(io.Discard)
	Install(p, b, nil)
	b.GetLogger("A").Log(context.Background(), "x")
	require.Equal(t, []string{"A [LOG] x"}, debug.Lines())
}

// isolateGlobals clears the process-wide pipeline and backend for one test
// and restores them afterwards.
func isolateGlobals(t *testing.T) {
	t.Helper()
	globalMu.Lock()
	prevPipeline, prevBackend := globalPipeline, globalBackend
	globalPipeline, globalBackend = nil, nil
	globalMu.Unlock()
	t.Cleanup(func() {
		globalMu.Lock()
		globalPipeline, globalBackend = prevPipeline, prevBackend
		globalMu.Unlock()
	})
}

func TestInitInstallsProcessWide(t *testing.T) {
	isolateGlobals(t)
	diag, _ := test.NewNullLogger()
	debug := &memSink{}
	p, err := Init(Config{DebugLog: debug, Original: io.Discard, Diagnostics: diag})
	require.NoError(t, err)

	again, err := Init(Config{DebugLog: &memSink{}, Diagnostics: diag})
	require.NoError(t, err)
	require.Same(t, p, again, "only the first Init takes effect")

	ctx := context.Background()
	GetLogger("Combat").LogWarning(ctx, "low ammo")
	engine.Default.LogFormat(ctx, engine.Error, "boom {0}", "x")
	require.Equal(t, []string{
		"Combat [WARNING] low ammo",
		"Engine.Debug [ERROR] boom x",
	}, debug.Lines())
}

func TestInitRetryAfterFailure(t *testing.T) {
	isolateGlobals(t)
	diag, _ := test.NewNullLogger()

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	p, err := Init(Config{
		Directory:   filepath.Join(blocker, "logs"),
		Rotation:    RotationConfig{FreshOnStart: true},
		Original:    io.Discard,
		Diagnostics: diag,
	})
	require.Error(t, err)
	require.Nil(t, p)

	debug := &memSink{}
	p, err = Init(Config{DebugLog: debug, Original: io.Discard, Diagnostics: diag})
	require.NoError(t, err)
	require.NotNil(t, p)

	again, err := Init(Config{Diagnostics: diag})
	require.NoError(t, err)
	require.Same(t, p, again)

	GetLogger("Save").LogError(context.Background(), "retry worked")
	require.Equal(t, []string{"Save [ERROR] retry worked"}, debug.Lines())
}
