package engine_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentview/core/config"
	"github.com/agentview/core/engine"
	"github.com/agentview/core/session"
	"github.com/agentview/core/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, ignore ...string) (*engine.Engine, *config.Config, *testutil.FakeChecker) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		StateFile: filepath.Join(dir, "state.json"),
		LockRoot:  filepath.Join(dir, "locks"),
		AuditLog:  filepath.Join(dir, "events.jsonl"),
		Ignore:    ignore,
	}
	checker := testutil.NewFakeChecker()
	e, err := engine.NewWithChecker(cfg, checker)
	require.NoError(t, err)
	return e, cfg, checker
}

func freshRecord(id string, state session.State, cwd string) session.Record {
	now := time.Now().UTC()
	return session.Record{
		SessionID:      id,
		State:          state,
		Cwd:            cwd,
		UpdatedAt:      now,
		StateChangedAt: now,
	}
}

func TestResolveState(t *testing.T) {
	e, cfg, _ := newEngine(t)
	proj := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, os.MkdirAll(proj, 0755))

	state, ok := e.ResolveState(proj)
	assert.False(t, ok)
	assert.Empty(t, state)
	assert.False(t, e.IsSessionRunning(proj))

	testutil.WriteStateFile(t, cfg.StateFile, freshRecord("s1", session.StateWorking, proj))

	state, ok = e.ResolveState(proj)
	assert.True(t, ok)
	assert.Equal(t, session.StateWorking, state)
	assert.True(t, e.IsSessionRunning(proj))

	details := e.ResolveStateWithDetails(proj)
	require.NotNil(t, details)
	assert.Equal(t, "s1", details.SessionID)
	assert.False(t, details.FromLock)
}

func TestIgnoredPathsNeverResolve(t *testing.T) {
	e, cfg, _ := newEngine(t, "**/scratch")
	base := t.TempDir()
	proj := filepath.Join(base, "scratch")
	require.NoError(t, os.MkdirAll(proj, 0755))

	testutil.WriteStateFile(t, cfg.StateFile, freshRecord("s1", session.StateWorking, proj))

	assert.Nil(t, e.ResolveStateWithDetails(proj))
	assert.False(t, e.IsSessionRunning(proj))

	// Paths under an ignored directory are ignored too.
	nested := filepath.Join(proj, "sub")
	require.NoError(t, os.MkdirAll(nested, 0755))
	assert.Nil(t, e.ResolveStateWithDetails(nested))
}

func TestInvalidIgnorePatterns(t *testing.T) {
	cfg := &config.Config{
		StateFile: filepath.Join(t.TempDir(), "state.json"),
		LockRoot:  filepath.Join(t.TempDir(), "locks"),
		Ignore:    []string{"[invalid"},
	}
	_, err := engine.New(cfg)
	require.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	e, cfg, checker := newEngine(t)
	base := t.TempDir()
	projA := filepath.Join(base, "a")
	projB := filepath.Join(base, "b")
	require.NoError(t, os.MkdirAll(projA, 0755))
	require.NoError(t, os.MkdirAll(projB, 0755))

	older := freshRecord("old", session.StateReady, projA)
	older.UpdatedAt = older.UpdatedAt.Add(-time.Minute)
	testutil.WriteStateFile(t, cfg.StateFile,
		older,
		freshRecord("new", session.StateWorking, projB),
	)

	started := time.Now().UTC()
	checker.SetAlive(90, started)
	testutil.WriteLockDir(t, cfg.LockRoot, projB, 90, started)
	testutil.WriteLockDir(t, cfg.LockRoot, projA, 91, started)

	snap := e.Snapshot()

	assert.Equal(t, cfg.StateFile, snap.StateFile)
	assert.Equal(t, 3, snap.Version)

	require.Len(t, snap.Sessions, 2)
	assert.Equal(t, "new", snap.Sessions[0].SessionID)
	assert.Equal(t, "old", snap.Sessions[1].SessionID)
	require.NotNil(t, snap.Sessions[0].Resolved)
	assert.True(t, snap.Sessions[0].Resolved.FromLock)

	require.Len(t, snap.Locks, 2)
	var live int
	for _, lock := range snap.Locks {
		if lock.Live {
			live++
			assert.Equal(t, 90, lock.PID)
		}
	}
	assert.Equal(t, 1, live)
}
