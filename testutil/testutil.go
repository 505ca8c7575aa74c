// Package testutil provides fixture helpers for exercising the resolution
// engine against real files: it plays the role of the external hook writer,
// producing state documents and lock directories in the writer's format.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/agentview/core/lockregistry"
	"github.com/agentview/core/pathrel"
	"github.com/agentview/core/session"
	"github.com/agentview/core/statestore"
	"github.com/stretchr/testify/require"
)

// WriteStateFile marshals records into a version-3 state document at path,
// keyed by session ID.
func WriteStateFile(t *testing.T, path string, records ...session.Record) {
	t.Helper()

	doc := statestore.Document{
		Version:  statestore.CurrentVersion,
		Sessions: make(map[string]session.Record, len(records)),
	}
	for _, rec := range records {
		doc.Sessions[rec.SessionID] = rec
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// WriteLockDir creates a lock entry under lockRoot claiming projectPath,
// exactly as the lock holder would: a directory named by the path hash
// containing a raw pid file and meta.json. Returns the lock directory.
func WriteLockDir(t *testing.T, lockRoot, projectPath string, pid int, procStarted time.Time) string {
	t.Helper()

	norm, err := pathrel.Normalize(projectPath)
	require.NoError(t, err)

	dir := filepath.Join(lockRoot, lockregistry.LockDirName(norm))
	require.NoError(t, os.MkdirAll(dir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pid"), []byte(strconv.Itoa(pid)), 0644))

	meta := lockregistry.Metadata{
		PID:         pid,
		Path:        projectPath,
		Created:     time.Now().UTC(),
		ProcStarted: procStarted,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.json"), data, 0644))

	return dir
}

// FakeChecker is an in-memory liveness checker. Zero value: every probe
// reports Dead.
type FakeChecker struct {
	// Results maps PID to the probe outcome.
	Results map[int]lockregistry.Liveness

	// StartTimes maps PID to a reported process start time. PIDs absent
	// here report start time as unavailable.
	StartTimes map[int]time.Time
}

func NewFakeChecker() *FakeChecker {
	return &FakeChecker{
		Results:    make(map[int]lockregistry.Liveness),
		StartTimes: make(map[int]time.Time),
	}
}

// SetAlive marks pid as alive with the given start time.
func (f *FakeChecker) SetAlive(pid int, started time.Time) {
	f.Results[pid] = lockregistry.Alive
	f.StartTimes[pid] = started
}

func (f *FakeChecker) Probe(pid int) lockregistry.Liveness {
	return f.Results[pid]
}

func (f *FakeChecker) StartTime(pid int) (time.Time, bool) {
	started, ok := f.StartTimes[pid]
	return started, ok
}

// FixedClock returns a clock function pinned to t, for deterministic
// freshness-window tests.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
