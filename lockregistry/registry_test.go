package lockregistry_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentview/core/lockregistry"
	"github.com/agentview/core/pathrel"
	"github.com/agentview/core/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalize(t *testing.T, path string) string {
	t.Helper()
	norm, err := pathrel.Normalize(path)
	require.NoError(t, err)
	return norm
}

func TestLockDirNameStable(t *testing.T) {
	a := lockregistry.LockDirName("/home/u/proj")
	b := lockregistry.LockDirName("/home/u/proj")
	c := lockregistry.LockDirName("/home/u/other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, os.MkdirAll(proj, 0755))

	started := time.Now().UTC().Truncate(time.Second)
	testutil.WriteLockDir(t, root, proj, 4242, started)

	reg := lockregistry.New(root, testutil.NewFakeChecker())
	entries := reg.Scan()
	require.Len(t, entries, 1)

	assert.Equal(t, 4242, entries[0].PID)
	assert.Equal(t, proj, entries[0].Path)
	assert.Equal(t, normalize(t, proj), entries[0].NormPath)
	assert.True(t, started.Equal(entries[0].ProcStarted))
}

func TestScanMissingRoot(t *testing.T) {
	reg := lockregistry.New(filepath.Join(t.TempDir(), "absent"), testutil.NewFakeChecker())
	assert.Empty(t, reg.Scan())
}

func TestScanSkipsIncompleteEntries(t *testing.T) {
	root := t.TempDir()
	proj := t.TempDir()
	testutil.WriteLockDir(t, root, proj, 100, time.Now())

	// Lock directory created but meta.json not written yet.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "0123456789abcdef"), 0755))

	// Malformed metadata.
	badDir := filepath.Join(root, "fedcba9876543210")
	require.NoError(t, os.MkdirAll(badDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, "meta.json"), []byte("{not json"), 0644))

	reg := lockregistry.New(root, testutil.NewFakeChecker())
	entries := reg.Scan()
	require.Len(t, entries, 1)
	assert.Equal(t, 100, entries[0].PID)
}

func TestIsLive(t *testing.T) {
	started := time.Now().UTC()
	entry := lockregistry.Entry{
		Metadata: lockregistry.Metadata{PID: 77, Path: "/p", ProcStarted: started},
	}

	t.Run("alive with matching start time", func(t *testing.T) {
		checker := testutil.NewFakeChecker()
		checker.SetAlive(77, started.Add(2*time.Second))
		assert.True(t, lockregistry.New(t.TempDir(), checker).IsLive(entry))
	})

	t.Run("dead process", func(t *testing.T) {
		checker := testutil.NewFakeChecker()
		assert.False(t, lockregistry.New(t.TempDir(), checker).IsLive(entry))
	})

	t.Run("indeterminate probe is not live", func(t *testing.T) {
		checker := testutil.NewFakeChecker()
		checker.Results[77] = lockregistry.Unknown
		assert.False(t, lockregistry.New(t.TempDir(), checker).IsLive(entry))
	})

	t.Run("pid reuse rejected", func(t *testing.T) {
		checker := testutil.NewFakeChecker()
		checker.SetAlive(77, started.Add(45*time.Minute))
		assert.False(t, lockregistry.New(t.TempDir(), checker).IsLive(entry))
	})

	t.Run("start time unavailable trusts the probe", func(t *testing.T) {
		checker := testutil.NewFakeChecker()
		checker.Results[77] = lockregistry.Alive
		assert.True(t, lockregistry.New(t.TempDir(), checker).IsLive(entry))
	})
}

func TestFindMatching(t *testing.T) {
	root := t.TempDir()
	base := t.TempDir()
	proj := filepath.Join(base, "proj")
	sub := filepath.Join(proj, "vendor", "lib")
	require.NoError(t, os.MkdirAll(sub, 0755))

	started := time.Now().UTC()
	checker := testutil.NewFakeChecker()
	checker.SetAlive(10, started)
	testutil.WriteLockDir(t, root, proj, 10, started)

	reg := lockregistry.New(root, checker)

	t.Run("exact", func(t *testing.T) {
		got := reg.FindMatching(normalize(t, proj))
		require.NotNil(t, got)
		assert.Equal(t, 10, got.PID)
	})

	t.Run("query below the lock", func(t *testing.T) {
		got := reg.FindMatching(normalize(t, sub))
		require.NotNil(t, got)
		assert.Equal(t, 10, got.PID)
	})

	t.Run("locks never claim ancestors", func(t *testing.T) {
		assert.Nil(t, reg.FindMatching(normalize(t, base)))
	})

	t.Run("dead lock does not match", func(t *testing.T) {
		deadRoot := t.TempDir()
		testutil.WriteLockDir(t, deadRoot, proj, 11, started)
		assert.Nil(t, lockregistry.New(deadRoot, checker).FindMatching(normalize(t, proj)))
	})
}

func TestFindMatchingDeepestWins(t *testing.T) {
	root := t.TempDir()
	base := t.TempDir()
	outer := filepath.Join(base, "mono")
	inner := filepath.Join(outer, "services", "api")
	require.NoError(t, os.MkdirAll(inner, 0755))

	started := time.Now().UTC()
	checker := testutil.NewFakeChecker()
	checker.SetAlive(21, started)
	checker.SetAlive(22, started)
	testutil.WriteLockDir(t, root, outer, 21, started)
	testutil.WriteLockDir(t, root, inner, 22, started)

	reg := lockregistry.New(root, checker)

	got := reg.FindMatching(normalize(t, inner))
	require.NotNil(t, got)
	assert.Equal(t, 22, got.PID)

	// A query at the outer project only sees the outer lock.
	got = reg.FindMatching(normalize(t, outer))
	require.NotNil(t, got)
	assert.Equal(t, 21, got.PID)
}
