package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	defer f.Close()
	for _, line := range lines {
		_, err := fmt.Fprintln(f, line)
		require.NoError(t, err)
	}
}

func TestReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	writeLines(t, path,
		`{"ts":"2026-08-23T10:00:00Z","session_id":"s1","action":"update","event":"UserPromptSubmit","state":"working","cwd":"/p"}`,
		`{"ts":"2026-08-23T10:00:05Z","session_id":"s1","action":"update","event":"PreToolUse","tool_name":"Bash","tool_use_id":"t1"}`,
		`{"ts":"2026-08-23T10:00:09Z","session_id":"s1","action":"skip","skip_reason":"subagent","subagent_delta":1}`,
	)

	events, skipped, err := NewReader(path).ReadAll()
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, events, 3)

	assert.Equal(t, "s1", events[0].SessionID)
	assert.Equal(t, "UserPromptSubmit", events[0].Event)
	assert.Equal(t, "working", events[0].State)
	assert.Equal(t, time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC), events[0].TS)

	assert.Equal(t, "Bash", events[1].ToolName)
	assert.Equal(t, "t1", events[1].ToolUseID)

	assert.Equal(t, "subagent", events[2].SkipReason)
	assert.Equal(t, 1, events[2].SubagentDelta)
}

func TestReadAllSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	writeLines(t, path,
		`{"ts":"2026-08-23T10:00:00Z","session_id":"s1","action":"update"}`,
		`{"ts":"2026-08-23T10:00:01Z","session_id":`,
		``,
		`{"ts":"2026-08-23T10:00:02Z","session_id":"s2","action":"remove"}`,
	)

	events, skipped, err := NewReader(path).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, events, 2)
	assert.Equal(t, "s2", events[1].SessionID)
}

func TestReadAllMissingFile(t *testing.T) {
	events, skipped, err := NewReader(filepath.Join(t.TempDir(), "absent.jsonl")).ReadAll()
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, events)
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	for i := 0; i < 5; i++ {
		writeLines(t, path, fmt.Sprintf(`{"session_id":"s%d","action":"update"}`, i))
	}

	events, err := NewReader(path).Tail(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "s3", events[0].SessionID)
	assert.Equal(t, "s4", events[1].SessionID)
}

func TestFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	writeLines(t, path, `{"session_id":"before","action":"update"}`)

	reader := NewReader(path)
	events, stop, err := reader.Follow()
	require.NoError(t, err)
	defer stop()

	// Give the tail a moment to seek to the end before appending.
	time.Sleep(100 * time.Millisecond)
	writeLines(t, path,
		`not json`,
		`{"session_id":"after","action":"update"}`,
	)

	select {
	case ev := <-events:
		assert.Equal(t, "after", ev.SessionID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for appended event")
	}
}
