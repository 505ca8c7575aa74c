package schema

import (
	"os"
	"path/filepath"
	"testing"

	agerrors "github.com/agentview/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
  "version": 3,
  "sessions": {
    "s1": {
      "session_id": "s1",
      "state": "working",
      "cwd": "/home/u/proj",
      "updated_at": "2026-08-23T10:00:00Z",
      "state_changed_at": "2026-08-23T09:59:00Z",
      "working_on": "wiring the parser",
      "last_event": { "event": "PostToolUse", "timestamp": "2026-08-23T10:00:00Z" }
    }
  }
}`

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate([]byte(validDoc)))
}

func TestValidateRejectsBadState(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	doc := `{
  "version": 3,
  "sessions": {
    "s1": {
      "session_id": "s1",
      "state": "levitating",
      "cwd": "/p",
      "updated_at": "2026-08-23T10:00:00Z",
      "state_changed_at": "2026-08-23T10:00:00Z"
    }
  }
}`
	err = v.Validate([]byte(doc))
	require.Error(t, err)
	assert.Equal(t, agerrors.ErrCodeSchemaInvalid, agerrors.GetCode(err))
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate([]byte(`{"version": 3}`))
	require.Error(t, err)
	assert.Equal(t, agerrors.ErrCodeSchemaInvalid, agerrors.GetCode(err))
}

func TestValidateRejectsNonJSON(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate([]byte("not json"))
	require.Error(t, err)
	assert.Equal(t, agerrors.ErrCodeStateInvalid, agerrors.GetCode(err))
}

func TestValidateFile(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0644))
	assert.NoError(t, v.ValidateFile(path))

	err = v.ValidateFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, agerrors.ErrCodeStateInvalid, agerrors.GetCode(err))
}
