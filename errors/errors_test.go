package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeStateInvalid, "truncated document")
	assert.Equal(t, "STATE_INVALID: truncated document", err.Error())

	wrapped := Wrap(fmt.Errorf("unexpected EOF"), ErrCodeStateInvalid, "truncated document")
	assert.Contains(t, wrapped.Error(), "unexpected EOF")
	assert.Equal(t, "unexpected EOF", wrapped.Unwrap().Error())
}

func TestIsAndGetCode(t *testing.T) {
	err := ConfigNotFound("/etc/agentview.yml")
	assert.True(t, Is(err, ErrCodeConfigNotFound))
	assert.False(t, Is(err, ErrCodeConfigInvalid))
	assert.Equal(t, ErrCodeConfigNotFound, GetCode(err))

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, Is(wrapped, ErrCodeConfigNotFound))
	assert.Equal(t, ErrCodeConfigNotFound, GetCode(wrapped))

	assert.False(t, Is(nil, ErrCodeConfigNotFound))
	assert.Equal(t, ErrorCode(""), GetCode(fmt.Errorf("plain")))
}

func TestWithDetail(t *testing.T) {
	err := SchemaInvalid("/tmp/state.json", fmt.Errorf("missing sessions")).
		WithDetail("version", 3)
	assert.Equal(t, "/tmp/state.json", err.Details["path"])
	assert.Equal(t, 3, err.Details["version"])
	assert.Contains(t, err.ToJSON(), "SCHEMA_INVALID")
}
