package lockregistry_test

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/agentview/core/lockregistry"
	"github.com/stretchr/testify/assert"
)

func TestOSCheckerProbe(t *testing.T) {
	checker := lockregistry.NewOSChecker()

	assert.Equal(t, lockregistry.Alive, checker.Probe(os.Getpid()))
	assert.Equal(t, lockregistry.Dead, checker.Probe(0))
	assert.Equal(t, lockregistry.Dead, checker.Probe(-5))

	// PID beyond any realistic pid_max.
	assert.Equal(t, lockregistry.Dead, checker.Probe(1<<22+12345))
}

func TestOSCheckerStartTime(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process start time only available on linux")
	}

	checker := lockregistry.NewOSChecker()
	started, ok := checker.StartTime(os.Getpid())
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), started, time.Hour)

	_, ok = checker.StartTime(1 << 22)
	assert.False(t, ok)
}
