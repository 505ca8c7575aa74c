package lockregistry

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// Liveness is the outcome of a process probe.
type Liveness int

const (
	// Dead means the probed PID does not exist.
	Dead Liveness = iota
	// Alive means the probed PID exists and is signalable.
	Alive
	// Unknown means the probe could not determine existence, typically a
	// permission error against another user's process. Unknown is never
	// promoted to Alive: an indeterminate lock defers to the record
	// freshness fallback instead of claiming a session.
	Unknown
)

func (l Liveness) String() string {
	switch l {
	case Dead:
		return "dead"
	case Alive:
		return "alive"
	}
	return "unknown"
}

// Checker probes whether a process exists. It is pluggable so the resolver's
// branching can be exercised in tests without spawning real processes.
type Checker interface {
	// Probe performs a zero-signal existence check. It must be
	// side-effect-free: never terminate or signal the target beyond the
	// harmless probe.
	Probe(pid int) Liveness

	// StartTime reports when the process started, for PID-reuse detection.
	// The bool is false when the platform or permissions cannot provide it.
	StartTime(pid int) (time.Time, bool)
}

// OSChecker probes real processes through the OS.
type OSChecker struct{}

func NewOSChecker() *OSChecker {
	return &OSChecker{}
}

// Probe sends signal 0 to the PID. No signal is delivered; the error tells
// us whether the process exists.
func (OSChecker) Probe(pid int) Liveness {
	if pid <= 0 {
		return Dead
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		// Does not happen on Unix; FindProcess always succeeds there.
		return Unknown
	}

	err = proc.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return Alive
	case errors.Is(err, syscall.ESRCH), errors.Is(err, os.ErrProcessDone):
		return Dead
	default:
		// EPERM and anything else: the process may exist, but we cannot
		// confirm it.
		return Unknown
	}
}

// StartTime reads the process start time where the platform exposes it.
func (OSChecker) StartTime(pid int) (time.Time, bool) {
	return procStartTime(pid)
}
