package session

import "time"

// State is the phase of work a tracked agent session is in, as recorded by
// the external hook writer.
type State string

const (
	StateWorking    State = "working"
	StateReady      State = "ready"
	StateWaiting    State = "waiting"
	StateCompacting State = "compacting"
	StateIdle       State = "idle"
)

// Valid reports whether s is one of the known session states.
func (s State) Valid() bool {
	switch s {
	case StateWorking, StateReady, StateWaiting, StateCompacting, StateIdle:
		return true
	}
	return false
}

// Active reports whether the state describes a session that is doing or
// about to do something. Idle sessions are tracked but not considered
// active.
func (s State) Active() bool {
	return s.Valid() && s != StateIdle
}

// EventInfo records the last hook event applied to a session record, for
// diagnostics only.
type EventInfo struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is one session entry in the state document. Records are created,
// mutated, and deleted exclusively by the external hook writer; this engine
// only reads them.
type Record struct {
	SessionID string `json:"session_id"`
	State     State  `json:"state" jsonschema:"enum=working,enum=ready,enum=waiting,enum=compacting,enum=idle"`

	// Cwd is the agent's working directory at the last event. ProjectDir is
	// a stabler root captured at session start and may differ from Cwd once
	// the agent changes directories.
	Cwd        string `json:"cwd"`
	ProjectDir string `json:"project_dir,omitempty"`

	// UpdatedAt is bumped on every write, including heartbeats.
	// StateChangedAt is bumped only when State actually changes, so
	// StateChangedAt <= UpdatedAt always holds.
	UpdatedAt      time.Time `json:"updated_at"`
	StateChangedAt time.Time `json:"state_changed_at"`

	WorkingOn string     `json:"working_on,omitempty"`
	LastEvent *EventInfo `json:"last_event,omitempty"`
}

// Age returns how long ago the record was last touched by the writer.
func (r *Record) Age(now time.Time) time.Duration {
	return now.Sub(r.UpdatedAt)
}

// ResolvedState is the resolver's answer for a query path. It is ephemeral
// output and is never persisted.
type ResolvedState struct {
	State State `json:"state"`

	// FromLock is true when the state is corroborated by a live lock, false
	// when it was derived from a fresh record alone.
	FromLock bool `json:"is_from_lock"`

	// SessionID is set when the state traces back to a known record. A
	// lock-only result (lock present, record not yet written) has no
	// session ID.
	SessionID string `json:"session_id,omitempty"`
}
