// Package engine is the query surface consumed by host applications: a thin
// façade over the resolver plus a diagnostic snapshot of everything the two
// signal sources currently contain.
package engine

import (
	"sort"
	"time"

	"github.com/agentview/core/config"
	"github.com/agentview/core/errors"
	"github.com/agentview/core/lockregistry"
	"github.com/agentview/core/logging"
	"github.com/agentview/core/resolver"
	"github.com/agentview/core/session"
	"github.com/agentview/core/statestore"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
)

// Engine answers session-state queries for a host application. It owns the
// store, registry, and resolver built from one config, and applies the
// configured ignore patterns before any resolution.
type Engine struct {
	cfg    *config.Config
	store  *statestore.Store
	locks  *lockregistry.Registry
	res    *resolver.Resolver
	ignore *patternmatcher.PatternMatcher
	log    *logrus.Entry
}

// New builds an engine from config using the real OS liveness probe.
func New(cfg *config.Config) (*Engine, error) {
	return NewWithChecker(cfg, nil)
}

// NewWithChecker builds an engine with an explicit liveness checker, so
// tests can drive the resolver without real processes.
func NewWithChecker(cfg *config.Config, checker lockregistry.Checker) (*Engine, error) {
	var ignore *patternmatcher.PatternMatcher
	if len(cfg.Ignore) > 0 {
		pm, err := patternmatcher.New(cfg.Ignore)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid ignore patterns")
		}
		ignore = pm
	}

	store := statestore.New(cfg.StateFile)
	locks := lockregistry.New(cfg.LockRoot, checker)
	return &Engine{
		cfg:    cfg,
		store:  store,
		locks:  locks,
		res:    resolver.New(store, locks, cfg.FreshnessTTL()),
		ignore: ignore,
		log:    logging.NewLogger("engine"),
	}, nil
}

// Resolver exposes the underlying resolver, mainly so hosts can swap its
// clock in tests.
func (e *Engine) Resolver() *resolver.Resolver {
	return e.res
}

// ResolveState returns the session state attributed to path. The bool is
// false when no active session is known there.
func (e *Engine) ResolveState(path string) (session.State, bool) {
	resolved := e.ResolveStateWithDetails(path)
	if resolved == nil {
		return "", false
	}
	return resolved.State, true
}

// ResolveStateWithDetails returns the full resolution for path, or nil when
// no active session is known there. Ignored paths always resolve to nil.
func (e *Engine) ResolveStateWithDetails(path string) *session.ResolvedState {
	if e.ignored(path) {
		return nil
	}
	return e.res.Resolve(path)
}

// IsSessionRunning reports whether any active session is attributed to path.
func (e *Engine) IsSessionRunning(path string) bool {
	return e.ResolveStateWithDetails(path) != nil
}

func (e *Engine) ignored(path string) bool {
	if e.ignore == nil {
		return false
	}
	matched, err := e.ignore.MatchesOrParentMatches(path)
	if err != nil {
		e.log.WithField("path", path).WithError(err).Debug("ignore match failed")
		return false
	}
	return matched
}

// SessionStatus is one record with its age and the resolution of its own
// working directory.
type SessionStatus struct {
	session.Record
	Age      time.Duration          `json:"age"`
	Resolved *session.ResolvedState `json:"resolved,omitempty"`
}

// LockStatus is one scanned lock entry with its verified liveness.
type LockStatus struct {
	lockregistry.Entry
	Live bool `json:"live"`
}

// Snapshot is a point-in-time diagnostic view of both signal sources.
type Snapshot struct {
	TakenAt   time.Time       `json:"taken_at"`
	StateFile string          `json:"state_file"`
	LockRoot  string          `json:"lock_root"`
	Version   int             `json:"state_version"`
	Sessions  []SessionStatus `json:"sessions"`
	Locks     []LockStatus    `json:"locks"`
}

// Snapshot reads both sources once and reports everything found, newest
// session first. Diagnostic only; hosts poll ResolveState instead.
func (e *Engine) Snapshot() Snapshot {
	now := time.Now()
	e.store.Reload()

	snap := Snapshot{
		TakenAt:   now,
		StateFile: e.cfg.StateFile,
		LockRoot:  e.cfg.LockRoot,
		Version:   e.store.Version(),
	}

	for _, rec := range e.store.Records() {
		snap.Sessions = append(snap.Sessions, SessionStatus{
			Record:   rec,
			Age:      rec.Age(now),
			Resolved: e.ResolveStateWithDetails(rec.Cwd),
		})
	}
	sort.Slice(snap.Sessions, func(i, j int) bool {
		return snap.Sessions[i].UpdatedAt.After(snap.Sessions[j].UpdatedAt)
	})

	for _, entry := range e.locks.Scan() {
		snap.Locks = append(snap.Locks, LockStatus{
			Entry: entry,
			Live:  e.locks.IsLive(entry),
		})
	}
	sort.Slice(snap.Locks, func(i, j int) bool {
		return snap.Locks[i].Path < snap.Locks[j].Path
	})

	return snap
}
