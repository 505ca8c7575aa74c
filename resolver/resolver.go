// Package resolver fuses the two externally-written signals, lock entries
// and session records, into a single answer for "what is the agent doing at
// this path". It is deliberately conservative: a brief false negative while
// a session starts up is acceptable, a stale Working after a crash is not.
package resolver

import (
	"time"

	"github.com/agentview/core/config"
	"github.com/agentview/core/lockregistry"
	"github.com/agentview/core/logging"
	"github.com/agentview/core/pathrel"
	"github.com/agentview/core/session"
	"github.com/agentview/core/statestore"
	"github.com/sirupsen/logrus"
)

// Resolver answers state queries for filesystem paths. It holds no internal
// goroutines and performs no blocking waits; every call is a fresh, bounded
// read of local files, so the host's poll loop naturally retries.
type Resolver struct {
	store *statestore.Store
	locks *lockregistry.Registry
	ttl   time.Duration
	now   func() time.Time
	log   *logrus.Entry
}

// New builds a resolver over the given store and lock registry. A
// non-positive ttl falls back to the default freshness window.
func New(store *statestore.Store, locks *lockregistry.Registry, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = config.DefaultFreshnessTTL
	}
	return &Resolver{
		store: store,
		locks: locks,
		ttl:   ttl,
		now:   time.Now,
		log:   logging.NewLogger("resolver"),
	}
}

// WithClock substitutes the time source, for deterministic freshness tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// TTL returns the freshness window in effect.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// Resolve returns the best-known session state for path, or nil when no
// active session can be attributed to it. It never returns an error: every
// failure mode (unresolvable path, missing files, corrupt data, permission
// walls) degrades to nil.
//
// Priority order:
//
//  1. A live lock claiming the path. The matching record's state is
//     reported; when the record hasn't landed yet (lock creation races
//     ahead of the first state write) the lock alone is evidence of a
//     just-starting session and Working is reported.
//  2. With no live lock, the freshest record at or below the path, provided
//     it is within the freshness window and not Idle. Ancestor records are
//     never eligible here: without a corroborating lock, a record at a
//     parent directory could belong to any project under it.
//  3. Nothing. Once both signals are gone or stale, "no active session" is
//     the only correct answer.
func (r *Resolver) Resolve(path string) *session.ResolvedState {
	norm, err := pathrel.Normalize(path)
	if err != nil {
		r.log.WithField("path", path).WithError(err).Debug("query path not normalizable")
		return nil
	}

	r.store.Reload()

	if lock := r.locks.FindMatching(norm); lock != nil {
		return r.fromLock(lock)
	}
	return r.fromRecords(norm)
}

// fromLock resolves through a live lock. Record lookup is anchored on the
// lock's claimed path rather than the raw query, so a query deep inside a
// locked project still finds the project-level record.
func (r *Resolver) fromLock(lock *lockregistry.Entry) *session.ResolvedState {
	if rec := r.store.BestMatch(lock.NormPath); rec != nil {
		return &session.ResolvedState{
			State:     rec.State,
			FromLock:  true,
			SessionID: rec.SessionID,
		}
	}

	r.log.WithFields(logrus.Fields{
		"path": lock.Path,
		"pid":  lock.PID,
	}).Debug("live lock with no record yet, assuming session is starting")
	return &session.ResolvedState{State: session.StateWorking, FromLock: true}
}

// fromRecords is the lock-less freshness fallback.
func (r *Resolver) fromRecords(norm string) *session.ResolvedState {
	rec := statestore.Freshest(r.store.RecordsMatching(norm))
	if rec == nil {
		return nil
	}
	if !rec.State.Active() {
		return nil
	}
	if rec.Age(r.now()) > r.ttl {
		// Crash-recovery path: the agent died without its lock holder
		// cleaning up, or the holder itself crashed. The record will sit
		// here claiming Working forever; never report it past the window.
		return nil
	}
	return &session.ResolvedState{
		State:     rec.State,
		FromLock:  false,
		SessionID: rec.SessionID,
	}
}
