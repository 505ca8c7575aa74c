// Package statestore reads the versioned JSON document of session records
// written by the external hook process. It is strictly a consumer: nothing
// here ever writes the document back.
package statestore

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/agentview/core/logging"
	"github.com/agentview/core/pathrel"
	"github.com/agentview/core/session"
	"github.com/sirupsen/logrus"
)

// CurrentVersion is the state document version this engine understands.
const CurrentVersion = 3

// Document is the on-disk shape of the state file.
type Document struct {
	Version  int                       `json:"version"`
	Sessions map[string]session.Record `json:"sessions"`
}

// entry pairs a record with the normalized forms of its paths so that
// matching never re-normalizes on every query.
type entry struct {
	rec      session.Record
	cwdNorm  string
	projNorm string
}

// Store owns the state file path and an in-memory snapshot of its records.
// Construct one and inject it into the resolver; call Reload to pick up
// writer changes. All failure modes degrade to an empty snapshot: a
// missing file, a torn write mid-rename, and first-run are expected, not
// exceptional.
type Store struct {
	path string
	log  *logrus.Entry

	mu      sync.RWMutex
	version int
	entries []entry
}

// New creates a store for the given state file. The file does not need to
// exist yet.
func New(path string) *Store {
	return &Store{
		path: path,
		log:  logging.NewLogger("statestore"),
	}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the state file into the in-memory snapshot. It never
// returns an error: absence and malformed JSON both yield an empty
// snapshot, and a record that fails to decode or validate is skipped
// without invalidating its siblings.
func (s *Store) Reload() {
	doc, ok := readDocument(s.path, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.version = 0
		s.entries = nil
		return
	}

	s.version = doc.Version
	s.entries = s.entries[:0]
	for id, rec := range doc.Sessions {
		if rec.SessionID == "" {
			rec.SessionID = id
		}
		s.entries = append(s.entries, newEntry(rec))
	}
}

func newEntry(rec session.Record) entry {
	e := entry{rec: rec}
	if norm, err := pathrel.Normalize(rec.Cwd); err == nil {
		e.cwdNorm = norm
	}
	if rec.ProjectDir != "" {
		if norm, err := pathrel.Normalize(rec.ProjectDir); err == nil {
			e.projNorm = norm
		}
	}
	return e
}

// readDocument parses the state file leniently. The bool result is false
// when there is no usable document at all.
func readDocument(path string, log *logrus.Entry) (Document, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Debug("state file unreadable, treating as empty")
		}
		return Document{}, false
	}

	// Decode the envelope with raw session payloads so one corrupt record
	// cannot take down the rest of the document.
	var raw struct {
		Version  int                        `json:"version"`
		Sessions map[string]json.RawMessage `json:"sessions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// Writer mid-rename or a torn write: no data this tick.
		log.WithError(err).Debug("state file malformed, treating as empty")
		return Document{}, false
	}

	if raw.Version > CurrentVersion {
		log.WithField("version", raw.Version).Warn("state file written by a newer version; reading best-effort")
	}

	doc := Document{Version: raw.Version, Sessions: make(map[string]session.Record, len(raw.Sessions))}
	for id, payload := range raw.Sessions {
		var rec session.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			log.WithField("session_id", id).WithError(err).Debug("skipping malformed session record")
			continue
		}
		if !validRecord(&rec, id) {
			log.WithField("session_id", id).Debug("skipping incomplete session record")
			continue
		}
		// state_changed_at <= updated_at must hold; clamp writer slop.
		if rec.StateChangedAt.After(rec.UpdatedAt) {
			rec.StateChangedAt = rec.UpdatedAt
		}
		doc.Sessions[id] = rec
	}
	return doc, true
}

func validRecord(rec *session.Record, id string) bool {
	if rec.SessionID == "" {
		rec.SessionID = id
	}
	return rec.State.Valid() && rec.Cwd != "" && !rec.UpdatedAt.IsZero()
}

// Version returns the version field of the last loaded document, 0 when no
// document was readable.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Records returns a copy of every valid record in the snapshot.
func (s *Store) Records() []session.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]session.Record, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.rec)
	}
	return out
}

// RecordsMatching returns the records whose cwd or project_dir lies at or
// below the (already normalized) query path. Ancestor records never match:
// a session recorded at a parent directory could belong to any number of
// unrelated projects under it.
func (s *Store) RecordsMatching(normQuery string) []session.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []session.Record
	for _, e := range s.entries {
		if matches(normQuery, e.cwdNorm) || matches(normQuery, e.projNorm) {
			out = append(out, e.rec)
		}
	}
	return out
}

// BestMatch returns the single record that best describes the (already
// normalized) query path: an exact cwd or project_dir match beats a
// descendant, among descendants the closest one wins, and ties fall to the
// most recently updated record. Returns nil when nothing matches.
func (s *Store) BestMatch(normQuery string) *session.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best      *session.Record
		bestRel   pathrel.Relation
		bestDepth int
	)
	for i := range s.entries {
		e := &s.entries[i]
		rel, depth := e.classify(normQuery)
		if rel != pathrel.Exact && rel != pathrel.Child {
			continue
		}
		switch {
		case best == nil,
			pathrel.Closer(rel, bestRel),
			rel == bestRel && depth < bestDepth,
			rel == bestRel && depth == bestDepth && e.rec.UpdatedAt.After(best.UpdatedAt):
			rec := e.rec
			best, bestRel, bestDepth = &rec, rel, depth
		}
	}
	return best
}

// classify returns the strongest relation of the entry's paths to base, and
// the depth of the path that produced it.
func (e *entry) classify(base string) (pathrel.Relation, int) {
	rel, depth := pathrel.None, 0
	for _, p := range []string{e.cwdNorm, e.projNorm} {
		if p == "" {
			continue
		}
		if r := pathrel.Relate(base, p); pathrel.Closer(r, rel) {
			rel, depth = r, pathrel.Depth(p)
		}
	}
	return rel, depth
}

func matches(base, candidate string) bool {
	if candidate == "" {
		return false
	}
	switch pathrel.Relate(base, candidate) {
	case pathrel.Exact, pathrel.Child:
		return true
	}
	return false
}

// Freshest selects the record with the most recent updated_at. Returns nil
// for an empty slice.
func Freshest(records []session.Record) *session.Record {
	var best *session.Record
	for i := range records {
		if best == nil || records[i].UpdatedAt.After(best.UpdatedAt) {
			best = &records[i]
		}
	}
	return best
}
