// Package lockregistry scans the directory of per-project lock entries
// maintained by the external lock holder and decides which of them belong
// to processes that are still running. Like the state store it is strictly
// read-only: locks are created and released by the writer side, never here.
package lockregistry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/agentview/core/logging"
	"github.com/agentview/core/pathrel"
	"github.com/sirupsen/logrus"
)

// startTimeTolerance absorbs rounding between the writer's wall-clock
// capture of the process start and our tick-derived reconstruction.
const startTimeTolerance = 5 * time.Second

// Metadata is the on-disk meta.json inside a lock directory.
type Metadata struct {
	PID         int       `json:"pid"`
	Path        string    `json:"path"`
	Created     time.Time `json:"created"`
	ProcStarted time.Time `json:"proc_started"`
}

// Entry is one scanned lock: its metadata plus where it was found and the
// normalized form of the path it claims.
type Entry struct {
	Metadata

	// Dir is the lock directory on disk.
	Dir string `json:"-"`

	// NormPath is the normalized claim path, used for all matching.
	NormPath string `json:"-"`
}

// LockDirName returns the stable directory name the lock holder uses for a
// normalized project path. Hash collisions are a documented theoretical
// risk and are not mitigated.
func LockDirName(normPath string) string {
	sum := sha256.Sum256([]byte(normPath))
	return hex.EncodeToString(sum[:])[:16]
}

// Registry reads lock entries under a root directory and verifies their
// liveness through a pluggable checker.
type Registry struct {
	root    string
	checker Checker
	log     *logrus.Entry
}

// New creates a registry over root. A nil checker defaults to the real OS
// probe.
func New(root string, checker Checker) *Registry {
	if checker == nil {
		checker = NewOSChecker()
	}
	return &Registry{
		root:    root,
		checker: checker,
		log:     logging.NewLogger("lockregistry"),
	}
}

// Root returns the lock root directory.
func (r *Registry) Root() string {
	return r.root
}

// Scan enumerates every lock entry under the root. Entries whose meta.json
// is missing or unreadable are skipped (the holder writes the directory
// before the metadata, so a gap is an expected race, not corruption). A
// missing root means no locks at all.
func (r *Registry) Scan() []Entry {
	dirents, err := os.ReadDir(r.root)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.WithError(err).Debug("lock root unreadable")
		}
		return nil
	}

	var entries []Entry
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		dir := filepath.Join(r.root, d.Name())
		entry, ok := r.readEntry(dir)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (r *Registry) readEntry(dir string) (Entry, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return Entry{}, false
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		r.log.WithField("dir", dir).WithError(err).Debug("skipping lock with malformed meta.json")
		return Entry{}, false
	}
	if meta.PID <= 0 || meta.Path == "" {
		r.log.WithField("dir", dir).Debug("skipping lock with incomplete meta.json")
		return Entry{}, false
	}

	norm, err := pathrel.Normalize(meta.Path)
	if err != nil {
		return Entry{}, false
	}

	return Entry{Metadata: meta, Dir: dir, NormPath: norm}, true
}

// IsLive reports whether the entry's process is confirmed running. An
// indeterminate probe is not live, and a start-time mismatch beyond the
// tolerance means the PID was reused by an unrelated process.
func (r *Registry) IsLive(entry Entry) bool {
	if r.checker.Probe(entry.PID) != Alive {
		return false
	}

	if entry.ProcStarted.IsZero() {
		return true
	}
	actual, ok := r.checker.StartTime(entry.PID)
	if !ok {
		return true
	}

	drift := actual.Sub(entry.ProcStarted)
	if drift < 0 {
		drift = -drift
	}
	if drift > startTimeTolerance {
		r.log.WithFields(logrus.Fields{
			"pid":      entry.PID,
			"path":     entry.Path,
			"recorded": entry.ProcStarted,
			"actual":   actual,
		}).Debug("lock pid reused by another process")
		return false
	}
	return true
}

// FindMatching returns the live lock claiming the (already normalized)
// query path, or nil. A lock claims its own path and everything beneath it,
// never an ancestor. When nested projects each hold a live lock, the
// deepest claim wins.
func (r *Registry) FindMatching(normQuery string) *Entry {
	var best *Entry
	for _, entry := range r.Scan() {
		switch pathrel.Relate(entry.NormPath, normQuery) {
		case pathrel.Exact, pathrel.Child:
		default:
			continue
		}
		if !r.IsLive(entry) {
			continue
		}
		e := entry
		if best == nil || pathrel.Depth(e.NormPath) > pathrel.Depth(best.NormPath) {
			best = &e
		}
	}
	return best
}
