// Package poller is the reference host loop around the engine. The engine
// itself is synchronous and thread-free; the poller owns the goroutine,
// re-resolving a set of watched paths on a fixed interval and waking early
// when the state file or lock root visibly changes.
package poller

import (
	"context"
	"path/filepath"
	"time"

	"github.com/agentview/core/config"
	"github.com/agentview/core/engine"
	"github.com/agentview/core/logging"
	"github.com/agentview/core/session"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Transition is one observed state change for a watched path. Previous is
// nil when a session appeared, Current is nil when it went away.
type Transition struct {
	Path     string
	Previous *session.ResolvedState
	Current  *session.ResolvedState
	At       time.Time
}

// Poller re-resolves a fixed set of paths and emits deduplicated
// transitions.
type Poller struct {
	eng      *engine.Engine
	cfg      *config.Config
	paths    []string
	interval time.Duration
	log      *logrus.Entry
}

// New creates a poller over the given paths, polling at the configured
// interval.
func New(eng *engine.Engine, cfg *config.Config, paths ...string) *Poller {
	return &Poller{
		eng:      eng,
		cfg:      cfg,
		paths:    paths,
		interval: cfg.PollInterval(),
		log:      logging.NewLogger("poller"),
	}
}

// Run starts polling until ctx is canceled. The returned channel carries
// transitions and is closed on shutdown. The first poll runs immediately,
// so a session already active at startup is reported as an appearance.
func (p *Poller) Run(ctx context.Context) <-chan Transition {
	out := make(chan Transition, 16)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.log.WithError(err).Warn("filesystem watcher unavailable, relying on the poll interval alone")
		watcher = nil
	} else {
		p.addWatches(watcher)
	}

	go p.loop(ctx, watcher, out)
	return out
}

// addWatches registers the directories whose contents encode session state.
// The files themselves come and go (atomic renames, lock churn), so parent
// directories are watched rather than the files.
func (p *Poller) addWatches(watcher *fsnotify.Watcher) {
	dirs := []string{
		filepath.Dir(p.cfg.StateFile),
		p.cfg.LockRoot,
		filepath.Dir(p.cfg.LockRoot),
	}
	seen := make(map[string]bool)
	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := watcher.Add(dir); err != nil {
			p.log.WithField("dir", dir).WithError(err).Debug("watch failed")
		}
	}
}

func (p *Poller) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- Transition) {
	defer close(out)
	if watcher != nil {
		defer watcher.Close()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	last := make(map[string]*session.ResolvedState, len(p.paths))
	p.poll(last, out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(last, out)
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			p.poll(last, out)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.log.WithError(err).Debug("watcher error")
		}
	}
}

func (p *Poller) poll(last map[string]*session.ResolvedState, out chan<- Transition) {
	now := time.Now()
	for _, path := range p.paths {
		current := p.eng.ResolveStateWithDetails(path)
		previous := last[path]
		if same(previous, current) {
			continue
		}
		select {
		case out <- Transition{Path: path, Previous: previous, Current: current, At: now}:
			last[path] = current
		default:
			// Receiver is behind; drop rather than stall the poll loop.
			// last is left untouched so the next poll retries the send.
			p.log.WithField("path", path).Debug("transition dropped, receiver not keeping up")
		}
	}
}

func same(a, b *session.ResolvedState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
