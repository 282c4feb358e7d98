// Package container implements the Task Container (spec.md §4.3):
// per-invocation resolution of a sandbox identifier into a verified,
// single-use workspace context.
package container

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Entry is one registered sandbox (spec.md §3 "Sandbox").
type Entry struct {
	ID            string    `json:"-"`
	RootPath      string    `json:"rootPath"`
	RegisteredAtUTC time.Time `json:"registeredAtUtc"`
}

// Registry is a cached, case-insensitive view of sandboxes.json. It is
// written by an external "startup" tool and only ever read here
// (spec.md §3: "this system only reads the registry"). An fsnotify
// watcher invalidates the cache promptly on change instead of relying
// solely on read-time staleness (spec.md §5: "Readers tolerate snapshot
// inconsistency by re-reading on cache miss").
type Registry struct {
	path string

	mu      sync.RWMutex
	entries map[string]Entry // key: lowercased id

	watcher *fsnotify.Watcher
	closeCh chan struct{}
}

// ErrSandboxNotFound is returned when a sandbox id has no registry
// entry (spec.md §4.3 step 2 "Missing → sandbox-not-found").
var ErrSandboxNotFound = fmt.Errorf("sandbox not found")

// NewRegistry loads sandboxes.json from path and starts a best-effort
// fsnotify watch on it. A watcher failure is non-fatal: the registry
// still functions, just without proactive invalidation.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, closeCh: make(chan struct{})}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if w, err := fsnotify.NewWatcher(); err == nil {
		if err := w.Add(filepath.Dir(path)); err == nil {
			r.watcher = w
			go r.watchLoop()
		} else {
			w.Close()
		}
	}
	return r, nil
}

func (r *Registry) watchLoop() {
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == filepath.Clean(r.path) {
				_ = r.reload()
			}
		case _, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
		case <-r.closeCh:
			return
		}
	}
}

func (r *Registry) reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read sandbox registry: %w", err)
	}
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse sandbox registry: %w", err)
	}
	entries := make(map[string]Entry, len(raw))
	for id, e := range raw {
		e.ID = id
		entries[strings.ToLower(id)] = e
	}
	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()
	return nil
}

// Resolve looks up a sandbox by id (case-insensitive). On a cache miss
// it re-reads the file once before giving up, honoring spec.md §5's
// "re-reading on cache miss" tolerance.
func (r *Registry) Resolve(id string) (Entry, error) {
	key := strings.ToLower(id)

	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	if err := r.reload(); err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	e, ok = r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrSandboxNotFound, id)
	}
	return e, nil
}

// Entries returns every currently cached registry entry, sorted by id.
// Used by read-only tooling (`mk8 sandbox list`) that wants the whole
// registry rather than a single id resolution.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops the background watcher, if any.
func (r *Registry) Close() error {
	close(r.closeCh)
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
