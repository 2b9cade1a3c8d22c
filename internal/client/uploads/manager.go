// Package uploads coordinates file uploads with backend resource records:
// the Manager tracks every upload of the session, the Uploader drives one
// upload end to end, and the Reconciler folds completed uploads back into the
// resource stores.
package uploads

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/filex"
	"github.com/google/uuid"
)

// Status is the client-side lifecycle of one upload.
type Status string

const (
	StatusInit      Status = "INIT"
	StatusUploading Status = "UPLOADING"
	StatusSuccess   Status = "SUCCESS"
	StatusError     Status = "ERROR"
)

// Terminal reports whether no further transition is accepted.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

var transitions = map[Status][]Status{
	StatusInit:      {StatusUploading, StatusError},
	StatusUploading: {StatusSuccess, StatusError},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Entry is the tracking record of one upload, keyed by object id.
type Entry struct {
	Ref       models.ObjectRef
	File      *filex.LocalFile
	Progress  int
	Status    Status
	Attempt   string
	Err       error
	UpdatedAt time.Time
}

// Event describes a change to an entry. Entry is a copy; Removed is set when
// the entry was dropped from the manager.
type Event struct {
	Entry    Entry
	Previous Status
	Removed  bool
}

// Manager holds every upload of the session. Entries are only dropped by
// Remove, so a finished upload keeps showing its final state.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	subs    map[int]func(Event)
	nextSub int
	now     func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		entries: make(map[string]*Entry),
		subs:    make(map[int]func(Event)),
		now:     time.Now,
	}
}

// Add starts tracking a new attempt for ref.ID in INIT with progress 0 and
// returns the attempt token. An existing entry for the same id is replaced;
// updates still carrying the replaced attempt's token are rejected.
func (m *Manager) Add(ref models.ObjectRef, file *filex.LocalFile) string {
	e := &Entry{
		Ref:       ref,
		File:      file,
		Status:    StatusInit,
		Attempt:   uuid.NewString(),
		UpdatedAt: m.now(),
	}

	m.mu.Lock()
	var prev Status
	if old, ok := m.entries[ref.ID]; ok {
		prev = old.Status
	}
	m.entries[ref.ID] = e
	ev := Event{Entry: *e, Previous: prev}
	m.mu.Unlock()

	m.notify(ev)
	return e.Attempt
}

// SetProgress records progress for the attempt, clamped to [0, 100]. It is
// only accepted while the entry is UPLOADING.
func (m *Manager) SetProgress(objectID, attempt string, progress int) error {
	progress = min(max(progress, 0), 100)

	m.mu.Lock()
	e, err := m.lookup(objectID, attempt)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if e.Status != StatusUploading {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrInvalidState, objectID, e.Status)
	}
	if e.Progress == progress {
		m.mu.Unlock()
		return nil
	}
	e.Progress = progress
	e.UpdatedAt = m.now()
	ev := Event{Entry: *e, Previous: e.Status}
	m.mu.Unlock()

	m.notify(ev)
	return nil
}

// SetStatus moves the attempt to status. cause is recorded on the entry when
// status is ERROR.
func (m *Manager) SetStatus(objectID, attempt string, status Status, cause error) error {
	m.mu.Lock()
	e, err := m.lookup(objectID, attempt)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !canTransition(e.Status, status) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, status)
	}
	prev := e.Status
	e.Status = status
	if status == StatusError {
		e.Err = cause
	}
	e.UpdatedAt = m.now()
	ev := Event{Entry: *e, Previous: prev}
	m.mu.Unlock()

	m.notify(ev)
	return nil
}

// Get returns a copy of the entry for objectID.
func (m *Manager) Get(objectID string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[objectID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// List returns copies of all entries ordered by object id.
func (m *Manager) List() []Entry {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Ref.ID < out[j].Ref.ID })
	return out
}

// Remove stops tracking objectID. Removing an unknown id is a no-op.
func (m *Manager) Remove(objectID string) {
	m.mu.Lock()
	e, ok := m.entries[objectID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.entries, objectID)
	ev := Event{Entry: *e, Previous: e.Status, Removed: true}
	m.mu.Unlock()

	m.notify(ev)
}

// Subscribe registers fn for every change. fn runs on the writer's goroutine
// after the manager lock is released.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// lookup must be called with m.mu held.
func (m *Manager) lookup(objectID, attempt string) (*Entry, error) {
	e, ok := m.entries[objectID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, objectID)
	}
	if e.Attempt != attempt {
		return nil, fmt.Errorf("%w: %s", ErrStaleAttempt, objectID)
	}
	return e, nil
}

func (m *Manager) notify(ev Event) {
	m.mu.RLock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
