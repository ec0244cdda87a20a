package studio

import (
	"errors"
	"sync"
	"time"

	"github.com/apresai/podcastr/internal/store"
)

// ErrDraftNotFound is returned for unknown drafts and drafts owned by
// someone else.
var ErrDraftNotFound = errors.New("draft not found")

type entry struct {
	form    *Form
	rec     *Recorder
	ownerID string
	touched time.Time
}

// Registry holds server-side drafts keyed by ULID. Each draft records its
// notifications and navigation so they can be returned to the client.
type Registry struct {
	mu     sync.Mutex
	deps   Deps
	drafts map[string]*entry
	now    func() time.Time
}

// NewRegistry creates a registry whose drafts share deps. The Notifier and
// Navigator in deps are replaced per draft.
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, drafts: make(map[string]*entry), now: time.Now}
}

// Create starts a new draft for author.
func (r *Registry) Create(author store.Identity) (string, *Form, error) {
	id, err := store.NewPodcastID()
	if err != nil {
		return "", nil, err
	}
	rec := &Recorder{}
	deps := r.deps
	deps.Notifier = rec
	deps.Navigator = rec

	f := New(deps, author)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[id] = &entry{form: f, rec: rec, ownerID: author.UserID, touched: r.now()}
	return id, f, nil
}

// Get returns the draft and its recorder if userID owns it.
func (r *Registry) Get(id, userID string) (*Form, *Recorder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.drafts[id]
	if !ok || e.ownerID != userID {
		return nil, nil, ErrDraftNotFound
	}
	e.touched = r.now()
	return e.form, e.rec, nil
}

// Delete discards a draft.
func (r *Registry) Delete(id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.drafts[id]
	if !ok || e.ownerID != userID {
		return ErrDraftNotFound
	}
	delete(r.drafts, id)
	return nil
}

// Sweep removes drafts untouched for longer than maxAge and returns how
// many were removed.
func (r *Registry) Sweep(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxAge)
	n := 0
	for id, e := range r.drafts {
		if e.touched.Before(cutoff) {
			delete(r.drafts, id)
			n++
		}
	}
	return n
}

// Len returns the number of live drafts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}
