package studio

import (
	"context"
	"sync"
	"time"
)

// Variant selects how a notification is rendered.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// ToastDuration is how long notifications stay visible.
const ToastDuration = 3 * time.Second

// Notification is a transient user-facing message.
type Notification struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Variant     Variant       `json:"variant"`
	Duration    time.Duration `json:"duration"`
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

func infoToast(title string) Notification {
	return Notification{Title: title, Variant: VariantDefault, Duration: ToastDuration}
}

func errorToast(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDestructive, Duration: ToastDuration}
}

// Recorder collects notifications and the last navigation so callers that
// cannot show them directly (HTTP responses, tests) can drain them.
type Recorder struct {
	mu    sync.Mutex
	notes []Notification
	path  string
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *Recorder) Navigate(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = path
}

// Drain returns and clears everything recorded so far.
func (r *Recorder) Drain() ([]Notification, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notes, path := r.notes, r.path
	r.notes, r.path = nil, ""
	return notes, path
}

// Notifications returns a copy of recorded notifications without draining.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

// Path returns the last navigation target.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}
