// Package tracker coordinates expensive generation jobs: at most one job per
// resource key is in flight, and concurrent callers observe its status
// instead of redoing the work.
package tracker

import (
	"sync"
	"time"
)

type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Status describes one generation job. ProgressPercentage never decreases
// while the job is in progress.
type Status struct {
	State              State     `json:"status"`
	ProgressPercentage float64   `json:"progress_percentage"`
	ItemsProduced      int       `json:"items_produced"`
	Errors             []string  `json:"errors"`
	StartedAt          time.Time `json:"started_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (s Status) clone() Status {
	s.Errors = append([]string(nil), s.Errors...)
	return s
}

// Tracker owns the key → status map. BeginOrObserve is an atomic
// check-then-set; that atomicity is what upholds the single-flight
// guarantee under concurrent requests for the same key.
type Tracker struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*Status
}

func New() *Tracker {
	return &Tracker{
		now:     time.Now,
		entries: make(map[string]*Status),
	}
}

// BeginOrObserve starts a new job for key unless one is already in progress.
// It returns started=true when the caller won the slot and must run the job;
// otherwise the current in-progress status is returned for observation.
func (t *Tracker) BeginOrObserve(key string) (started bool, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.entries[key]; ok && existing.State == StateInProgress {
		return false, existing.clone()
	}

	entry := &Status{
		State:     StateInProgress,
		Errors:    []string{},
		StartedAt: t.now(),
		UpdatedAt: t.now(),
	}
	t.entries[key] = entry
	return true, entry.clone()
}

// UpdateProgress records forward progress. Percentages below the last
// recorded value are clamped to it; progress never runs backwards.
func (t *Tracker) UpdateProgress(key string, percentage float64, itemsProduced int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok || entry.State != StateInProgress {
		return
	}
	if percentage > 100 {
		percentage = 100
	}
	if percentage > entry.ProgressPercentage {
		entry.ProgressPercentage = percentage
	}
	if itemsProduced > entry.ItemsProduced {
		entry.ItemsProduced = itemsProduced
	}
	entry.UpdatedAt = t.now()
}

// Complete transitions the job to its successful terminal state.
func (t *Tracker) Complete(key string, itemsProduced int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		return
	}
	entry.State = StateCompleted
	entry.ProgressPercentage = 100
	entry.ItemsProduced = itemsProduced
	entry.UpdatedAt = t.now()
}

// Fail transitions the job to its failed terminal state, appending to the
// error list rather than replacing it.
func (t *Tracker) Fail(key string, errorMessage string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		return
	}
	entry.State = StateFailed
	entry.Errors = append(entry.Errors, errorMessage)
	entry.UpdatedAt = t.now()
}

// Get returns the status for key, if any.
func (t *Tracker) Get(key string) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		return Status{}, false
	}
	return entry.clone(), true
}

// Clear removes the entry; used alongside cache invalidation.
func (t *Tracker) Clear(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}
