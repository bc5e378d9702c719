// Package progress is a process-wide, concurrency-safe registry of in-flight
// extraction progress. Entries are volatile: they live for one extraction
// attempt and are destroyed on Clear or process restart.
package progress

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"apflow/internal/domain"
)

// Status is the document-level or per-step progress state.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// StepProgress is the sub-record for one extraction step.
type StepProgress struct {
	Status      Status     `json:"status"`
	Progress    float64    `json:"progress"`
	Message     string     `json:"message,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Snapshot is the JSON shape served to the polling status endpoint.
type Snapshot struct {
	CurrentStep        domain.ExtractStep                   `json:"current_step"`
	ProgressPercentage float64                              `json:"progress_percentage"`
	Status             Status                               `json:"status"`
	Message            string                               `json:"message,omitempty"`
	Steps              map[domain.ExtractStep]*StepProgress `json:"per_step"`
}

// Tracker is an explicit, constructor-injected registry instance with
// process-wide lifetime; one mutex guards the whole map. Operations do no
// I/O, so lock hold time is negligible. Concurrent updates for one id are
// serialized; the last applied value wins.
type Tracker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Snapshot
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[uuid.UUID]*Snapshot)}
}

// Start creates or updates the entry for id, marks it running on step, and
// initializes that step's sub-record if absent.
func (t *Tracker) Start(id uuid.UUID, step domain.ExtractStep, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.entries[id]
	if !ok {
		snap = &Snapshot{Steps: make(map[domain.ExtractStep]*StepProgress)}
		t.entries[id] = snap
	}
	snap.CurrentStep = step
	snap.Status = StatusRunning
	snap.Message = message
	if _, ok := snap.Steps[step]; !ok {
		snap.Steps[step] = &StepProgress{Status: StatusRunning, StartedAt: time.Now().UTC()}
	}
}

// Update sets the document-level percentage, clamped to [0,100]. message and
// step are optional ("" leaves them unchanged). An unknown id is a no-op
// with a logged warning, never an error: progress is best-effort telemetry.
func (t *Tracker) Update(id uuid.UUID, percentage float64, message string, step domain.ExtractStep) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.entries[id]
	if !ok {
		log.Printf("progress.Tracker: update for untracked document %s ignored", id)
		return
	}
	snap.ProgressPercentage = clamp(percentage)
	if message != "" {
		snap.Message = message
	}
	if step != "" {
		snap.CurrentStep = step
		if sp, ok := snap.Steps[step]; ok {
			sp.Progress = clamp(percentage)
		} else {
			snap.Steps[step] = &StepProgress{
				Status:    StatusRunning,
				Progress:  clamp(percentage),
				StartedAt: time.Now().UTC(),
			}
		}
	}
}

// CompleteStep marks one step complete at 100%.
func (t *Tracker) CompleteStep(id uuid.UUID, step domain.ExtractStep, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.entries[id]
	if !ok {
		log.Printf("progress.Tracker: complete_step for untracked document %s ignored", id)
		return
	}
	sp, ok := snap.Steps[step]
	if !ok {
		sp = &StepProgress{StartedAt: time.Now().UTC()}
		snap.Steps[step] = sp
	}
	now := time.Now().UTC()
	sp.Status = StatusComplete
	sp.Progress = 100
	sp.CompletedAt = &now
	if message != "" {
		sp.Message = message
	}
}

// Complete marks the whole attempt complete. Calling it twice leaves the
// same final snapshot as calling it once.
func (t *Tracker) Complete(id uuid.UUID, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.entries[id]
	if !ok {
		log.Printf("progress.Tracker: complete for untracked document %s ignored", id)
		return
	}
	snap.Status = StatusComplete
	snap.CurrentStep = domain.StepComplete
	snap.ProgressPercentage = 100
	snap.Message = message
}

// Error marks the attempt failed; when step is tracked the message is
// attached to its sub-record too.
func (t *Tracker) Error(id uuid.UUID, message string, step domain.ExtractStep) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.entries[id]
	if !ok {
		log.Printf("progress.Tracker: error for untracked document %s ignored", id)
		return
	}
	snap.Status = StatusError
	snap.Message = message
	if step != "" {
		if sp, ok := snap.Steps[step]; ok {
			sp.Status = StatusError
			sp.Message = message
		}
	}
}

// Get returns a deep copy of the snapshot for id, or nil when untracked.
func (t *Tracker) Get(id uuid.UUID) *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, ok := t.entries[id]
	if !ok {
		return nil
	}
	out := &Snapshot{
		CurrentStep:        snap.CurrentStep,
		ProgressPercentage: snap.ProgressPercentage,
		Status:             snap.Status,
		Message:            snap.Message,
		Steps:              make(map[domain.ExtractStep]*StepProgress, len(snap.Steps)),
	}
	for k, v := range snap.Steps {
		cp := *v
		out.Steps[k] = &cp
	}
	return out
}

// Clear removes the entry for id.
func (t *Tracker) Clear(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
