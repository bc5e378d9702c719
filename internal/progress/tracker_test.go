package progress_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/domain"
	"apflow/internal/progress"
)

func TestTracker_StartAndGet(t *testing.T) {
	tr := progress.NewTracker()
	id := uuid.New()

	tr.Start(id, domain.StepPrimary, "extraction started")

	snap := tr.Get(id)
	require.NotNil(t, snap)
	assert.Equal(t, domain.StepPrimary, snap.CurrentStep)
	assert.Equal(t, progress.StatusRunning, snap.Status)
	assert.Equal(t, "extraction started", snap.Message)
	require.Contains(t, snap.Steps, domain.StepPrimary)
	assert.Equal(t, progress.StatusRunning, snap.Steps[domain.StepPrimary].Status)
}

func TestTracker_GetUntracked(t *testing.T) {
	tr := progress.NewTracker()
	assert.Nil(t, tr.Get(uuid.New()))
}

func TestTracker_UpdateClampsPercentage(t *testing.T) {
	tr := progress.NewTracker()
	id := uuid.New()
	tr.Start(id, domain.StepPrimary, "")

	tr.Update(id, 150, "", "")
	assert.Equal(t, float64(100), tr.Get(id).ProgressPercentage)

	tr.Update(id, -10, "", "")
	assert.Equal(t, float64(0), tr.Get(id).ProgressPercentage)

	tr.Update(id, 42.5, "", "")
	assert.Equal(t, 42.5, tr.Get(id).ProgressPercentage)
}

func TestTracker_UpdateUnknownIDIsNoOp(t *testing.T) {
	tr := progress.NewTracker()

	// Must not panic or create an entry.
	id := uuid.New()
	tr.Update(id, 50, "ghost", domain.StepMerge)
	tr.CompleteStep(id, domain.StepMerge, "")
	tr.Complete(id, "")
	tr.Error(id, "boom", "")

	assert.Nil(t, tr.Get(id))
}

func TestTracker_CompleteIsIdempotent(t *testing.T) {
	tr := progress.NewTracker()
	id := uuid.New()
	tr.Start(id, domain.StepValidate, "")

	tr.Complete(id, "done")
	first := tr.Get(id)

	tr.Complete(id, "done")
	second := tr.Get(id)

	assert.Equal(t, first, second)
	assert.Equal(t, progress.StatusComplete, second.Status)
	assert.Equal(t, domain.StepComplete, second.CurrentStep)
	assert.Equal(t, float64(100), second.ProgressPercentage)
}

func TestTracker_ErrorMarksStep(t *testing.T) {
	tr := progress.NewTracker()
	id := uuid.New()
	tr.Start(id, domain.StepPrimary, "")

	tr.Error(id, "provider timeout", domain.StepPrimary)

	snap := tr.Get(id)
	assert.Equal(t, progress.StatusError, snap.Status)
	assert.Equal(t, "provider timeout", snap.Message)
	assert.Equal(t, progress.StatusError, snap.Steps[domain.StepPrimary].Status)
}

func TestTracker_CompleteStep(t *testing.T) {
	tr := progress.NewTracker()
	id := uuid.New()
	tr.Start(id, domain.StepUpload, "")

	tr.CompleteStep(id, domain.StepUpload, "uploaded")

	sp := tr.Get(id).Steps[domain.StepUpload]
	assert.Equal(t, progress.StatusComplete, sp.Status)
	assert.Equal(t, float64(100), sp.Progress)
	assert.NotNil(t, sp.CompletedAt)
}

func TestTracker_Clear(t *testing.T) {
	tr := progress.NewTracker()
	id := uuid.New()
	tr.Start(id, domain.StepPrimary, "")

	tr.Clear(id)
	assert.Nil(t, tr.Get(id))

	// Clearing twice is harmless.
	tr.Clear(id)
}

func TestTracker_GetReturnsCopy(t *testing.T) {
	tr := progress.NewTracker()
	id := uuid.New()
	tr.Start(id, domain.StepPrimary, "")

	snap := tr.Get(id)
	snap.ProgressPercentage = 99
	snap.Steps[domain.StepPrimary].Status = progress.StatusError

	fresh := tr.Get(id)
	assert.Equal(t, float64(0), fresh.ProgressPercentage)
	assert.Equal(t, progress.StatusRunning, fresh.Steps[domain.StepPrimary].Status)
}

func TestTracker_ConcurrentUpdates(t *testing.T) {
	tr := progress.NewTracker()
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		ids[i] = uuid.New()
		tr.Start(ids[i], domain.StepPrimary, "")
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for p := 0; p <= 100; p += 10 {
			wg.Add(1)
			go func(id uuid.UUID, p float64) {
				defer wg.Done()
				tr.Update(id, p, "", domain.StepPrimary)
			}(id, float64(p))
		}
	}
	wg.Wait()

	for _, id := range ids {
		snap := tr.Get(id)
		require.NotNil(t, snap)
		assert.GreaterOrEqual(t, snap.ProgressPercentage, float64(0))
		assert.LessOrEqual(t, snap.ProgressPercentage, float64(100))
	}
}
