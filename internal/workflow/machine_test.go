package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/domain"
	"apflow/internal/port"
	"apflow/internal/repository/memory"
	"apflow/internal/workflow"
)

func newMachine(t *testing.T) (*workflow.StateMachine, port.DocumentRepository, port.AuditRepository) {
	t.Helper()
	docs := memory.NewDocumentRepo()
	audit := memory.NewAuditRepo()
	return workflow.NewStateMachine(docs, audit), docs, audit
}

func seedDocument(t *testing.T, docs port.DocumentRepository, state domain.ProcessingState) *domain.CanonicalDocument {
	t.Helper()
	doc := &domain.CanonicalDocument{
		ID:          uuid.New(),
		ContentHash: uuid.NewString(),
		SourceKey:   "sources/" + uuid.NewString(),
		Fields:      domain.FieldMap{},
		State:       state,
		Version:     0,
	}
	require.NoError(t, docs.Create(context.Background(), doc))
	return doc
}

func TestApply_AdvancesStateAndVersion(t *testing.T) {
	machine, docs, _ := newMachine(t)
	doc := seedDocument(t, docs, domain.StatePending)

	updated, err := machine.Apply(context.Background(), doc.ID, 0, domain.EventStart, func(d *domain.CanonicalDocument) error {
		d.ExtractAttempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StateProcessing, updated.State)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, 1, updated.ExtractAttempts)

	stored, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateProcessing, stored.State)
	assert.Equal(t, int64(1), stored.Version)
}

func TestApply_StaleVersionConflicts(t *testing.T) {
	machine, docs, _ := newMachine(t)
	doc := seedDocument(t, docs, domain.StatePending)

	_, err := machine.Apply(context.Background(), doc.ID, 0, domain.EventStart, nil)
	require.NoError(t, err)

	_, err = machine.Apply(context.Background(), doc.ID, 0, domain.EventStart, nil)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	stored, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}

func TestApply_UnknownDocument(t *testing.T) {
	machine, _, _ := newMachine(t)

	_, err := machine.Apply(context.Background(), uuid.New(), 0, domain.EventStart, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownDocument)
}

func TestApply_InvalidTransitionPersistsNothing(t *testing.T) {
	machine, docs, audit := newMachine(t)
	doc := seedDocument(t, docs, domain.StatePending)

	_, err := machine.Apply(context.Background(), doc.ID, 0, domain.EventStage, func(d *domain.CanonicalDocument) error {
		d.ExtractAttempts = 99
		return nil
	})

	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	stored, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, stored.State)
	assert.Equal(t, int64(0), stored.Version)
	assert.Equal(t, 0, stored.ExtractAttempts)

	entries, err := audit.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApply_FailedMutationPersistsNothing(t *testing.T) {
	machine, docs, _ := newMachine(t)
	doc := seedDocument(t, docs, domain.StatePending)

	boom := errors.New("boom")
	_, err := machine.Apply(context.Background(), doc.ID, 0, domain.EventStart, func(d *domain.CanonicalDocument) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, stored.State)
	assert.Equal(t, int64(0), stored.Version)
}

func TestApplyAs_RecordsAuditTrail(t *testing.T) {
	machine, docs, audit := newMachine(t)
	doc := seedDocument(t, docs, domain.StatePending)

	_, err := machine.ApplyAs(context.Background(), doc.ID, 0, domain.EventStart, nil, "worker-1")
	require.NoError(t, err)
	updated, err := machine.ApplyAs(context.Background(), doc.ID, 1, domain.EventExtractOK, nil, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateExtracted, updated.State)

	entries, err := audit.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.StatePending, entries[0].FromState)
	assert.Equal(t, domain.StateProcessing, entries[0].ToState)
	assert.Equal(t, "worker-1", entries[0].Actor)
	assert.Equal(t, int64(2), entries[1].Version)
}

func TestApply_ConcurrentExactlyOneWins(t *testing.T) {
	machine, docs, _ := newMachine(t)
	doc := seedDocument(t, docs, domain.StatePending)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = machine.Apply(context.Background(), doc.ID, 0, domain.EventStart, nil)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConcurrencyConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)

	stored, err := docs.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, domain.StateProcessing, stored.State)
}
