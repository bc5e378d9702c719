package memory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/domain"
	"apflow/internal/repository/memory"
)

func newDoc(state domain.ProcessingState) *domain.CanonicalDocument {
	return &domain.CanonicalDocument{
		ID:          uuid.New(),
		ContentHash: uuid.NewString(),
		Fields:      domain.FieldMap{},
		State:       state,
	}
}

func TestDocumentRepo_GetByContentHash(t *testing.T) {
	repo := memory.NewDocumentRepo()
	doc := newDoc(domain.StatePending)
	require.NoError(t, repo.Create(context.Background(), doc))

	found, err := repo.GetByContentHash(context.Background(), doc.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)

	_, err = repo.GetByContentHash(context.Background(), "no-such-hash")
	assert.ErrorIs(t, err, domain.ErrUnknownDocument)
}

func TestDocumentRepo_ListPendingOrderedAndLimited(t *testing.T) {
	repo := memory.NewDocumentRepo()

	first := newDoc(domain.StatePending)
	require.NoError(t, repo.Create(context.Background(), first))
	second := newDoc(domain.StatePending)
	require.NoError(t, repo.Create(context.Background(), second))
	processing := newDoc(domain.StateProcessing)
	require.NoError(t, repo.Create(context.Background(), processing))

	pending, err := repo.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	limited, err := repo.ListPending(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, pending[0].ID, limited[0].ID)
}

func TestDocumentRepo_GetReturnsCopy(t *testing.T) {
	repo := memory.NewDocumentRepo()
	doc := newDoc(domain.StatePending)
	require.NoError(t, repo.Create(context.Background(), doc))

	got, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	v := "tampered"
	got.Fields["invoice_number"] = domain.ResolvedField{Value: &v}
	got.State = domain.StateError

	fresh, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Fields)
	assert.Equal(t, domain.StatePending, fresh.State)
}

func TestDocumentRepo_SaveBumpsVersion(t *testing.T) {
	repo := memory.NewDocumentRepo()
	doc := newDoc(domain.StatePending)
	require.NoError(t, repo.Create(context.Background(), doc))

	doc.State = domain.StateProcessing
	require.NoError(t, repo.Save(context.Background(), doc, 0))
	assert.Equal(t, int64(1), doc.Version)

	err := repo.Save(context.Background(), doc, 0)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	err = repo.Save(context.Background(), newDoc(domain.StatePending), 0)
	assert.ErrorIs(t, err, domain.ErrUnknownDocument)
}
