// Package memory provides mutex-guarded in-memory repositories with the
// same compare-and-swap semantics as the PostgreSQL implementations. Used by
// tests and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"apflow/internal/domain"
	"apflow/internal/port"
)

type documentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*domain.CanonicalDocument
}

// NewDocumentRepo creates an empty in-memory DocumentRepository.
func NewDocumentRepo() port.DocumentRepository {
	return &documentRepo{docs: make(map[uuid.UUID]*domain.CanonicalDocument)}
}

func (r *documentRepo) Create(_ context.Context, doc *domain.CanonicalDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := clone(doc)
	r.docs[doc.ID] = cp
	return nil
}

func (r *documentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.CanonicalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrUnknownDocument)
	}
	return clone(doc), nil
}

func (r *documentRepo) GetByContentHash(_ context.Context, hash string) (*domain.CanonicalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, doc := range r.docs {
		if doc.ContentHash == hash {
			return clone(doc), nil
		}
	}
	return nil, fmt.Errorf("content hash %s: %w", hash, domain.ErrUnknownDocument)
}

// Save holds the registry lock across the version check and the write, so
// two concurrent saves against the same base version cannot both succeed.
func (r *documentRepo) Save(_ context.Context, doc *domain.CanonicalDocument, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.docs[doc.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrUnknownDocument)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("document %s at expected version %d: %w",
			doc.ID, expectedVersion, domain.ErrConcurrencyConflict)
	}

	doc.Version = expectedVersion + 1
	doc.UpdatedAt = time.Now().UTC()
	r.docs[doc.ID] = clone(doc)
	return nil
}

func (r *documentRepo) ListPending(_ context.Context, limit int) ([]domain.CanonicalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.CanonicalDocument
	for _, doc := range r.docs {
		if doc.State == domain.StatePending {
			out = append(out, *clone(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(doc *domain.CanonicalDocument) *domain.CanonicalDocument {
	cp := *doc
	cp.Fields = make(domain.FieldMap, len(doc.Fields))
	for k, v := range doc.Fields {
		cp.Fields[k] = v
	}
	cp.LineItems = append([]domain.LineItem(nil), doc.LineItems...)
	cp.Warnings = append(domain.Warnings(nil), doc.Warnings...)
	return &cp
}
