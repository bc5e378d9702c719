package port

import (
	"context"

	"github.com/google/uuid"

	"apflow/internal/domain"
)

// DocumentRepository defines the persistence contract for canonical
// documents. Save is a compare-and-swap: it persists the document and bumps
// its version only if the stored version still equals expectedVersion,
// returning domain.ErrConcurrencyConflict otherwise. Line items are an owned
// child collection and are written atomically with the document row.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.CanonicalDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CanonicalDocument, error)
	GetByContentHash(ctx context.Context, hash string) (*domain.CanonicalDocument, error)
	Save(ctx context.Context, doc *domain.CanonicalDocument, expectedVersion int64) error
	ListPending(ctx context.Context, limit int) ([]domain.CanonicalDocument, error)
}

// AuditRepository records state-machine transitions for the audit trail.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.TransitionAudit) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.TransitionAudit, error)
}

// ReferenceRepository looks up candidate reference documents for matching.
type ReferenceRepository interface {
	ListByVendor(ctx context.Context, vendorName string) ([]domain.ReferenceDocument, error)
}
