package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"apflow/internal/domain"
	"apflow/internal/port"
)

type referenceRepo struct {
	db *sqlx.DB
}

// NewReferenceRepo creates a new PostgreSQL-backed ReferenceRepository over
// the reference_documents table (purchase orders staged from the ERP).
func NewReferenceRepo(db *sqlx.DB) port.ReferenceRepository {
	return &referenceRepo{db: db}
}

func (r *referenceRepo) ListByVendor(ctx context.Context, vendorName string) ([]domain.ReferenceDocument, error) {
	var refs []domain.ReferenceDocument
	err := r.db.SelectContext(ctx, &refs,
		`SELECT * FROM reference_documents
		 WHERE LOWER(vendor_name) = LOWER($1)
		 ORDER BY date DESC`, vendorName)
	if err != nil {
		return nil, fmt.Errorf("referenceRepo.ListByVendor: %w", err)
	}
	return refs, nil
}
