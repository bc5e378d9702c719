package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"apflow/internal/domain"
	"apflow/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
// documents.version is the optimistic-lock column; document_line_items is an
// owned child table with ON DELETE CASCADE.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.CanonicalDocument) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("documentRepo.Create begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (
			id, content_hash, source_key, content_type, fields,
			processing_state, version, low_confidence, warnings,
			extract_attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		doc.ID, doc.ContentHash, doc.SourceKey, doc.ContentType, doc.Fields,
		doc.State, doc.Version, doc.LowConfidence, doc.Warnings,
		doc.ExtractAttempts, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}

	if err := insertLineItems(ctx, tx, doc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("documentRepo.Create commit: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CanonicalDocument, error) {
	var doc domain.CanonicalDocument
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM documents WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrUnknownDocument)
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	if err := r.loadLineItems(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) GetByContentHash(ctx context.Context, hash string) (*domain.CanonicalDocument, error) {
	var doc domain.CanonicalDocument
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM documents WHERE content_hash = $1", hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("content hash %s: %w", hash, domain.ErrUnknownDocument)
		}
		return nil, fmt.Errorf("documentRepo.GetByContentHash: %w", err)
	}
	if err := r.loadLineItems(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save persists the document iff the stored version still equals
// expectedVersion, bumping version by exactly one. RowsAffected == 0 means
// either a concurrent writer won or the document vanished; the follow-up
// existence check tells the two apart.
func (r *documentRepo) Save(ctx context.Context, doc *domain.CanonicalDocument, expectedVersion int64) error {
	doc.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("documentRepo.Save begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE documents SET
			fields = $1, processing_state = $2, low_confidence = $3,
			warnings = $4, extract_attempts = $5, version = version + 1,
			updated_at = $6
		 WHERE id = $7 AND version = $8`,
		doc.Fields, doc.State, doc.LowConfidence,
		doc.Warnings, doc.ExtractAttempts, doc.UpdatedAt,
		doc.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("documentRepo.Save: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)", doc.ID); err != nil {
			return fmt.Errorf("documentRepo.Save existence check: %w", err)
		}
		if !exists {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrUnknownDocument)
		}
		return fmt.Errorf("document %s at expected version %d: %w",
			doc.ID, expectedVersion, domain.ErrConcurrencyConflict)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_line_items WHERE document_id = $1", doc.ID); err != nil {
		return fmt.Errorf("documentRepo.Save clear line items: %w", err)
	}
	if err := insertLineItems(ctx, tx, doc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("documentRepo.Save commit: %w", err)
	}
	doc.Version = expectedVersion + 1
	return nil
}

func (r *documentRepo) ListPending(ctx context.Context, limit int) ([]domain.CanonicalDocument, error) {
	var docs []domain.CanonicalDocument
	err := r.db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE processing_state = $1
		 ORDER BY created_at ASC LIMIT $2`,
		domain.StatePending, limit)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ListPending: %w", err)
	}
	return docs, nil
}

func (r *documentRepo) loadLineItems(ctx context.Context, doc *domain.CanonicalDocument) error {
	err := r.db.SelectContext(ctx, &doc.LineItems,
		`SELECT * FROM document_line_items WHERE document_id = $1
		 ORDER BY line_number ASC`, doc.ID)
	if err != nil {
		return fmt.Errorf("documentRepo.loadLineItems: %w", err)
	}
	return nil
}

func insertLineItems(ctx context.Context, tx *sqlx.Tx, doc *domain.CanonicalDocument) error {
	for i := range doc.LineItems {
		item := &doc.LineItems[i]
		if item.ID == (uuid.UUID{}) {
			item.ID = uuid.New()
		}
		item.DocumentID = doc.ID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO document_line_items (
				id, document_id, line_number, description, quantity,
				unit_price, amount, tax_rate, tax_amount, confidence
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			item.ID, item.DocumentID, item.LineNumber, item.Description, item.Quantity,
			item.UnitPrice, item.Amount, item.TaxRate, item.TaxAmount, item.Confidence)
		if err != nil {
			return fmt.Errorf("documentRepo: inserting line item %d: %w", item.LineNumber, err)
		}
	}
	return nil
}
