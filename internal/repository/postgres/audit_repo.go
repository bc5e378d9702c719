package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"apflow/internal/domain"
	"apflow/internal/port"
)

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new PostgreSQL-backed AuditRepository.
func NewAuditRepo(db *sqlx.DB) port.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, entry *domain.TransitionAudit) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO document_transition_log (
			id, document_id, from_state, to_state, event, version, actor, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.DocumentID, entry.FromState, entry.ToState,
		entry.Event, entry.Version, entry.Actor, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("auditRepo.Create: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.TransitionAudit, error) {
	var entries []domain.TransitionAudit
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM document_transition_log
		 WHERE document_id = $1
		 ORDER BY created_at ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByDocument: %w", err)
	}
	return entries, nil
}
