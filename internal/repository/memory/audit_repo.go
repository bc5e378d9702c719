package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"apflow/internal/domain"
	"apflow/internal/port"
)

type auditRepo struct {
	mu      sync.Mutex
	entries []domain.TransitionAudit
}

// NewAuditRepo creates an empty in-memory AuditRepository.
func NewAuditRepo() port.AuditRepository {
	return &auditRepo{}
}

func (r *auditRepo) Create(_ context.Context, entry *domain.TransitionAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *auditRepo) ListByDocument(_ context.Context, documentID uuid.UUID) ([]domain.TransitionAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.TransitionAudit
	for _, e := range r.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}
