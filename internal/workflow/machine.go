// Package workflow enforces the document lifecycle under optimistic
// concurrency control. All document mutations flow through Apply; nothing
// else writes a canonical document after creation.
package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"apflow/internal/domain"
	"apflow/internal/port"
)

// Mutation alters a document in memory before it is persisted. It must not
// touch State or Version; those belong to the machine.
type Mutation func(*domain.CanonicalDocument) error

// StateMachine applies events to persisted documents. The version check and
// the write are one atomic unit relative to other callers on the same
// document id: of two Applies against the same base version, exactly one
// succeeds and the persisted version advances by exactly one.
type StateMachine struct {
	docs  port.DocumentRepository
	audit port.AuditRepository
}

// NewStateMachine creates a StateMachine. audit may be nil to disable the
// transition log.
func NewStateMachine(docs port.DocumentRepository, audit port.AuditRepository) *StateMachine {
	return &StateMachine{docs: docs, audit: audit}
}

// Apply loads the document, verifies the caller's observed version, checks
// the transition, runs the mutation, and persists with a compare-and-swap.
// On any failure nothing is persisted and the version does not advance.
// A version mismatch returns domain.ErrConcurrencyConflict; the caller must
// re-read and retry — the machine never retries, since a blind retry could
// silently discard a concurrent reviewer's intent.
func (m *StateMachine) Apply(ctx context.Context, id uuid.UUID, expectedVersion int64, event domain.Event, mutate Mutation) (*domain.CanonicalDocument, error) {
	return m.ApplyAs(ctx, id, expectedVersion, event, mutate, "system")
}

// ApplyAs is Apply with an explicit actor recorded in the audit trail.
func (m *StateMachine) ApplyAs(ctx context.Context, id uuid.UUID, expectedVersion int64, event domain.Event, mutate Mutation, actor string) (*domain.CanonicalDocument, error) {
	doc, err := m.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Version != expectedVersion {
		return nil, fmt.Errorf("document %s at version %d, caller expected %d: %w",
			id, doc.Version, expectedVersion, domain.ErrConcurrencyConflict)
	}

	from := doc.State
	next, err := Next(from, event)
	if err != nil {
		return nil, err
	}

	if mutate != nil {
		if err := mutate(doc); err != nil {
			return nil, fmt.Errorf("applying mutation for %s: %w", id, err)
		}
	}
	doc.State = next

	if err := m.docs.Save(ctx, doc, expectedVersion); err != nil {
		return nil, err
	}

	if m.audit != nil {
		entry := &domain.TransitionAudit{
			ID:         uuid.New(),
			DocumentID: id,
			FromState:  from,
			ToState:    next,
			Event:      event,
			Version:    doc.Version,
			Actor:      actor,
			CreatedAt:  time.Now().UTC(),
		}
		// Best effort: a failed audit write never fails the transition.
		if err := m.audit.Create(ctx, entry); err != nil {
			log.Printf("workflow.StateMachine: audit write failed for %s (%s -> %s): %v",
				id, from, next, err)
		}
	}

	return doc, nil
}
