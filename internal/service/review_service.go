package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"apflow/internal/confidence"
	"apflow/internal/domain"
	"apflow/internal/port"
	"apflow/internal/resolve"
	"apflow/internal/workflow"
)

// ReviewService drives the human side of the lifecycle: validation sign-off,
// the two-stage approval chain, staging for export, and manual field
// corrections. Every operation takes the caller's observed version so a
// stale review screen surfaces a conflict instead of silently overwriting
// a colleague's work.
type ReviewService struct {
	docs       port.DocumentRepository
	audit      port.AuditRepository
	machine    *workflow.StateMachine
	classifier *confidence.Classifier
}

// NewReviewService creates a ReviewService.
func NewReviewService(docs port.DocumentRepository, audit port.AuditRepository, machine *workflow.StateMachine, classifier *confidence.Classifier) *ReviewService {
	return &ReviewService{docs: docs, audit: audit, machine: machine, classifier: classifier}
}

// Validate marks an EXTRACTED document as validated by actor.
func (s *ReviewService) Validate(ctx context.Context, id uuid.UUID, expectedVersion int64, actor string) (*domain.CanonicalDocument, error) {
	return s.machine.ApplyAs(ctx, id, expectedVersion, domain.EventValidateOK, nil, actor)
}

// ApproveSec34 records the first-stage approval.
func (s *ReviewService) ApproveSec34(ctx context.Context, id uuid.UUID, expectedVersion int64, actor string) (*domain.CanonicalDocument, error) {
	return s.machine.ApplyAs(ctx, id, expectedVersion, domain.EventApproveSec34, nil, actor)
}

// ApproveSec33 records the second-stage approval. The machine's transition
// table enforces the ordering; this never skips the first stage.
func (s *ReviewService) ApproveSec33(ctx context.Context, id uuid.UUID, expectedVersion int64, actor string) (*domain.CanonicalDocument, error) {
	return s.machine.ApplyAs(ctx, id, expectedVersion, domain.EventApproveSec33, nil, actor)
}

// Stage moves a fully approved document into the terminal STAGED state.
func (s *ReviewService) Stage(ctx context.Context, id uuid.UUID, expectedVersion int64, actor string) (*domain.CanonicalDocument, error) {
	return s.machine.ApplyAs(ctx, id, expectedVersion, domain.EventStage, nil, actor)
}

// CorrectField applies a manual correction to one canonical field. The value
// is normalized exactly like extractor output, recorded with MANUAL source at
// full confidence, and the review gate is recomputed from the updated field
// set. Allowed while the document sits in EXTRACTED or VALIDATED.
func (s *ReviewService) CorrectField(ctx context.Context, id uuid.UUID, expectedVersion int64, fieldName string, value any, actor string) (*domain.CanonicalDocument, error) {
	spec, ok := domain.FieldSpecFor(fieldName)
	if !ok {
		return nil, fmt.Errorf("unknown canonical field %q", fieldName)
	}
	normalized, err := resolve.Canonicalize(spec, value)
	if err != nil {
		return nil, fmt.Errorf("correcting %s: %w", fieldName, err)
	}

	return s.machine.ApplyAs(ctx, id, expectedVersion, domain.EventReviewEdit, func(d *domain.CanonicalDocument) error {
		if d.Fields == nil {
			d.Fields = domain.FieldMap{}
		}
		if normalized == "" {
			d.Fields[fieldName] = domain.ResolvedField{}
		} else {
			conf := 1.0
			v := normalized
			d.Fields[fieldName] = domain.ResolvedField{Value: &v, Confidence: &conf, Source: domain.SourceManual}
		}
		d.LowConfidence = s.classifier.ReviewGate(d.Fields)
		return nil
	}, actor)
}

// History returns the transition audit trail for a document, oldest first.
func (s *ReviewService) History(ctx context.Context, id uuid.UUID) ([]domain.TransitionAudit, error) {
	return s.audit.ListByDocument(ctx, id)
}
