package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"apflow/internal/domain"
	"apflow/internal/match"
	"apflow/internal/port"
)

// MatchService scores a document against its vendor's candidate reference
// documents. Candidate lookup usually goes through a caching decorator; the
// service itself is stateless.
type MatchService struct {
	docs   port.DocumentRepository
	refs   port.ReferenceRepository
	engine *match.Engine
}

// NewMatchService creates a MatchService.
func NewMatchService(docs port.DocumentRepository, refs port.ReferenceRepository, engine *match.Engine) *MatchService {
	return &MatchService{docs: docs, refs: refs, engine: engine}
}

// Match loads the document, fetches candidates for its resolved vendor name,
// and returns the engine's verdict. A document with no vendor name gets an
// empty candidate set, which the engine reports as a no-candidates warning.
func (s *MatchService) Match(ctx context.Context, id uuid.UUID) (*domain.MatchResult, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var candidates []domain.ReferenceDocument
	if vendor := doc.FieldString(domain.FieldVendorName); vendor != nil && *vendor != "" {
		candidates, err = s.refs.ListByVendor(ctx, *vendor)
		if err != nil {
			return nil, fmt.Errorf("listing candidates for %q: %w", *vendor, err)
		}
	}

	result := s.engine.Match(doc, candidates)
	log.Printf("matchService: document %s scored %.3f against %d candidates (matched=%t)",
		id, result.Confidence, len(candidates), result.Matched)
	return &result, nil
}
