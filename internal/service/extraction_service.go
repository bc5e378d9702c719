package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"apflow/internal/confidence"
	"apflow/internal/domain"
	"apflow/internal/lineitem"
	"apflow/internal/port"
	"apflow/internal/progress"
	"apflow/internal/resolve"
	"apflow/internal/workflow"
)

const defaultMaxExtractAttempts = 5

// ExtractionConfig holds extraction pipeline settings.
type ExtractionConfig struct {
	Bucket      string
	Tolerance   domain.Amount
	MaxAttempts int
}

// ExtractionService ingests source documents and runs the extraction
// pipeline: download, primary and fallback extraction, field resolution,
// line-item reconciliation, and the review gate. All document writes go
// through the state machine.
type ExtractionService struct {
	docs       port.DocumentRepository
	storage    port.ObjectStorage
	primary    port.FieldExtractor
	fallback   port.FieldExtractor
	machine    *workflow.StateMachine
	tracker    *progress.Tracker
	classifier *confidence.Classifier
	cfg        ExtractionConfig
}

// NewExtractionService creates an ExtractionService. fallback may be nil when
// no secondary extraction source is configured.
func NewExtractionService(
	docs port.DocumentRepository,
	storage port.ObjectStorage,
	primary port.FieldExtractor,
	fallback port.FieldExtractor,
	machine *workflow.StateMachine,
	tracker *progress.Tracker,
	classifier *confidence.Classifier,
	cfg ExtractionConfig,
) *ExtractionService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxExtractAttempts
	}
	return &ExtractionService{
		docs:       docs,
		storage:    storage,
		primary:    primary,
		fallback:   fallback,
		machine:    machine,
		tracker:    tracker,
		classifier: classifier,
		cfg:        cfg,
	}
}

// Ingest stores the source bytes and creates a PENDING document at version 0.
// Ingestion is idempotent on content: re-submitting bytes already on file
// returns the existing document without uploading or creating anything.
func (s *ExtractionService) Ingest(ctx context.Context, fileBytes []byte, contentType string) (*domain.CanonicalDocument, error) {
	sum := sha256.Sum256(fileBytes)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.docs.GetByContentHash(ctx, hash)
	if err == nil {
		log.Printf("extractionService: duplicate ingest, content hash %s already document %s", hash, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUnknownDocument) {
		return nil, fmt.Errorf("checking content hash: %w", err)
	}

	id := uuid.New()
	key := fmt.Sprintf("sources/%s", id)

	s.tracker.Start(id, domain.StepUpload, "uploading source")
	if err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(fileBytes),
		ContentType: contentType,
		Size:        int64(len(fileBytes)),
	}); err != nil {
		s.tracker.Error(id, err.Error(), domain.StepUpload)
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	s.tracker.CompleteStep(id, domain.StepUpload, "")

	doc := &domain.CanonicalDocument{
		ID:          id,
		ContentHash: hash,
		SourceKey:   key,
		ContentType: contentType,
		Fields:      domain.FieldMap{},
		State:       domain.StatePending,
		Version:     0,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	log.Printf("extractionService: ingested document %s (content hash %s)", id, hash)
	return doc, nil
}

// Process runs one extraction attempt for a PENDING document. On transient
// failure the document is returned to PENDING for a later retry; once the
// attempt budget is exhausted it is moved to ERROR. A concurrency conflict on
// the start transition means another worker claimed the document first and is
// not an error here.
func (s *ExtractionService) Process(ctx context.Context, id uuid.UUID) error {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}

	doc, err = s.machine.Apply(ctx, id, doc.Version, domain.EventStart, func(d *domain.CanonicalDocument) error {
		d.ExtractAttempts++
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			log.Printf("extractionService: document %s claimed by another worker", id)
			return nil
		}
		return err
	}

	s.tracker.Start(id, domain.StepPrimary, "extraction started")
	log.Printf("extractionService: processing document %s (attempt %d)", id, doc.ExtractAttempts)

	if err := s.runExtraction(ctx, doc); err != nil {
		s.handleFailure(ctx, doc, err)
		return err
	}

	s.tracker.Complete(id, "extraction complete")
	return nil
}

func (s *ExtractionService) runExtraction(ctx context.Context, doc *domain.CanonicalDocument) error {
	fileBytes, err := s.storage.Download(ctx, s.cfg.Bucket, doc.SourceKey)
	if err != nil {
		return fmt.Errorf("downloading source: %w", err)
	}
	input := port.ExtractInput{FileBytes: fileBytes, ContentType: doc.ContentType}

	s.tracker.Update(doc.ID, 20, "running primary extraction", domain.StepPrimary)
	primaryRes, err := s.primary.Extract(ctx, input)
	if err != nil {
		return fmt.Errorf("primary extraction: %w", err)
	}
	s.tracker.CompleteStep(doc.ID, domain.StepPrimary, "")

	// The fallback source fills gaps; losing it degrades quality, not the
	// attempt.
	var fallbackRes *port.ExtractResult
	if s.fallback != nil {
		s.tracker.Update(doc.ID, 50, "running fallback extraction", domain.StepFallback)
		fallbackRes, err = s.fallback.Extract(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("fallback extraction: %w", err)
			}
			log.Printf("extractionService: fallback extraction failed for %s, continuing with primary only: %v", doc.ID, err)
			fallbackRes = nil
		}
	}
	s.tracker.CompleteStep(doc.ID, domain.StepFallback, "")

	s.tracker.Update(doc.ID, 70, "merging extraction sources", domain.StepMerge)
	var fallbackFields map[string]port.RawField
	var fallbackItems []port.RawLineItem
	if fallbackRes != nil {
		fallbackFields = fallbackRes.Fields
		fallbackItems = fallbackRes.LineItems
	}
	fields, warnings := resolve.Resolve(primaryRes.Fields, fallbackFields)
	items, itemWarnings := resolve.ResolveLineItems(primaryRes.LineItems, fallbackItems)
	warnings = append(warnings, itemWarnings...)
	s.tracker.CompleteStep(doc.ID, domain.StepMerge, "")

	s.tracker.Update(doc.ID, 85, "reconciling line items", domain.StepValidate)
	liRes := lineitem.Validate(items,
		amountField(fields, domain.FieldSubtotalAmount),
		amountField(fields, domain.FieldTaxAmount),
		amountField(fields, domain.FieldTotalAmount),
		s.cfg.Tolerance)
	warnings = append(warnings, liRes.Warnings...)

	lowConfidence := s.classifier.ReviewGate(fields)
	if lowConfidence {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarnLowConfidence,
			Message: "one or more required fields below medium confidence",
		})
	}
	s.tracker.CompleteStep(doc.ID, domain.StepValidate, "")

	_, err = s.machine.Apply(ctx, doc.ID, doc.Version, domain.EventExtractOK, func(d *domain.CanonicalDocument) error {
		d.Fields = fields
		d.LineItems = items
		d.Warnings = warnings
		d.LowConfidence = lowConfidence
		return nil
	})
	if err != nil {
		return fmt.Errorf("persisting extraction result: %w", err)
	}
	return nil
}

// handleFailure decides between retry and permanent failure. A canceled
// context always returns the document to PENDING regardless of the attempt
// count; the shutdown took the attempt, not the document.
func (s *ExtractionService) handleFailure(ctx context.Context, doc *domain.CanonicalDocument, procErr error) {
	// The processing context may be dead; state repair must still land.
	repairCtx := ctx
	if ctx.Err() != nil {
		repairCtx = context.Background()
	}

	canceled := ctx.Err() != nil
	if canceled || doc.ExtractAttempts < s.cfg.MaxAttempts {
		if _, err := s.machine.Apply(repairCtx, doc.ID, doc.Version, domain.EventReset, nil); err != nil {
			log.Printf("extractionService: resetting document %s failed: %v", doc.ID, err)
		}
		if canceled {
			s.tracker.Clear(doc.ID)
			log.Printf("extractionService: document %s returned to queue after cancellation", doc.ID)
		} else {
			s.tracker.Error(doc.ID, procErr.Error(), "")
			log.Printf("extractionService: document %s attempt %d/%d failed, will retry: %v",
				doc.ID, doc.ExtractAttempts, s.cfg.MaxAttempts, procErr)
		}
		return
	}

	if _, err := s.machine.Apply(repairCtx, doc.ID, doc.Version, domain.EventFail, func(d *domain.CanonicalDocument) error {
		d.Warnings = append(d.Warnings, domain.Warning{
			Code:    domain.WarnMalformedValue,
			Message: fmt.Sprintf("extraction failed after %d attempts: %v", d.ExtractAttempts, procErr),
		})
		return nil
	}); err != nil {
		log.Printf("extractionService: failing document %s failed: %v", doc.ID, err)
	}
	s.tracker.Error(doc.ID, procErr.Error(), "")
	log.Printf("extractionService: document %s failed permanently after %d attempts: %v",
		doc.ID, doc.ExtractAttempts, procErr)
}

// amountField parses an amount-kind field out of a resolved field map.
func amountField(fields domain.FieldMap, name string) *domain.Amount {
	f, ok := fields[name]
	if !ok || f.Value == nil {
		return nil
	}
	a, err := domain.ParseAmount(*f.Value)
	if err != nil {
		return nil
	}
	return &a
}
