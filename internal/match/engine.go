// Package match scores resolved documents against candidate reference
// documents (purchase orders) with explainable per-criterion sub-scores.
package match

import (
	"fmt"
	"time"

	"apflow/internal/domain"
)

// Criterion names used as sub-score keys.
const (
	CriterionVendor    = "vendor_identity"
	CriterionAmount    = "amount_proximity"
	CriterionDate      = "date_proximity"
	CriterionReference = "reference_number"
)

// StrategyWeightedFields identifies the scoring strategy in MatchResult.
const StrategyWeightedFields = "weighted_fields"

// Weights are the per-criterion contributions to the overall confidence.
// They should sum to 1.
type Weights struct {
	Vendor    float64
	Amount    float64
	Date      float64
	Reference float64
}

// Config holds the engine's tunables.
type Config struct {
	Weights         Weights
	AcceptThreshold float64
	AmountBandPct   float64
	DateWindowDays  int
}

// DefaultConfig returns the standard weighting: vendor identity dominates
// and is also the hard criterion.
func DefaultConfig() Config {
	return Config{
		Weights:         Weights{Vendor: 0.40, Amount: 0.30, Date: 0.15, Reference: 0.15},
		AcceptThreshold: 0.75,
		AmountBandPct:   5,
		DateWindowDays:  3,
	}
}

// Engine scores documents against reference candidates.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

type scored struct {
	ref        domain.ReferenceDocument
	subScores  map[string]float64
	confidence float64
	hardFail   bool
	amountDiff domain.Amount
}

// Match scores every candidate and returns the best verdict. matched is true
// only when the best overall confidence clears the acceptance threshold and
// the hard criterion (vendor identity) did not fail outright. Ties break by
// highest confidence, then smallest amount difference. An empty candidate
// list is a warning, not an error.
func (e *Engine) Match(doc *domain.CanonicalDocument, candidates []domain.ReferenceDocument) domain.MatchResult {
	result := domain.MatchResult{
		Strategy:  StrategyWeightedFields,
		SubScores: map[string]float64{},
	}

	if len(candidates) == 0 {
		result.Warnings = append(result.Warnings, domain.Warning{
			Code:    domain.WarnNoCandidates,
			Message: "no candidate reference documents to match against",
		})
		return result
	}

	docVendor := stringOrEmpty(doc.FieldString(domain.FieldVendorName))
	docRef := stringOrEmpty(doc.FieldString(domain.FieldPONumber))
	docTotal := doc.FieldAmount(domain.FieldTotalAmount)
	docDate := parseDate(doc.FieldString(domain.FieldInvoiceDate))

	for _, name := range []struct {
		field string
		ok    bool
	}{
		{domain.FieldVendorName, docVendor != ""},
		{domain.FieldTotalAmount, docTotal != nil},
		{domain.FieldInvoiceDate, !docDate.IsZero()},
	} {
		if !name.ok {
			result.Warnings = append(result.Warnings, domain.Warning{
				Code:    domain.WarnMissingField,
				Field:   name.field,
				Message: fmt.Sprintf("document has no %s; criterion scored zero", name.field),
			})
		}
	}

	var best *scored
	for _, ref := range candidates {
		s := e.score(docVendor, docRef, docTotal, docDate, ref)
		if best == nil || better(s, *best) {
			cp := s
			best = &cp
		}
	}

	result.Confidence = best.confidence
	result.SubScores = best.subScores
	if best.confidence >= e.cfg.AcceptThreshold && !best.hardFail {
		result.Matched = true
		id := best.ref.ID
		result.MatchedReferenceID = &id
	}
	return result
}

func (e *Engine) score(docVendor, docRef string, docTotal *domain.Amount, docDate time.Time, ref domain.ReferenceDocument) scored {
	s := scored{ref: ref, subScores: make(map[string]float64, 4)}

	vendor := vendorScore(docVendor, ref.VendorName)
	s.subScores[CriterionVendor] = vendor
	s.hardFail = vendor == 0

	var amount float64
	if docTotal != nil {
		amount = amountScore(*docTotal, ref.TotalAmount, e.cfg.AmountBandPct)
		s.amountDiff = docTotal.Sub(ref.TotalAmount).Abs()
	} else {
		s.amountDiff = ref.TotalAmount.Abs()
	}
	s.subScores[CriterionAmount] = amount

	date := dateScore(docDate, ref.Date, e.cfg.DateWindowDays)
	s.subScores[CriterionDate] = date

	reference := referenceScore(docRef, ref.ReferenceNumber)
	s.subScores[CriterionReference] = reference

	w := e.cfg.Weights
	s.confidence = vendor*w.Vendor + amount*w.Amount + date*w.Date + reference*w.Reference
	return s
}

// better orders candidates: non-hard-fail first, then higher confidence,
// then smaller amount difference.
func better(a, b scored) bool {
	if a.hardFail != b.hardFail {
		return !a.hardFail
	}
	if a.confidence != b.confidence {
		return a.confidence > b.confidence
	}
	return a.amountDiff < b.amountDiff
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseDate(s *string) time.Time {
	if s == nil {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return time.Time{}
	}
	return t
}
