// Package confidence buckets extraction confidence scores into tiers and
// decides when a document needs mandatory human review.
package confidence

import (
	"apflow/internal/domain"
)

// Thresholds holds the tier cutoffs. They are configuration, not per-caller
// constants; historical artifacts disagreed on the high cutoff (0.75 vs
// 0.90), so exactly one configured value decides it.
type Thresholds struct {
	High   float64
	Medium float64
}

// DefaultThresholds returns the standard cutoffs: high >= 0.75,
// medium >= 0.50.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.75, Medium: 0.50}
}

// Classifier maps scores to tiers and evaluates the review gate.
type Classifier struct {
	thresholds Thresholds
	required   []string
}

// NewClassifier creates a Classifier. An empty requiredFields slice falls
// back to the canonical required subset.
func NewClassifier(t Thresholds, requiredFields []string) *Classifier {
	if len(requiredFields) == 0 {
		requiredFields = domain.RequiredFieldNames()
	}
	return &Classifier{thresholds: t, required: requiredFields}
}

// Classify maps a confidence score to its tier. A nil score is TierNone.
// Boundaries are inclusive on the lower tier's upper bound: exactly 0.75 is
// high, exactly 0.50 is medium.
func (c *Classifier) Classify(score *float64) domain.ConfidenceTier {
	switch {
	case score == nil:
		return domain.TierNone
	case *score >= c.thresholds.High:
		return domain.TierHigh
	case *score >= c.thresholds.Medium:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// ReviewGate reports whether the document must be routed to human review:
// true when any required field sits below medium. It is computed from the
// current field values every time, never cached.
func (c *Classifier) ReviewGate(fields domain.FieldMap) bool {
	for _, name := range c.required {
		f := fields[name]
		switch c.Classify(f.Confidence) {
		case domain.TierLow, domain.TierNone:
			return true
		}
	}
	return false
}
