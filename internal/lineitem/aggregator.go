// Package lineitem reconciles line-item sums against document-level totals.
package lineitem

import (
	"fmt"

	"apflow/internal/domain"
)

// Result is the outcome of a line-item reconciliation. A failed check is a
// warning for the review layer, never a processing error: the document is
// flagged, not blocked.
type Result struct {
	OK               bool
	ComputedSubtotal domain.Amount
	Diff             domain.Amount
	Rollup           *float64
	Warnings         []domain.Warning
}

// Validate sums line amounts and compares them to the declared subtotal
// within an absolute tolerance, checks subtotal+tax against the declared
// total, verifies line numbering, and rolls up line-level confidence. An
// empty line-item list is valid and degrades to a no-op pass.
func Validate(items []domain.LineItem, declaredSubtotal, declaredTax, declaredTotal *domain.Amount, tolerance domain.Amount) Result {
	res := Result{OK: true}
	if len(items) == 0 {
		return res
	}

	var sum domain.Amount
	var confSum float64
	var confCount int
	for i := range items {
		sum = sum.Add(items[i].Amount)
		if items[i].Confidence != nil {
			confSum += *items[i].Confidence
			confCount++
		}
	}
	res.ComputedSubtotal = sum
	if confCount > 0 {
		rollup := confSum / float64(confCount)
		res.Rollup = &rollup
	}

	if w := checkNumbering(items); w != nil {
		res.Warnings = append(res.Warnings, *w)
	}

	if declaredSubtotal != nil {
		res.Diff = sum.Sub(*declaredSubtotal).Abs()
		if res.Diff > tolerance {
			res.OK = false
			res.Warnings = append(res.Warnings, domain.Warning{
				Code:  domain.WarnSubtotalMismatch,
				Field: domain.FieldSubtotalAmount,
				Message: fmt.Sprintf("line items sum to %s but declared subtotal is %s (diff %s, tolerance %s)",
					sum, *declaredSubtotal, res.Diff, tolerance),
			})
		}
	}

	if declaredSubtotal != nil && declaredTax != nil && declaredTotal != nil {
		computed := declaredSubtotal.Add(*declaredTax)
		if diff := computed.Sub(*declaredTotal).Abs(); diff > tolerance {
			res.Warnings = append(res.Warnings, domain.Warning{
				Code:  domain.WarnTotalMismatch,
				Field: domain.FieldTotalAmount,
				Message: fmt.Sprintf("subtotal %s + tax %s = %s does not reconcile with total %s",
					*declaredSubtotal, *declaredTax, computed, *declaredTotal),
			})
		}
	}

	return res
}

// checkNumbering verifies line numbers are unique and contiguous from 1.
func checkNumbering(items []domain.LineItem) *domain.Warning {
	seen := make(map[int]bool, len(items))
	max := 0
	for i := range items {
		n := items[i].LineNumber
		if n <= 0 || seen[n] {
			return &domain.Warning{
				Code:    domain.WarnLineNumbering,
				Message: fmt.Sprintf("line number %d is duplicated or out of range", n),
			}
		}
		seen[n] = true
		if n > max {
			max = n
		}
	}
	if max != len(items) {
		return &domain.Warning{
			Code:    domain.WarnLineNumbering,
			Message: fmt.Sprintf("line numbers are not contiguous: %d lines, highest number %d", len(items), max),
		}
	}
	return nil
}
