package match

import (
	"math"
	"strings"
	"time"

	"apflow/internal/domain"
)

// normalizeIdentity lowercases and strips punctuation and spacing so
// "ACME Corp." and "acme corp" compare equal.
func normalizeIdentity(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// vendorScore compares vendor identities. This is the hard criterion: a
// zero here fails the candidate outright regardless of the weighted sum.
func vendorScore(docVendor, refVendor string) float64 {
	d, r := normalizeIdentity(docVendor), normalizeIdentity(refVendor)
	switch {
	case d == "" || r == "":
		return 0
	case d == r:
		return 1.0
	case strings.Contains(d, r) || strings.Contains(r, d):
		return 0.9
	default:
		return 0
	}
}

// amountScore grades proximity of the document total to the reference
// total. Within the configured percentage band the score degrades gently
// from 1.0 to 0.8; within twice the band it is 0.5; beyond that, 0.
func amountScore(docTotal, refTotal domain.Amount, bandPct float64) float64 {
	if refTotal == 0 {
		return 0
	}
	rel := math.Abs(docTotal.Sub(refTotal).Float64()) / math.Abs(refTotal.Float64())
	band := bandPct / 100
	switch {
	case rel == 0:
		return 1.0
	case rel <= band:
		return 1.0 - (rel/band)*0.2
	case rel <= 2*band:
		return 0.5
	default:
		return 0
	}
}

// dateScore grades proximity of the invoice date to the reference date
// within a day window: same day is 1.0, the edge of the window 0.7, outside
// the window 0.
func dateScore(docDate, refDate time.Time, windowDays int) float64 {
	if docDate.IsZero() || refDate.IsZero() || windowDays <= 0 {
		return 0
	}
	days := math.Abs(docDate.Sub(refDate).Hours()) / 24
	window := float64(windowDays)
	if days > window {
		return 0
	}
	return 1.0 - (days/window)*0.3
}

// referenceScore is strict equality on normalized reference numbers.
func referenceScore(docRef, refRef string) float64 {
	d, r := normalizeIdentity(docRef), normalizeIdentity(refRef)
	if d == "" || r == "" {
		return 0
	}
	if d == r {
		return 1.0
	}
	return 0
}
