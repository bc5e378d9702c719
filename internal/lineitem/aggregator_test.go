package lineitem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/domain"
	"apflow/internal/lineitem"
)

func amt(t *testing.T, s string) domain.Amount {
	t.Helper()
	a, err := domain.ParseAmount(s)
	require.NoError(t, err)
	return a
}

func amtPtr(t *testing.T, s string) *domain.Amount {
	a := amt(t, s)
	return &a
}

func conf(v float64) *float64 { return &v }

func items(t *testing.T, amounts ...string) []domain.LineItem {
	t.Helper()
	out := make([]domain.LineItem, len(amounts))
	for i, s := range amounts {
		out[i] = domain.LineItem{LineNumber: i + 1, Amount: amt(t, s)}
	}
	return out
}

func TestValidate_WithinTolerance(t *testing.T) {
	// Lines sum to 99.995 against a declared 100.00: inside a 0.01
	// tolerance, outside a 0.001 tolerance.
	lines := items(t, "33.33", "33.33", "33.335")

	res := lineitem.Validate(lines, amtPtr(t, "100.00"), nil, nil, amt(t, "0.01"))

	assert.True(t, res.OK)
	assert.Equal(t, "99.995", res.ComputedSubtotal.String())
	assert.Equal(t, "0.005", res.Diff.String())
	assert.Empty(t, res.Warnings)
}

func TestValidate_OutsideTolerance(t *testing.T) {
	lines := items(t, "33.33", "33.33", "33.335")

	res := lineitem.Validate(lines, amtPtr(t, "100.00"), nil, nil, amt(t, "0.001"))

	assert.False(t, res.OK)
	assert.Equal(t, "0.005", res.Diff.String())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarnSubtotalMismatch, res.Warnings[0].Code)
	assert.Equal(t, domain.FieldSubtotalAmount, res.Warnings[0].Field)
}

func TestValidate_ExactlyAtTolerance(t *testing.T) {
	// Diff equal to the tolerance passes; only strictly greater fails.
	lines := items(t, "99.99")

	res := lineitem.Validate(lines, amtPtr(t, "100.00"), nil, nil, amt(t, "0.01"))

	assert.True(t, res.OK)
	assert.Equal(t, "0.01", res.Diff.String())
}

func TestValidate_EmptyItemsPass(t *testing.T) {
	res := lineitem.Validate(nil, amtPtr(t, "100.00"), nil, nil, amt(t, "0.01"))

	assert.True(t, res.OK)
	assert.Empty(t, res.Warnings)
	assert.Nil(t, res.Rollup)
}

func TestValidate_NoDeclaredSubtotal(t *testing.T) {
	lines := items(t, "10.00", "20.00")

	res := lineitem.Validate(lines, nil, nil, nil, amt(t, "0.01"))

	assert.True(t, res.OK)
	assert.Equal(t, "30.00", res.ComputedSubtotal.String())
	assert.Empty(t, res.Warnings)
}

func TestValidate_TotalMismatch(t *testing.T) {
	lines := items(t, "100.00")

	res := lineitem.Validate(lines,
		amtPtr(t, "100.00"), amtPtr(t, "18.00"), amtPtr(t, "120.00"),
		amt(t, "0.01"))

	// Subtotal reconciles but subtotal+tax misses the declared total.
	assert.True(t, res.OK)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarnTotalMismatch, res.Warnings[0].Code)
	assert.Equal(t, domain.FieldTotalAmount, res.Warnings[0].Field)
}

func TestValidate_TotalReconciles(t *testing.T) {
	lines := items(t, "100.00")

	res := lineitem.Validate(lines,
		amtPtr(t, "100.00"), amtPtr(t, "18.00"), amtPtr(t, "118.00"),
		amt(t, "0.01"))

	assert.True(t, res.OK)
	assert.Empty(t, res.Warnings)
}

func TestValidate_NumberingGaps(t *testing.T) {
	lines := []domain.LineItem{
		{LineNumber: 1, Amount: amt(t, "10.00")},
		{LineNumber: 3, Amount: amt(t, "20.00")},
	}

	res := lineitem.Validate(lines, nil, nil, nil, amt(t, "0.01"))

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarnLineNumbering, res.Warnings[0].Code)
}

func TestValidate_NumberingDuplicates(t *testing.T) {
	lines := []domain.LineItem{
		{LineNumber: 1, Amount: amt(t, "10.00")},
		{LineNumber: 1, Amount: amt(t, "20.00")},
	}

	res := lineitem.Validate(lines, nil, nil, nil, amt(t, "0.01"))

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarnLineNumbering, res.Warnings[0].Code)
}

func TestValidate_ConfidenceRollup(t *testing.T) {
	lines := []domain.LineItem{
		{LineNumber: 1, Amount: amt(t, "10.00"), Confidence: conf(0.8)},
		{LineNumber: 2, Amount: amt(t, "20.00"), Confidence: conf(0.6)},
		{LineNumber: 3, Amount: amt(t, "30.00")},
	}

	res := lineitem.Validate(lines, nil, nil, nil, amt(t, "0.01"))

	require.NotNil(t, res.Rollup)
	assert.InDelta(t, 0.7, *res.Rollup, 1e-9)
}

func TestValidate_NegativeLineAmounts(t *testing.T) {
	// A credit line reduces the computed subtotal.
	lines := []domain.LineItem{
		{LineNumber: 1, Amount: amt(t, "120.00")},
		{LineNumber: 2, Amount: amt(t, "-20.00")},
	}

	res := lineitem.Validate(lines, amtPtr(t, "100.00"), nil, nil, amt(t, "0.01"))

	assert.True(t, res.OK)
	assert.Equal(t, "100.00", res.ComputedSubtotal.String())
}
