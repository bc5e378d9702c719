package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/domain"
)

func TestParseAmount_PlainDecimals(t *testing.T) {
	cases := []struct {
		in   string
		want domain.Amount
	}{
		{"100.00", 1000000},
		{"100", 1000000},
		{"99.995", 999950},
		{"0.01", 100},
		{"0.001", 10},
		{"-42.5", -425000},
		{"+7", 70000},
		{"0", 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := domain.ParseAmount(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAmount_SymbolsAndSeparators(t *testing.T) {
	cases := []struct {
		in   string
		want domain.Amount
	}{
		{"$1,250.00", 12500000},
		{"€ 99.95", 999500},
		{"1 234.50", 12345000},
		{"₹1,00,000", 1000000000},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := domain.ParseAmount(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAmount_Rejects(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "12.3.4", "1.23456", "12a"} {
		t.Run(in, func(t *testing.T) {
			_, err := domain.ParseAmount(in)
			assert.Error(t, err)
		})
	}
}

func TestAmount_String(t *testing.T) {
	cases := []struct {
		in   domain.Amount
		want string
	}{
		{1000000, "100.00"},
		{999950, "99.995"},
		{10, "0.001"},
		{-425000, "-42.50"},
		{0, "0.00"},
		{1234567, "123.4567"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.String())
	}
}

func TestAmount_RoundTrip(t *testing.T) {
	for _, in := range []string{"100.00", "99.995", "0.001", "-42.50"} {
		a, err := domain.ParseAmount(in)
		require.NoError(t, err)
		back, err := domain.ParseAmount(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
}

func TestAmount_Arithmetic(t *testing.T) {
	a, _ := domain.ParseAmount("100.00")
	b, _ := domain.ParseAmount("99.995")

	diff := a.Sub(b).Abs()
	assert.Equal(t, "0.005", diff.String())
	assert.Equal(t, "199.995", a.Add(b).String())
	assert.Equal(t, diff, b.Sub(a).Abs())
}

func TestAmountFromFloat(t *testing.T) {
	assert.Equal(t, domain.Amount(1000000), domain.AmountFromFloat(100.0))
	assert.Equal(t, domain.Amount(999950), domain.AmountFromFloat(99.995))
	assert.Equal(t, domain.Amount(-5000), domain.AmountFromFloat(-0.5))
}
