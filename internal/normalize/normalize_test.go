package normalize_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturscan/internal/domain"
	"fakturscan/internal/normalize"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"indonesian_full", "1.234.567,89", "1234567.89"},
		{"indonesian_no_fraction", "50.000.000", "50000000"},
		{"indonesian_with_zero_fraction", "50.000.000,00", "50000000"},
		{"plain_integer", "1500", "1500"},
		{"single_thousands_dot", "1.234", "1234"},
		{"comma_decimal", "1,5", "1.5"},
		{"dot_decimal", "12.5", "12.5"},
		{"currency_prefix", "Rp 1.049.485,00", "1049485"},
		{"currency_prefix_dot", "Rp.250.000", "250000"},
		{"idr_prefix", "IDR 10.000", "10000"},
		{"inner_whitespace", "1 234 567,89", "1234567.89"},
		{"ocr_letter_o", "1O.OOO,OO", "10000"},
		{"ocr_letter_l", "l.2I0", "1210"},
		{"trailing_dash", "Rp 5.000,-", "5000"},
		{"negative_parens", "(1.000,00)", "-1000"},
		{"negative_sign", "-2.500", "-2500"},
		{"zero", "0,00", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalize.ParseDecimal(tc.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseDecimal_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "Rp", "12x34", "1.049.485,00 x 1,00"} {
		t.Run(in, func(t *testing.T) {
			got, err := normalize.ParseDecimal(in)
			require.Error(t, err)
			assert.True(t, got.IsZero())
			assert.True(t, errors.Is(err, domain.ErrMalformedNumber))

			var mErr *normalize.MalformedNumberError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, in, mErr.Input)
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "1.234.567,89", normalize.FormatDecimal(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, "0,00", normalize.FormatDecimal(decimal.Zero))
	assert.Equal(t, "999,50", normalize.FormatDecimal(decimal.RequireFromString("999.5")))
	assert.Equal(t, "-1.000,00", normalize.FormatDecimal(decimal.NewFromInt(-1000)))
	assert.Equal(t, "50.000.000,00", normalize.FormatDecimal(decimal.NewFromInt(50_000_000)))
}

func TestParseDecimal_RoundTrip(t *testing.T) {
	values := []string{
		"0", "0.01", "0.1", "1", "12.34", "999.99", "1000", "1000.5",
		"123456.78", "1049485", "50000000", "987654321.09", "-1", "-1234.56",
	}
	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			x := decimal.RequireFromString(v)
			got, err := normalize.ParseDecimal(normalize.FormatDecimal(x))
			require.NoError(t, err)
			assert.True(t, x.Equal(got), "x=%s got=%s", x, got)
		})
	}

	// every cent value in a small range
	for cents := int64(-1500); cents <= 150_000; cents += 37 {
		x := decimal.New(cents, -2)
		got, err := normalize.ParseDecimal(normalize.FormatDecimal(x))
		require.NoError(t, err)
		require.True(t, x.Equal(got), "x=%s got=%s", x, got)
	}
}

func TestLooksNumeric(t *testing.T) {
	assert.True(t, normalize.LooksNumeric("1.000,00"))
	assert.True(t, normalize.LooksNumeric("Rp 1.000"))
	assert.True(t, normalize.LooksNumeric("O,OO"))
	assert.False(t, normalize.LooksNumeric("Rp"))
	assert.False(t, normalize.LooksNumeric("Laptop"))
	assert.False(t, normalize.LooksNumeric("x"))
	assert.False(t, normalize.LooksNumeric("01.234.567.8-901.000"))
}

func TestIsCurrencyMarker(t *testing.T) {
	assert.True(t, normalize.IsCurrencyMarker("Rp"))
	assert.True(t, normalize.IsCurrencyMarker("rp."))
	assert.True(t, normalize.IsCurrencyMarker("IDR"))
	assert.False(t, normalize.IsCurrencyMarker("Rp1"))
}

func TestFixOCRDigits(t *testing.T) {
	assert.Equal(t, "10.000", normalize.FixOCRDigits("1O.OOO"))
	assert.Equal(t, "0,00", normalize.FixOCRDigits("O,OO"))
	assert.Equal(t, "Olie", normalize.FixOCRDigits("Olie"))
	assert.Equal(t, "IO", normalize.FixOCRDigits("IO"))
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"referensi", "Laptop ASUS X441  Referensi: PO-2024/001", "Laptop ASUS X441"},
		{"invoice_label", "Jasa Konsultasi Invoice: 8812 Maret", "Jasa Konsultasi Maret"},
		{"inv_number", "Kabel HDMI inv-0042 2m", "Kabel HDMI 2m"},
		{"bracketed_ref", "Toner (Ref: A-19) Hitam", "Toner Hitam"},
		{"preserves_case", "iPhone 15 Pro SKU aB12c", "iPhone 15 Pro SKU aB12c"},
		{"collapses_whitespace", "  Kertas\tA4   80gr \n", "Kertas A4 80gr"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalize.CleanDescription(tc.in))
		})
	}
}
