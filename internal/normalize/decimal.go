package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fakturscan/internal/domain"
)

var (
	currencyPrefixRE = regexp.MustCompile(`(?i)^(?:rp\.?|idr)\s*`)
	currencyMarkerRE = regexp.MustCompile(`(?i)^(?:rp\.?|idr)$`)
	trailingDashRE   = regexp.MustCompile(`[.,]-$`)
	confusableRE     = regexp.MustCompile(`^[0-9OoIl.,\s]+$`)
	numericBodyRE    = regexp.MustCompile(`^[0-9.,]+$`)
	digitRE          = regexp.MustCompile(`[0-9]`)

	ocrDigitReplacer = strings.NewReplacer("O", "0", "o", "0", "I", "1", "l", "1")
	separatorRemover = strings.NewReplacer(".", "", ",", "")
)

// MalformedNumberError reports text that could not be read as an amount.
type MalformedNumberError struct {
	Input  string
	Reason string
}

func (e *MalformedNumberError) Error() string {
	return fmt.Sprintf("malformed number %q: %s", e.Input, e.Reason)
}

func (e *MalformedNumberError) Unwrap() error {
	return domain.ErrMalformedNumber
}

func malformed(input, reason string) error {
	return &MalformedNumberError{Input: input, Reason: reason}
}

// ParseDecimal reads an Indonesian-formatted amount such as "Rp 1.234.567,89".
// On failure it returns decimal.Zero together with a *MalformedNumberError;
// the zero is a placeholder and must not be treated as a verified value.
func ParseDecimal(s string) (decimal.Decimal, error) {
	body, neg, ok := numericBody(s)
	if !ok {
		if strings.TrimSpace(s) == "" {
			return decimal.Zero, malformed(s, "empty")
		}
		return decimal.Zero, malformed(s, "not a number")
	}

	intPart, frac := splitDecimal(body)
	digits := separatorRemover.Replace(intPart)
	if digits == "" {
		digits = "0"
	}
	if frac != "" {
		digits += "." + frac
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, malformed(s, err.Error())
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// LooksNumeric reports whether s would be accepted by ParseDecimal.
func LooksNumeric(s string) bool {
	_, _, ok := numericBody(s)
	return ok
}

// IsCurrencyMarker reports whether s is a bare currency symbol such as "Rp".
func IsCurrencyMarker(s string) bool {
	return currencyMarkerRE.MatchString(strings.TrimSpace(s))
}

// FixOCRDigits maps letters commonly misread for digits (O, I, l) back to
// digits, but only when the whole string is otherwise numeric.
func FixOCRDigits(s string) string {
	if !confusableRE.MatchString(s) {
		return s
	}
	if !digitRE.MatchString(s) && !strings.ContainsAny(s, ".,") {
		return s
	}
	return ocrDigitReplacer.Replace(s)
}

// numericBody strips sign, currency and whitespace noise and returns the
// bare digits-and-separators form of s.
func numericBody(s string) (body string, neg bool, ok bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	s = currencyPrefixRE.ReplaceAllString(s, "")
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	s = trailingDashRE.ReplaceAllString(s, "")
	s = FixOCRDigits(s)
	s = strings.Join(strings.Fields(s), "")

	if s == "" || !numericBodyRE.MatchString(s) || !digitRE.MatchString(s) {
		return "", false, false
	}
	return s, neg, true
}

// splitDecimal finds the decimal separator: the last "." or ",". A separator
// that repeats, or a lone "." followed by exactly three digits, groups thousands.
func splitDecimal(s string) (intPart, frac string) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	idx := max(lastDot, lastComma)
	if idx < 0 {
		return s, ""
	}
	sep := s[idx : idx+1]
	if strings.Count(s, sep) > 1 {
		return s, ""
	}
	if sep == "." && lastComma < 0 && len(s)-idx-1 == 3 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

// FormatDecimal renders d in Indonesian notation with two fractional digits,
// for example 1234567.89 becomes "1.234.567,89".
func FormatDecimal(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
