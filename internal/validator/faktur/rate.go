package faktur

import (
	"github.com/shopspring/decimal"

	"fakturscan/internal/domain"
)

var (
	RateStandard = decimal.RequireFromString("0.11")
	RateLuxury   = decimal.RequireFromString("0.12")

	// rateSlack is the relative band around a nominal rate that still counts as that rate.
	rateSlack = decimal.RequireFromString("0.02")

	calculatedRates = []decimal.Decimal{RateStandard, RateLuxury}
)

// typeCodeRates maps the first two digits of the Faktur Pajak code to a rate.
// 07 (not collected) and 08 (exempt) carry no VAT.
var typeCodeRates = map[string]decimal.Decimal{
	"01": RateStandard,
	"02": RateStandard,
	"03": RateStandard,
	"04": RateLuxury,
	"05": RateStandard,
	"06": RateStandard,
	"07": decimal.Zero,
	"08": decimal.Zero,
	"09": RateStandard,
}

// DetectTaxRate works out the VAT rate of an invoice. The order is:
// DPP without PPN is zero rated; a PPN/DPP ratio close to a known rate is
// taken as calculated; otherwise the type code decides; unknown codes fall
// back to the standard rate.
func DetectTaxRate(dpp, ppn decimal.Decimal, typeCode string) (decimal.Decimal, domain.RateSource) {
	if dpp.IsPositive() && ppn.IsZero() {
		return decimal.Zero, domain.RateZeroRated
	}
	if dpp.IsPositive() {
		ratio := ppn.Div(dpp)
		for _, r := range calculatedRates {
			if ratio.Sub(r).Abs().LessThanOrEqual(r.Mul(rateSlack)) {
				return r, domain.RateCalculated
			}
		}
	}
	if rate, ok := RateForTypeCode(typeCode); ok {
		return rate, domain.RateTypeCode
	}
	return RateStandard, domain.RateDefault
}

// RateForTypeCode looks up the rate for a type code such as "010" or "04".
func RateForTypeCode(code string) (decimal.Decimal, bool) {
	if len(code) < 2 {
		return decimal.Zero, false
	}
	rate, ok := typeCodeRates[code[:2]]
	return rate, ok
}
