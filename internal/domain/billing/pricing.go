package billing

import "github.com/shopspring/decimal"

// GrossUp inverts the provider's percent-plus-fixed fee:
//
//	gross = round((net + fixed) / (1 - percent))
//
// Rounding is half away from zero.
func GrossUp(netCents int64, international bool, domesticPct, internationalPct decimal.Decimal, fixedFeeCents int64) int64 {
	pct := domesticPct
	if international {
		pct = internationalPct
	}
	numerator := decimal.NewFromInt(netCents + fixedFeeCents)
	denominator := decimal.NewFromInt(1).Sub(pct)
	return numerator.DivRound(denominator, 8).Round(0).IntPart()
}

// FormatDollars renders minor units as "$51.20".
func FormatDollars(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}
