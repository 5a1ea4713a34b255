package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// billing_settings keys
const (
	SettingDomesticPercent      = "domestic_percent"
	SettingInternationalPercent = "international_percent"
	SettingFixedFeeCents        = "fixed_fee_cents"
	SettingDomesticCountry      = "domestic_country"
)

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (Setting) TableName() string { return "billing_settings" }

// FeeSettings is read fresh at the start of each batch run and passed down.
type FeeSettings struct {
	DomesticPercent      decimal.Decimal
	InternationalPercent decimal.Decimal
	FixedFeeCents        int64
	DomesticCountry      string
}

func DefaultFeeSettings() FeeSettings {
	return FeeSettings{
		DomesticPercent:      decimal.RequireFromString("0.0175"),
		InternationalPercent: decimal.RequireFromString("0.035"),
		FixedFeeCents:        30,
		DomesticCountry:      "AU",
	}
}

// ParseFeeSettings overlays stored rows on the defaults. Percentages may be
// stored as fractions (0.0175) or as percent figures (1.75).
func ParseFeeSettings(rows []Setting) (FeeSettings, error) {
	fs := DefaultFeeSettings()
	for _, row := range rows {
		v := strings.TrimSpace(row.Value)
		if v == "" {
			continue
		}
		switch row.Key {
		case SettingDomesticPercent:
			p, err := parsePercent(v)
			if err != nil {
				return fs, fmt.Errorf("%s: %w", row.Key, err)
			}
			fs.DomesticPercent = p
		case SettingInternationalPercent:
			p, err := parsePercent(v)
			if err != nil {
				return fs, fmt.Errorf("%s: %w", row.Key, err)
			}
			fs.InternationalPercent = p
		case SettingFixedFeeCents:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return fs, fmt.Errorf("%s: invalid fee %q", row.Key, v)
			}
			fs.FixedFeeCents = n
		case SettingDomesticCountry:
			fs.DomesticCountry = strings.ToUpper(v)
		}
	}
	return fs, nil
}

func parsePercent(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		d = d.Div(decimal.NewFromInt(100))
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("percent out of range: %s", v)
	}
	return d, nil
}

// IsInternational compares the card's issuing country to the domestic one.
// An unknown card country is billed at the domestic rate.
func (fs FeeSettings) IsInternational(cardCountry string) bool {
	cardCountry = strings.TrimSpace(cardCountry)
	if cardCountry == "" {
		return false
	}
	return !strings.EqualFold(cardCountry, fs.DomesticCountry)
}

// Gross is the amount to charge so the business nets netCents.
func (fs FeeSettings) Gross(netCents int64, cardCountry string) int64 {
	return GrossUp(netCents, fs.IsInternational(cardCountry), fs.DomesticPercent, fs.InternationalPercent, fs.FixedFeeCents)
}
