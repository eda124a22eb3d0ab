/*
Package factory provides JSON to Go tariff-book conversion.

PURPOSE:
  Converts JSON tariff definitions into a rating.TariffBook. The tariff
  content (rates, minima, grids) is proprietary business configuration:
  actuaries maintain it as versioned JSON, and the factory validates and
  types it at load time so a malformed book fails at startup, never
  mid-quote.

WHY JSON?
  - Actuaries update rates without code changes
  - Version control and review for tariff revisions
  - Database or file storage of tariff versions

JSON SCHEMA (abridged):
  {
    "version": "2026-01",
    "share_policy": "at_most_100",
    "activities": [
      {"code": "maconnerie", "label": "Maçonnerie", "base_rate": "0.012",
       "minimum_premium": "950", "breakpoint": "400000",
       "degressive_rate": "0.006", "reference_ca": "250000"}
    ],
    "majorations": { "company_age_years": [{"up_to": 1, "value": "0.20"}, ...], ... },
    "reprise": { "lookback_years": 5, "year_weights": [...], ... },
    "charges": { "insurance_tax_rate": "0.09", ... },
    "eligibility": { "max_turnover": "2000000", ... }
  }

USAGE:
  book, err := factory.ParseTariff(jsonBytes)
  engine, err := rating.NewEngine(book)

  // Built-in sample book (placeholder figures, for tests and demos)
  book, _ := factory.ParseTariff([]byte(factory.DefaultTariffJSON))

SEE ALSO:
  - rating/tariff.go: TariffBook type and its Validate
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/rating-engine/rating"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TariffJSON is the JSON representation of a tariff book.
type TariffJSON struct {
	Version     string          `json:"version"`
	SharePolicy string          `json:"share_policy,omitempty"`
	Activities  []ActivityJSON  `json:"activities"`
	Majorations MajorationsJSON `json:"majorations"`
	Reprise     RepriseJSON     `json:"reprise"`
	Charges     ChargesJSON     `json:"charges"`
	Eligibility EligibilityJSON `json:"eligibility"`
}

// ActivityJSON is one activity tariff profile. Rates are strings so the
// JSON carries exact decimals.
type ActivityJSON struct {
	Code           string `json:"code"`
	Label          string `json:"label"`
	BaseRate       string `json:"base_rate"`
	MinimumPremium string `json:"minimum_premium"`
	Breakpoint     string `json:"breakpoint"`
	DegressiveRate string `json:"degressive_rate"`
	ReferenceCA    string `json:"reference_ca"`
}

// BandJSON is one threshold -> value band. up_to -1 means unbounded.
type BandJSON struct {
	UpTo  json.Number `json:"up_to"`
	Value string      `json:"value"`
}

// MajorationsJSON configures the risk factors.
type MajorationsJSON struct {
	CompanyAgeYears      []BandJSON `json:"company_age_years"`
	ExperienceYears      []BandJSON `json:"experience_years"`
	ContinuousCoverYears []BandJSON `json:"continuous_cover_years"`
	QualifiedDiscount    string     `json:"qualified_discount"`
	DefaultingSurcharge  string     `json:"defaulting_surcharge"`
	GapOver12Surcharge   string     `json:"gap_over_12_surcharge"`
	InactivitySurcharge  string     `json:"inactivity_surcharge"`
	ClaimsFreeDiscount   string     `json:"claims_free_discount"`
	NoBalanceSheetLoad   string     `json:"no_balance_sheet_load"`
	MinMultiplier        string     `json:"min_multiplier,omitempty"`
}

// RepriseJSON configures the claims-history loader.
type RepriseJSON struct {
	LookbackYears  int          `json:"lookback_years"`
	SeniorityBands []BandJSON   `json:"seniority_bands"`
	FrequencyBands []BandJSON   `json:"frequency_bands"`
	RatioBands     []BandJSON   `json:"ratio_bands"`
	Coefficients   [][][]string `json:"coefficients"`
	YearWeights    []string     `json:"year_weights"`
	TechnicalRates []string     `json:"technical_rates"`
}

// ChargesJSON configures the ancillary charges.
type ChargesJSON struct {
	LegalProtectionPremium string            `json:"legal_protection_premium"`
	LegalProtectionTaxRate string            `json:"legal_protection_tax_rate"`
	ManagementFee          string            `json:"management_fee"`
	InsuranceTaxRate       string            `json:"insurance_tax_rate"`
	FractionRates          map[string]string `json:"fraction_rates"`
}

// EligibilityJSON configures the underwriting bounds.
type EligibilityJSON struct {
	MaxTurnover        string      `json:"max_turnover"`
	MaxHeadcount       string      `json:"max_headcount"`
	MaxCoverGapMonths  int         `json:"max_cover_gap_months"`
	MaxClaimsInHistory int         `json:"max_claims_in_history"`
	ForbiddenPairs     [][2]string `json:"forbidden_pairs"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseTariff parses and validates a JSON tariff book.
func ParseTariff(data []byte) (*rating.TariffBook, error) {
	var tj TariffJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return nil, fmt.Errorf("failed to parse tariff JSON: %w", err)
	}
	return FromJSON(tj)
}

// FromJSON converts TariffJSON to a validated rating.TariffBook.
func FromJSON(tj TariffJSON) (*rating.TariffBook, error) {
	book := &rating.TariffBook{
		Version:     tj.Version,
		SharePolicy: parseSharePolicy(tj.SharePolicy),
		Activities:  make(map[string]rating.ActivityProfile, len(tj.Activities)),
	}

	for _, aj := range tj.Activities {
		if aj.Code == "" {
			return nil, fmt.Errorf("activity profile with empty code")
		}
		book.Activities[aj.Code] = rating.ActivityProfile{
			Code:           aj.Code,
			Label:          aj.Label,
			BaseRate:       rating.Rate(aj.BaseRate),
			MinimumPremium: rating.Rate(aj.MinimumPremium),
			Breakpoint:     rating.Rate(aj.Breakpoint),
			DegressiveRate: rating.Rate(aj.DegressiveRate),
			ReferenceCA:    rating.Rate(aj.ReferenceCA),
		}
	}

	book.Majorations = rating.MajorationBands{
		CompanyAgeYears:      intBands(tj.Majorations.CompanyAgeYears),
		ExperienceYears:      intBands(tj.Majorations.ExperienceYears),
		ContinuousCoverYears: intBands(tj.Majorations.ContinuousCoverYears),
		QualifiedDiscount:    rating.Rate(tj.Majorations.QualifiedDiscount),
		DefaultingSurcharge:  rating.Rate(tj.Majorations.DefaultingSurcharge),
		GapOver12Surcharge:   rating.Rate(tj.Majorations.GapOver12Surcharge),
		InactivitySurcharge:  rating.Rate(tj.Majorations.InactivitySurcharge),
		ClaimsFreeDiscount:   rating.Rate(tj.Majorations.ClaimsFreeDiscount),
		NoBalanceSheetLoad:   rating.Rate(tj.Majorations.NoBalanceSheetLoad),
		MinMultiplier:        rateOr(tj.Majorations.MinMultiplier, "0.10"),
	}

	coeffs := make([][][]decimal.Decimal, len(tj.Reprise.Coefficients))
	for i, plane := range tj.Reprise.Coefficients {
		coeffs[i] = make([][]decimal.Decimal, len(plane))
		for j, row := range plane {
			coeffs[i][j] = make([]decimal.Decimal, len(row))
			for k, cell := range row {
				coeffs[i][j][k] = rating.Rate(cell)
			}
		}
	}
	book.Reprise = rating.RepriseGrid{
		LookbackYears:  tj.Reprise.LookbackYears,
		SeniorityBands: intBands(tj.Reprise.SeniorityBands),
		FrequencyBands: decBands(tj.Reprise.FrequencyBands),
		RatioBands:     decBands(tj.Reprise.RatioBands),
		Coefficients:   coeffs,
		YearWeights:    rates(tj.Reprise.YearWeights),
		TechnicalRates: rates(tj.Reprise.TechnicalRates),
	}

	fractionRates := make(map[rating.BillingFrequency]decimal.Decimal, len(tj.Charges.FractionRates))
	for freq, rate := range tj.Charges.FractionRates {
		fractionRates[rating.BillingFrequency(freq)] = rating.Rate(rate)
	}
	book.Charges = rating.ChargeRates{
		LegalProtectionPremium: rating.Rate(tj.Charges.LegalProtectionPremium),
		LegalProtectionTaxRate: rating.Rate(tj.Charges.LegalProtectionTaxRate),
		ManagementFee:          rating.Rate(tj.Charges.ManagementFee),
		InsuranceTaxRate:       rating.Rate(tj.Charges.InsuranceTaxRate),
		FractionRates:          fractionRates,
	}

	book.Eligibility = rating.EligibilityBounds{
		MaxTurnover:        rating.Rate(tj.Eligibility.MaxTurnover),
		MaxHeadcount:       rating.Rate(tj.Eligibility.MaxHeadcount),
		MaxCoverGapMonths:  tj.Eligibility.MaxCoverGapMonths,
		MaxClaimsInHistory: tj.Eligibility.MaxClaimsInHistory,
		ForbiddenPairs:     tj.Eligibility.ForbiddenPairs,
	}

	if err := book.Validate(); err != nil {
		return nil, err
	}
	return book, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseSharePolicy(s string) rating.SharePolicy {
	switch s {
	case "exact_100":
		return rating.SharesExact100
	default:
		return rating.SharesAtMost100
	}
}

func rateOr(s, fallback string) decimal.Decimal {
	if s == "" {
		return rating.Rate(fallback)
	}
	return rating.Rate(s)
}

func rates(ss []string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(ss))
	for i, s := range ss {
		out[i] = rating.Rate(s)
	}
	return out
}

func intBands(bands []BandJSON) []rating.IntBand {
	out := make([]rating.IntBand, len(bands))
	for i, b := range bands {
		upTo, err := b.UpTo.Int64()
		if err != nil {
			upTo = -1
		}
		out[i] = rating.IntBand{UpTo: int(upTo), Value: rating.Rate(b.Value)}
	}
	return out
}

func decBands(bands []BandJSON) []rating.Band {
	out := make([]rating.Band, len(bands))
	for i, b := range bands {
		out[i] = rating.Band{UpTo: rating.Rate(b.UpTo.String()), Value: rating.Rate(b.Value)}
	}
	return out
}
