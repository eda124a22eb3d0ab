/*
tariff.go - Injectable tariff book and the activity rate table

PURPOSE:
  The tariff book is the business configuration of the engine: per-activity
  tariff profiles, majoration bands, claims-history grids, charge rates and
  underwriting bounds. The numeric content is proprietary and versioned; the
  engine only defines its shape and the composition rules. Books are built
  from JSON by the factory package or assembled directly in code.

KEY CONCEPTS:
  - ActivityProfile: tiered/degressive tariff for one activity code
  - ActivityRatingRow: the computed per-activity premium row (returnTab)
  - Band: ordered threshold -> rate mapping used by majorations and buckets

RATE TABLE ALGORITHM (one activity):
  caCalculee = caDeclare x sharePercent/100
  premium    = baseRate x min(ca, breakpoint)
             + degressiveRate x max(0, ca - breakpoint)
  premium    = max(premium, minimumPremium)  when the share is non-zero
  A zero share yields a zero-weighted row that still appears in returnTab.

SEE ALSO:
  - factory/tariff.go: JSON parsing and the built-in sample book
  - majoration.go: consumes the majoration bands
  - reprise.go: consumes the claims-history grids
*/
package rating

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TARIFF BOOK - versioned business configuration
// =============================================================================

// SharePolicy selects how activity share totals are validated.
type SharePolicy string

const (
	// SharesExact100 requires share percentages to sum to exactly 100.
	SharesExact100 SharePolicy = "exact_100"

	// SharesAtMost100 requires the sum to stay in (0, 100].
	SharesAtMost100 SharePolicy = "at_most_100"
)

// Band maps an upper bound to a value. Bands are evaluated in order: the
// first band whose UpTo is >= the probed value wins; the last band is the
// catch-all (UpTo < 0 means unbounded).
type Band struct {
	UpTo  decimal.Decimal
	Value decimal.Decimal
}

// PickBand returns the value of the first band covering v.
func PickBand(bands []Band, v decimal.Decimal) decimal.Decimal {
	for _, b := range bands {
		if b.UpTo.IsNegative() || v.LessThanOrEqual(b.UpTo) {
			return b.Value
		}
	}
	return decimal.Zero
}

// IntBand is Band over integer inputs (years, counts).
type IntBand struct {
	UpTo  int // -1 = unbounded
	Value decimal.Decimal
}

// PickIntBand returns the value of the first band covering n.
func PickIntBand(bands []IntBand, n int) decimal.Decimal {
	for _, b := range bands {
		if b.UpTo < 0 || n <= b.UpTo {
			return b.Value
		}
	}
	return decimal.Zero
}

// ActivityProfile is the tariff of one activity code.
type ActivityProfile struct {
	Code  string
	Label string

	BaseRate       decimal.Decimal // applied up to the breakpoint
	MinimumPremium decimal.Decimal // per-activity floor
	Breakpoint     decimal.Decimal // degressive turnover threshold (e.g. 400k)
	DegressiveRate decimal.Decimal // applied beyond the breakpoint
	ReferenceCA    decimal.Decimal // turnover used for the reference premium
}

// MajorationBands holds the banded thresholds of every risk factor.
// Values are signed percentages expressed as decimals (-0.05 = 5% discount).
type MajorationBands struct {
	CompanyAgeYears      []IntBand // keyed by full company age in years
	ExperienceYears      []IntBand // keyed by years of professional experience
	ContinuousCoverYears []IntBand // keyed by continuous insured years

	QualifiedDiscount   decimal.Decimal // applied when Qualified
	DefaultingSurcharge decimal.Decimal // applied when prior insurer defaulted
	GapOver12Surcharge  decimal.Decimal // cover gap beyond 12 months
	InactivitySurcharge decimal.Decimal // dormant > 12 months without closure
	ClaimsFreeDiscount  decimal.Decimal // no claim over the lookback window
	NoBalanceSheetLoad  decimal.Decimal // balance sheet N-1 not furnished

	// MinMultiplier floors totalMajorations so discounts can never drive the
	// multiplier to zero or below.
	MinMultiplier decimal.Decimal
}

// RepriseGrid configures the claims-history loader.
type RepriseGrid struct {
	LookbackYears int // window size, 5 in the observed product

	// Ordinal bucketing thresholds
	SeniorityBands []IntBand // company age -> category (0,1,2)
	FrequencyBands []Band    // claims/year -> category
	RatioBands     []Band    // loss ratio -> category

	// Coefficients[seniority][frequency][ratio] -> tauxMajoration
	Coefficients [][][]decimal.Decimal

	// Per-year recency weights, most recent year first, percentages summing
	// to 100 over a full window. Fewer observed years renormalize.
	YearWeights []decimal.Decimal

	// Technical rate per year offset, most recent year first.
	TechnicalRates []decimal.Decimal
}

// ChargeRates configures the ancillary charges calculator.
type ChargeRates struct {
	LegalProtectionPremium decimal.Decimal // flat HT amount when opted in
	LegalProtectionTaxRate decimal.Decimal
	ManagementFee          decimal.Decimal // flat
	InsuranceTaxRate       decimal.Decimal // applied to primeTotal

	// FractionRates: surcharge on primeTotal per billing frequency.
	// Annual billing carries no surcharge.
	FractionRates map[BillingFrequency]decimal.Decimal
}

// EligibilityBounds configures the hard-stop underwriting rules.
type EligibilityBounds struct {
	MaxTurnover        decimal.Decimal
	MaxHeadcount       decimal.Decimal
	MaxCoverGapMonths  int
	MaxClaimsInHistory int

	// ForbiddenPairs lists activity-code combinations that cannot be
	// written together.
	ForbiddenPairs [][2]string
}

// TariffBook bundles the whole business configuration, versioned.
type TariffBook struct {
	Version     string
	SharePolicy SharePolicy

	Activities  map[string]ActivityProfile
	Majorations MajorationBands
	Reprise     RepriseGrid
	Charges     ChargeRates
	Eligibility EligibilityBounds
}

// Validate performs load-time checks so a malformed book fails at startup,
// not mid-quote.
func (b *TariffBook) Validate() error {
	if len(b.Activities) == 0 {
		return fmt.Errorf("%w: no activity profiles", ErrTariffBookInvalid)
	}
	for code, p := range b.Activities {
		if p.BaseRate.IsNegative() || p.MinimumPremium.IsNegative() {
			return fmt.Errorf("%w: activity %s has negative tariff figures", ErrTariffBookInvalid, code)
		}
	}
	if b.Majorations.MinMultiplier.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: minMultiplier must be > 0", ErrTariffBookInvalid)
	}
	if b.Reprise.LookbackYears <= 0 || b.Reprise.LookbackYears > len(b.Reprise.YearWeights) {
		return fmt.Errorf("%w: reprise lookback exceeds year weights", ErrTariffBookInvalid)
	}
	if len(b.Reprise.TechnicalRates) < b.Reprise.LookbackYears {
		return fmt.Errorf("%w: reprise technical rates shorter than lookback", ErrTariffBookInvalid)
	}
	// The loader renormalizes over the weight sum of the present years,
	// always a prefix of the lookback window; every prefix sum must be
	// positive or the renormalization divides by zero.
	weightSum := decimal.Zero
	for i := 0; i < b.Reprise.LookbackYears; i++ {
		w := b.Reprise.YearWeights[i]
		if w.IsNegative() {
			return fmt.Errorf("%w: negative reprise year weight", ErrTariffBookInvalid)
		}
		weightSum = weightSum.Add(w)
		if !weightSum.IsPositive() {
			return fmt.Errorf("%w: reprise year weights sum to zero over the first %d year(s)", ErrTariffBookInvalid, i+1)
		}
	}
	if b.Charges.InsuranceTaxRate.IsNegative() {
		return fmt.Errorf("%w: negative insurance tax rate", ErrTariffBookInvalid)
	}
	switch b.SharePolicy {
	case SharesExact100, SharesAtMost100:
	default:
		return fmt.Errorf("%w: unknown share policy %q", ErrTariffBookInvalid, b.SharePolicy)
	}
	return nil
}

// =============================================================================
// ACTIVITY RATE TABLE
// =============================================================================

// ActivityRatingRow is one computed line of returnTab.
type ActivityRatingRow struct {
	Code             string          `json:"code"`
	Label            string          `json:"libelle"`
	SharePercent     decimal.Decimal `json:"partCA"`
	CACalculee       decimal.Decimal `json:"caCalculee"`
	BaseRate         decimal.Decimal `json:"tauxBase"`
	MinimumPremium   decimal.Decimal `json:"primeMinimum"`
	Breakpoint       decimal.Decimal `json:"seuilDegressif"`
	DegressiveRate   decimal.Decimal `json:"tauxDegressif"`
	ReferencePremium decimal.Decimal `json:"primeReference"`
	PremiumAtRef     decimal.Decimal `json:"primeAuCent"`  // premium at 100% reference CA
	Premium          decimal.Decimal `json:"primeFinale"`  // floored at MinimumPremium
}

// tieredPremium applies the base rate up to the breakpoint and the
// degressive rate beyond it. No minimum floor here.
func tieredPremium(p ActivityProfile, ca decimal.Decimal) decimal.Decimal {
	if ca.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if p.Breakpoint.IsPositive() && ca.GreaterThan(p.Breakpoint) {
		below := p.BaseRate.Mul(p.Breakpoint)
		above := p.DegressiveRate.Mul(ca.Sub(p.Breakpoint))
		return below.Add(above)
	}
	return p.BaseRate.Mul(ca)
}

// RateActivity computes the premium row for one declared activity share.
func RateActivity(p ActivityProfile, turnover decimal.Decimal, share ActivityShare) ActivityRatingRow {
	ca := turnover.Mul(share.SharePercent).Div(hundred)

	row := ActivityRatingRow{
		Code:           p.Code,
		Label:          p.Label,
		SharePercent:   share.SharePercent,
		CACalculee:     Cents(ca),
		BaseRate:       p.BaseRate,
		MinimumPremium: p.MinimumPremium,
		Breakpoint:     p.Breakpoint,
		DegressiveRate: p.DegressiveRate,
	}

	row.ReferencePremium = Cents(tieredPremium(p, p.ReferenceCA))
	row.PremiumAtRef = row.ReferencePremium

	// A zero share is a zero-weighted row kept for transparency; a non-zero
	// share with zero turnover still pays the activity floor.
	if share.SharePercent.IsZero() {
		row.Premium = decimal.Zero
		return row
	}

	premium := tieredPremium(p, ca)
	if premium.LessThan(p.MinimumPremium) {
		premium = p.MinimumPremium
	}
	row.Premium = Cents(premium)
	return row
}
