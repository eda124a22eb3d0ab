/*
majoration.go - Risk-factor evaluation and multiplicative composition

PURPOSE:
  Each risk factor is evaluated independently against the normalized input
  and yields a signed percentage (negative = discount, positive = surcharge,
  zero = neutral). The composed multiplier is:

    totalMajorations = 1 + sum(factor values)

  floored at the book's MinMultiplier so no combination of discounts can
  drive the premium to zero or below.

FACTOR KEYS:
  The map keys are the field names the quoting product publishes; they are
  part of the result contract and must not be renamed:

    dateCreation, qualif, anneeExperience, assureurDefaillant,
    nombreAnneeAssuranceContinue, tempsSansActivite12mois,
    absenceDeSinistreSurLes5DernieresAnnees, nonFournitureBilanN_1,
    sansActiviteDepuisPlusDe12MoisSansFermeture

INCREMENTAL RE-DERIVATION:
  Editing one factor in a retained MajorationSet and calling Total() again
  moves the multiplier by exactly the delta of that factor; patch.go relies
  on this.

SEE ALSO:
  - tariff.go: MajorationBands configuration
  - patch.go: majorations.<factor> edit path
*/
package rating

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Factor keys, as published in CalculationResult.Majorations.
const (
	FactorCreationDate    = "dateCreation"
	FactorQualification   = "qualif"
	FactorExperience      = "anneeExperience"
	FactorDefaulting      = "assureurDefaillant"
	FactorContinuousCover = "nombreAnneeAssuranceContinue"
	FactorCoverGap        = "tempsSansActivite12mois"
	FactorClaimsFree      = "absenceDeSinistreSurLes5DernieresAnnees"
	FactorNoBalanceSheet  = "nonFournitureBilanN_1"
	FactorDormant         = "sansActiviteDepuisPlusDe12MoisSansFermeture"
)

// =============================================================================
// MAJORATION SET
// =============================================================================

// MajorationSet maps factor name -> signed percentage (as a decimal, so
// -0.05 means a 5% discount). Every known factor is always present, zero
// when neutral; no factor is ever absent or undefined.
type MajorationSet map[string]decimal.Decimal

// Sum returns the raw signed sum of all factor values.
func (m MajorationSet) Sum() decimal.Decimal {
	// Deterministic iteration keeps decimal operations reproducible.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := decimal.Zero
	for _, k := range keys {
		total = total.Add(m[k])
	}
	return total
}

// Total composes the multiplier: 1 + sum, floored at minMultiplier.
func (m MajorationSet) Total(minMultiplier decimal.Decimal) decimal.Decimal {
	total := one.Add(m.Sum())
	if total.LessThan(minMultiplier) {
		return minMultiplier
	}
	return total
}

// Clone returns an independent copy, used by the patch path so the retained
// result never aliases the edited one.
func (m MajorationSet) Clone() MajorationSet {
	out := make(MajorationSet, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// =============================================================================
// FACTOR EVALUATION
// =============================================================================

// EvaluateMajorations derives every factor from the normalized input and
// the book's bands. The returned set always contains all nine factors.
func EvaluateMajorations(in RatingInput, bands MajorationBands) MajorationSet {
	m := MajorationSet{
		FactorCreationDate:    PickIntBand(bands.CompanyAgeYears, in.CompanyAgeYears()),
		FactorExperience:      PickIntBand(bands.ExperienceYears, in.ExperienceYears()),
		FactorContinuousCover: PickIntBand(bands.ContinuousCoverYears, in.ContinuousCoverYears),
		FactorQualification:   decimal.Zero,
		FactorDefaulting:      decimal.Zero,
		FactorCoverGap:        decimal.Zero,
		FactorClaimsFree:      decimal.Zero,
		FactorNoBalanceSheet:  decimal.Zero,
		FactorDormant:         decimal.Zero,
	}

	if in.Qualified {
		m[FactorQualification] = bands.QualifiedDiscount
	}
	if in.PriorInsurerStatus == PriorInsurerDefaulting {
		m[FactorDefaulting] = bands.DefaultingSurcharge
	}
	if in.CoverGapMonths() > 12 {
		m[FactorCoverGap] = bands.GapOver12Surcharge
	}
	if in.InactiveOver12Months {
		m[FactorDormant] = bands.InactivitySurcharge
	}
	if in.ClaimsFreeLastFiveYears() {
		m[FactorClaimsFree] = bands.ClaimsFreeDiscount
	}
	if in.BalanceSheetMissing {
		m[FactorNoBalanceSheet] = bands.NoBalanceSheetLoad
	}

	return m
}
