/*
Package rating implements the decennial-liability (RCD) premium rating engine.

PURPOSE:
  This package turns a declared-activity profile (turnover, headcount,
  activity mix, experience, claims history, prior-insurer status) into a
  fully itemized premium, an optional claims-history loading ("reprise du
  passé") and the inputs of a prorated payment schedule. The computation is
  pure: no I/O, no clock reads beyond the supplied effective date, no shared
  state between invocations.

KEY CONCEPTS IN THIS FILE (types.go):
  - RatingInput: the canonical, strongly-typed input of one rating call
  - ActivityShare / LossHistoryEntry: the two structured sub-lists
  - BillingFrequency / PriorInsurerStatus: closed enumerations
  - Cents: the single rounding boundary for published monetary fields

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every monetary amount and rate
  2. Purity: Compute(input) depends only on input + the injected TariffBook
  3. Refusal is a result: underwriting refusal is never an error
  4. Type safety: enumerations are typed strings, never bare constants

USAGE:
  engine := rating.NewEngine(book)
  result, err := engine.Compute(input)
  if err != nil { ... }          // validation failure
  if result.Refus { ... }        // underwriting refusal, terminal
  _ = result.TotalTTC

SEE ALSO:
  - engine.go: Compute and aggregation
  - tariff.go: the injectable TariffBook configuration
  - patch.go: re-derivation after a manual edit
*/
package rating

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY HELPERS - decimal everywhere, cents at the publication boundary
// =============================================================================

// Cents rounds a decimal to two places, half up. All monetary fields that
// leave the engine go through this; intermediate arithmetic stays unrounded.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Rate builds a decimal rate from a string literal. Invalid literals map to
// zero, which keeps tariff-book defaults total.
func Rate(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// BillingFrequency selects how the annual premium is fractioned into
// installments.
type BillingFrequency string

const (
	FreqAnnual     BillingFrequency = "annuelle"
	FreqSemiAnnual BillingFrequency = "semestrielle"
	FreqQuarterly  BillingFrequency = "trimestrielle"
	FreqMonthly    BillingFrequency = "mensuelle"
)

// InstallmentsPerYear returns how many installments one contract year is
// split into. Unknown frequencies fall back to annual.
func (f BillingFrequency) InstallmentsPerYear() int {
	switch f {
	case FreqMonthly:
		return 12
	case FreqQuarterly:
		return 4
	case FreqSemiAnnual:
		return 2
	default:
		return 1
	}
}

// PriorInsurerStatus describes the relationship with the previous insurer.
type PriorInsurerStatus string

const (
	PriorInsurerCurrent      PriorInsurerStatus = "en_cours"
	PriorInsurerTerminated   PriorInsurerStatus = "resilie"
	PriorInsurerNeverInsured PriorInsurerStatus = "jamais_assure"
	PriorInsurerDefaulting   PriorInsurerStatus = "assureur_defaillant"
)

// =============================================================================
// RATING INPUT - canonical, fully typed
// =============================================================================

// ActivityShare is one declared activity and its share of the turnover.
type ActivityShare struct {
	Code         string          `json:"code"`
	SharePercent decimal.Decimal `json:"caSharePercent"` // 0..100
}

// LossHistoryEntry is one historical year of claims.
type LossHistoryEntry struct {
	Year      int             `json:"annee"`
	NumClaims int             `json:"nombreSinistres"`
	TotalCost decimal.Decimal `json:"coutTotal"`
}

// RatingInput is the canonical input of one rating call. It is produced by
// the Normalizer from a loosely-typed form submission, or built directly by
// callers that already hold typed data.
type RatingInput struct {
	// Declared figures
	Turnover  decimal.Decimal `json:"caDeclare"`
	Headcount decimal.Decimal `json:"effectifETP"`

	// Activity mix: non-empty, at most MaxActivities entries
	Activities []ActivityShare `json:"activites"`

	// Company profile
	CreationDate       time.Time `json:"dateCreation"`
	YearsExperience    int       `json:"anneeExperience"`
	DirectorExperience int       `json:"experienceDirigeant"`
	Qualified          bool      `json:"qualif"`

	// Prior cover
	PriorInsurer         string             `json:"assureurPrecedent"`
	PriorInsurerStatus   PriorInsurerStatus `json:"statutAssureurPrecedent"`
	ContinuousCoverYears int                `json:"nombreAnneeAssuranceContinue"`
	PriorCoverEnd        time.Time          `json:"finCouverturePrecedente"`
	InactiveOver12Months bool               `json:"sansActiviteDepuisPlusDe12Mois"`

	// Claims history (0..5 entries) and its opt-in flag
	LossHistory        []LossHistoryEntry `json:"sinistralite"`
	ClaimsLoadingOptIn bool               `json:"reprisePasseDemandee"`

	// Contract
	EffectiveDate       time.Time        `json:"dateEffet"`
	ContractYears       int              `json:"anneesContrat"`
	Frequency           BillingFrequency `json:"frequenceFacturation"`
	LegalProtection     bool             `json:"protectionJuridiqueSouscrite"`
	BalanceSheetMissing bool             `json:"nonFournitureBilanN_1"`
}

// MaxActivities bounds the declared activity list (the quoting UI exposes
// three slots).
const MaxActivities = 3

// CompanyAgeYears returns full years between creation date and the
// effective date, never negative.
func (in RatingInput) CompanyAgeYears() int {
	if in.CreationDate.IsZero() || in.CreationDate.After(in.EffectiveDate) {
		return 0
	}
	years := in.EffectiveDate.Year() - in.CreationDate.Year()
	anniversary := in.CreationDate.AddDate(years, 0, 0)
	if anniversary.After(in.EffectiveDate) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ExperienceYears returns the professional experience backing the risk:
// the company's declared years, or the director's when higher (a young
// company run by a seasoned director rates on the director's record).
func (in RatingInput) ExperienceYears() int {
	if in.DirectorExperience > in.YearsExperience {
		return in.DirectorExperience
	}
	return in.YearsExperience
}

// CoverGapMonths returns whole months between the end of prior cover and
// the effective date. Zero when there was no prior cover or no gap.
func (in RatingInput) CoverGapMonths() int {
	if in.PriorCoverEnd.IsZero() || !in.PriorCoverEnd.Before(in.EffectiveDate) {
		return 0
	}
	months := 0
	cursor := in.PriorCoverEnd
	for cursor.AddDate(0, 1, 0).Before(in.EffectiveDate) || cursor.AddDate(0, 1, 0).Equal(in.EffectiveDate) {
		cursor = cursor.AddDate(0, 1, 0)
		months++
	}
	return months
}

// ClaimsFreeLastFiveYears reports whether the supplied loss history shows
// no claim. An empty history counts as claims-free only when the company
// was actually insured (never-insured companies get the neutral factor).
func (in RatingInput) ClaimsFreeLastFiveYears() bool {
	if in.PriorInsurerStatus == PriorInsurerNeverInsured {
		return false
	}
	for _, e := range in.LossHistory {
		if e.NumClaims > 0 {
			return false
		}
	}
	return true
}

// TotalSharePercent sums the declared activity shares.
func (in RatingInput) TotalSharePercent() decimal.Decimal {
	total := decimal.Zero
	for _, a := range in.Activities {
		total = total.Add(a.SharePercent)
	}
	return total
}
