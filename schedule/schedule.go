/*
Package schedule generates the payment schedule (échéancier) of a quote.

PURPOSE:
  Prorates the aggregate premium totals into dated installments according
  to the billing frequency and the policy's effective date, crossing
  calendar-year boundaries as needed. The generator is pure and callable
  standalone: the re-derivation path of the rating engine calls it again
  with updated totals and the original start date and frequency.

ALGORITHM:
  One contract year is split into 12/4/2/1 equal sub-periods for
  monthly/quarterly/semi-annual/annual billing. Each sub-period carries a
  due date (its first day), a period start and a period end. Every charge
  category's annual total is apportioned per installment as
  round(total/n, 2), with the FIRST installment of each contract year
  absorbing the division remainder, so each category column sums exactly
  to its aggregate.

RECONCILIATION:
  Generate re-sums every column after allocation and fails loudly
  (ErrReconciliation) if any category or the TTC column drifts from its
  aggregate by more than one cent per installment. Cents are never
  silently dropped.

SEE ALSO:
  - rating/engine.go: builds the Totals and embeds the Echeancier
  - rating/patch.go: regenerates the schedule after a manual edit
*/
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrReconciliation is returned when the apportioned installments cannot
// reproduce the aggregate totals within tolerance.
var ErrReconciliation = errors.New("schedule does not reconcile with aggregate totals")

// ReconciliationError names the category and drift that failed.
type ReconciliationError struct {
	Category string
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("category %s: installments sum to %s, aggregate is %s",
		e.Category, e.Actual, e.Expected)
}

func (e *ReconciliationError) Unwrap() error { return ErrReconciliation }

// =============================================================================
// INPUT / OUTPUT TYPES
// =============================================================================

// Frequency mirrors rating.BillingFrequency without importing it; the two
// packages stay independently usable.
type Frequency string

const (
	Annual     Frequency = "annuelle"
	SemiAnnual Frequency = "semestrielle"
	Quarterly  Frequency = "trimestrielle"
	Monthly    Frequency = "mensuelle"
)

// InstallmentsPerYear returns 12/4/2/1; unknown frequencies are annual.
func (f Frequency) InstallmentsPerYear() int {
	switch f {
	case Monthly:
		return 12
	case Quarterly:
		return 4
	case SemiAnnual:
		return 2
	default:
		return 1
	}
}

// Totals carries the ANNUAL amount of each charge category. The TTC total
// must equal the sum of the category columns; Generate verifies it.
type Totals struct {
	PrimeHT             decimal.Decimal `json:"primeHT"`
	ProtectionJuridique decimal.Decimal `json:"protectionJuridique"`
	FraisFractionnement decimal.Decimal `json:"fraisFractionnement"`
	FraisGestion        decimal.Decimal `json:"fraisGestion"`
	ReprisePasse        decimal.Decimal `json:"reprisePasse"`
	Taxe                decimal.Decimal `json:"taxe"`
	TotalTTC            decimal.Decimal `json:"totalTTC"`
}

// Spec is the standalone input of the generator.
type Spec struct {
	Start     time.Time `json:"dateEffet"`
	Years     int       `json:"anneesContrat"` // >= 1
	Frequency Frequency `json:"frequence"`
	Totals    Totals    `json:"totaux"`
}

// Echeance is one dated installment with its per-category apportionment.
type Echeance struct {
	DueDate     time.Time `json:"dateEcheance"`
	PeriodStart time.Time `json:"debutPeriode"`
	PeriodEnd   time.Time `json:"finPeriode"`
	PolicyYear  int       `json:"anneeContrat"` // 1-based, for year grouping

	PrimeHT             decimal.Decimal `json:"primeHT"`
	ProtectionJuridique decimal.Decimal `json:"protectionJuridique"`
	FraisFractionnement decimal.Decimal `json:"fraisFractionnement"`
	FraisGestion        decimal.Decimal `json:"fraisGestion"`
	ReprisePasse        decimal.Decimal `json:"reprisePasse"`
	Taxe                decimal.Decimal `json:"taxe"`

	TotalHT  decimal.Decimal `json:"totalHT"`
	TotalTTC decimal.Decimal `json:"totalTTC"`
}

// Echeancier is the generated schedule.
type Echeancier struct {
	Echeances []Echeance `json:"echeances"`
}

// =============================================================================
// GENERATOR
// =============================================================================

// allocate splits an annual total into n cent-rounded parts whose sum is
// exactly the total: parts 2..n get round(total/n), the first part takes
// the remainder.
func allocate(total decimal.Decimal, n int) []decimal.Decimal {
	parts := make([]decimal.Decimal, n)
	share := total.Div(decimal.NewFromInt(int64(n))).Round(2)
	rest := total
	for i := n - 1; i >= 1; i-- {
		parts[i] = share
		rest = rest.Sub(share)
	}
	parts[0] = rest.Round(2)
	return parts
}

// Generate builds the échéancier for the given spec.
func Generate(spec Spec) (*Echeancier, error) {
	years := spec.Years
	if years < 1 {
		years = 1
	}
	perYear := spec.Frequency.InstallmentsPerYear()
	monthsPerPeriod := 12 / perYear

	// Per-installment apportionment of every category, per contract year.
	primes := allocate(spec.Totals.PrimeHT, perYear)
	pjs := allocate(spec.Totals.ProtectionJuridique, perYear)
	fracs := allocate(spec.Totals.FraisFractionnement, perYear)
	gestions := allocate(spec.Totals.FraisGestion, perYear)
	reprises := allocate(spec.Totals.ReprisePasse, perYear)
	taxes := allocate(spec.Totals.Taxe, perYear)

	ech := &Echeancier{}
	for year := 0; year < years; year++ {
		for i := 0; i < perYear; i++ {
			start := spec.Start.AddDate(year, i*monthsPerPeriod, 0)
			end := spec.Start.AddDate(year, (i+1)*monthsPerPeriod, 0).AddDate(0, 0, -1)

			e := Echeance{
				DueDate:             start,
				PeriodStart:         start,
				PeriodEnd:           end,
				PolicyYear:          year + 1,
				PrimeHT:             primes[i],
				ProtectionJuridique: pjs[i],
				FraisFractionnement: fracs[i],
				FraisGestion:        gestions[i],
				ReprisePasse:        reprises[i],
				Taxe:                taxes[i],
			}
			e.TotalHT = e.PrimeHT.Add(e.ProtectionJuridique).Add(e.FraisFractionnement).
				Add(e.FraisGestion).Add(e.ReprisePasse)
			e.TotalTTC = e.TotalHT.Add(e.Taxe)
			ech.Echeances = append(ech.Echeances, e)
		}
	}

	if err := reconcile(spec, ech, years); err != nil {
		return nil, err
	}
	return ech, nil
}

// reconcile verifies every category column and the TTC column against the
// aggregate, within one cent per installment.
func reconcile(spec Spec, ech *Echeancier, years int) error {
	n := len(ech.Echeances)
	tolerance := decimal.New(1, -2).Mul(decimal.NewFromInt(int64(n)))
	yearsDec := decimal.NewFromInt(int64(years))

	sums := map[string][2]decimal.Decimal{
		"primeHT":             {sumOf(ech, func(e Echeance) decimal.Decimal { return e.PrimeHT }), spec.Totals.PrimeHT},
		"protectionJuridique": {sumOf(ech, func(e Echeance) decimal.Decimal { return e.ProtectionJuridique }), spec.Totals.ProtectionJuridique},
		"fraisFractionnement": {sumOf(ech, func(e Echeance) decimal.Decimal { return e.FraisFractionnement }), spec.Totals.FraisFractionnement},
		"fraisGestion":        {sumOf(ech, func(e Echeance) decimal.Decimal { return e.FraisGestion }), spec.Totals.FraisGestion},
		"reprisePasse":        {sumOf(ech, func(e Echeance) decimal.Decimal { return e.ReprisePasse }), spec.Totals.ReprisePasse},
		"taxe":                {sumOf(ech, func(e Echeance) decimal.Decimal { return e.Taxe }), spec.Totals.Taxe},
		"totalTTC":            {sumOf(ech, func(e Echeance) decimal.Decimal { return e.TotalTTC }), spec.Totals.TotalTTC},
	}

	for category, pair := range sums {
		expected := pair[1].Mul(yearsDec)
		if pair[0].Sub(expected).Abs().GreaterThan(tolerance) {
			return &ReconciliationError{Category: category, Expected: expected, Actual: pair[0]}
		}
	}
	return nil
}

func sumOf(ech *Echeancier, pick func(Echeance) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, e := range ech.Echeances {
		total = total.Add(pick(e))
	}
	return total
}
