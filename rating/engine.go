/*
engine.go - Compute: the single entry point, and the aggregate result

PURPOSE:
  Wires the components together in the fixed order:

    validate -> eligibility gate -> activity rate table ->
    majoration composer -> claims-history loader -> ancillary charges ->
    aggregate -> schedule generation

  A refusal short-circuits after the gate: the returned result carries
  Refus + RefusRaison and nothing else. Compute is deterministic and
  idempotent; calling it twice with the same input yields equal results.

AGGREGATE IDENTITIES (also asserted by tests):
  totalMajorations = 1 + sum(majorations)          (floored)
  primeTotal       = primeHTSansMajorations x totalMajorations
  autres.total     = taxe + fraisFractionnement + protectionJuridique
  totalTTC         = primeTotal + autres.total + fraisGestion
                   + primeReprisePasseTTC (when present)

SEE ALSO:
  - patch.go: re-derivation after a manual edit of a computed result
  - schedule/schedule.go: the embedded échéancier
*/
package rating

import (
	"github.com/shopspring/decimal"

	"github.com/warp/rating-engine/schedule"
)

// =============================================================================
// CALCULATION RESULT
// =============================================================================

// CalculationResult is the consolidated output of one rating call. Field
// names follow the quoting product's published contract.
type CalculationResult struct {
	TariffVersion string `json:"versionTarif"`

	// Terminal refusal branch
	Refus       bool   `json:"refus"`
	RefusRaison string `json:"refusReason,omitempty"`

	// Accepted branch
	CACalculee             decimal.Decimal     `json:"caCalculee"`
	PminiHT                decimal.Decimal     `json:"PminiHT"`
	PrimeAuDela            decimal.Decimal     `json:"primeAuDela"`
	PrimeHTSansMajorations decimal.Decimal     `json:"PrimeHTSansMajorations"`
	TotalMajorations       decimal.Decimal     `json:"totalMajorations"`
	PrimeTotal             decimal.Decimal     `json:"primeTotal"`
	Majorations            MajorationSet       `json:"majorations,omitempty"`
	ReturnTab              []ActivityRatingRow `json:"returnTab,omitempty"`

	// The opt-in flag is retained so charge re-derivation never has to
	// infer it from a (possibly edited) monetary amount.
	ProtectionJuridique          decimal.Decimal `json:"protectionJuridique"`
	ProtectionJuridiqueSouscrite bool            `json:"protectionJuridiqueSouscrite"`
	FraisGestion                 decimal.Decimal `json:"fraisGestion"`
	Autres                       Autres          `json:"autres"`

	// Monetary effect of the nonFournitureBilanN_1 factor, informational:
	// the surcharge itself flows through totalMajorations.
	PrimeAggravationBilanN1NonFourni decimal.Decimal `json:"primeAggravationBilanN_1NonFourni"`

	ReprisePasseResult *ReprisePasseResult `json:"reprisePasseResult,omitempty"`

	TotalTTC decimal.Decimal `json:"totalTTC"`

	// Retained so the schedule can be regenerated standalone (patch path).
	DateEffet     string               `json:"dateEffet"`
	AnneesContrat int                  `json:"anneesContrat"`
	Frequence     BillingFrequency     `json:"frequenceFacturation"`
	Echeancier    *schedule.Echeancier `json:"echeancier,omitempty"`
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine binds a validated tariff book. Engines are cheap, immutable and
// safe for concurrent use; each Compute call owns its working state.
type Engine struct {
	book *TariffBook
}

// NewEngine validates the book once and returns a ready engine.
func NewEngine(book *TariffBook) (*Engine, error) {
	if err := book.Validate(); err != nil {
		return nil, err
	}
	return &Engine{book: book}, nil
}

// Book exposes the bound tariff book (read-only by convention).
func (e *Engine) Book() *TariffBook { return e.book }

// Compute rates one normalized input. Validation failures return an error
// and no result; underwriting refusal returns a terminal result.
func (e *Engine) Compute(in RatingInput) (*CalculationResult, error) {
	if err := e.validateInput(in); err != nil {
		return nil, err
	}

	result := &CalculationResult{
		TariffVersion: e.book.Version,
		DateEffet:     in.EffectiveDate.Format("2006-01-02"),
		AnneesContrat: contractYears(in),
		Frequence:     in.Frequency,
	}

	// Eligibility gate: refusal short-circuits everything downstream.
	if refusal := CheckEligibility(in, e.book.Eligibility); refusal != nil {
		result.Refus = true
		result.RefusRaison = refusal.Reason
		return result, nil
	}

	// Activity rate table.
	caCalculee := decimal.Zero
	pMini := decimal.Zero
	primeBase := decimal.Zero
	primeAuDela := decimal.Zero
	for _, share := range in.Activities {
		profile := e.book.Activities[share.Code]
		row := RateActivity(profile, in.Turnover, share)
		result.ReturnTab = append(result.ReturnTab, row)

		caCalculee = caCalculee.Add(row.CACalculee)
		if !share.SharePercent.IsZero() {
			pMini = pMini.Add(profile.MinimumPremium)
			primeBase = primeBase.Add(row.Premium)
			if excess := row.Premium.Sub(profile.MinimumPremium); excess.IsPositive() {
				primeAuDela = primeAuDela.Add(excess)
			}
		}
	}
	result.CACalculee = Cents(caCalculee)
	result.PminiHT = Cents(pMini)
	result.PrimeAuDela = Cents(primeAuDela)
	result.PrimeHTSansMajorations = Cents(primeBase)

	// Majoration composer.
	result.Majorations = EvaluateMajorations(in, e.book.Majorations)
	e.recomputePremium(result)

	// Claims-history loader (optional).
	result.ReprisePasseResult = ComputeReprise(
		in, e.book.Reprise,
		result.PrimeHTSansMajorations, result.PrimeTotal,
		e.book.Charges.InsuranceTaxRate,
	)

	// Ancillary charges and the aggregate totals.
	result.ProtectionJuridiqueSouscrite = in.LegalProtection
	e.recomputeCharges(result)
	e.recomputeTotal(result)

	// Schedule generation.
	if err := e.regenerateSchedule(result); err != nil {
		return nil, err
	}
	return result, nil
}

// contractYears defaults to a one-year contract.
func contractYears(in RatingInput) int {
	if in.ContractYears < 1 {
		return 1
	}
	return in.ContractYears
}

// =============================================================================
// RECOMPUTE STEPS - shared between Compute and the patch path
// =============================================================================

// recomputePremium re-derives totalMajorations and primeTotal from the
// retained majoration set and the pre-majoration base.
func (e *Engine) recomputePremium(r *CalculationResult) {
	r.TotalMajorations = r.Majorations.Total(e.book.Majorations.MinMultiplier)
	r.PrimeTotal = Cents(r.PrimeHTSansMajorations.Mul(r.TotalMajorations))
	r.PrimeAggravationBilanN1NonFourni = Cents(
		r.PrimeHTSansMajorations.Mul(r.Majorations[FactorNoBalanceSheet]))
}

// recomputeCharges re-derives every ancillary line item from primeTotal
// and the retained legal-protection opt-in.
func (e *Engine) recomputeCharges(r *CalculationResult) {
	charges := ComputeCharges(e.book.Charges, r.PrimeTotal, r.Frequence, r.ProtectionJuridiqueSouscrite)
	r.ProtectionJuridique = charges.ProtectionJuridique
	r.FraisGestion = charges.FraisGestion
	r.Autres = charges.Autres
}

// recomputeAutresTotal re-rolls autres.total from its three line items,
// used when one of them was edited directly.
func (e *Engine) recomputeAutresTotal(r *CalculationResult) {
	r.Autres.Total = Cents(r.Autres.TaxeAssurance.
		Add(r.Autres.FraisFractionnementPrimeHT).
		Add(r.ProtectionJuridique))
}

// recomputeTotal re-derives totalTTC from its declared dependencies.
func (e *Engine) recomputeTotal(r *CalculationResult) {
	total := r.PrimeTotal.Add(r.Autres.Total).Add(r.FraisGestion)
	if r.ReprisePasseResult != nil {
		total = total.Add(r.ReprisePasseResult.PrimeReprisePasseTTC)
	}
	r.TotalTTC = Cents(total)
}

// regenerateSchedule rebuilds the échéancier wholesale from the current
// totals; the schedule is never patched in place.
func (e *Engine) regenerateSchedule(r *CalculationResult) error {
	start, err := parseISODate("dateEffet", r.DateEffet)
	if err != nil {
		return err
	}

	reprise := decimal.Zero
	if r.ReprisePasseResult != nil {
		reprise = r.ReprisePasseResult.PrimeReprisePasseTTC
	}

	ech, err := schedule.Generate(schedule.Spec{
		Start:     start,
		Years:     r.AnneesContrat,
		Frequency: schedule.Frequency(r.Frequence),
		Totals: schedule.Totals{
			PrimeHT:             r.PrimeTotal,
			ProtectionJuridique: r.ProtectionJuridique,
			FraisFractionnement: r.Autres.FraisFractionnementPrimeHT,
			FraisGestion:        r.FraisGestion,
			ReprisePasse:        reprise,
			Taxe:                r.Autres.TaxeAssurance,
			TotalTTC:            r.TotalTTC,
		},
	})
	if err != nil {
		return err
	}
	r.Echeancier = ech
	return nil
}

// =============================================================================
// INPUT VALIDATION
// =============================================================================

func (e *Engine) validateInput(in RatingInput) error {
	if len(in.Activities) == 0 {
		return &MissingRequiredParameterError{Parameter: "activites"}
	}
	if len(in.Activities) > MaxActivities {
		return &InvalidActivitySharesError{
			Reason: "too many declared activities",
			Total:  in.TotalSharePercent(),
		}
	}
	for _, a := range in.Activities {
		if a.SharePercent.IsNegative() || a.SharePercent.GreaterThan(hundred) {
			return &InvalidActivitySharesError{Reason: "share out of [0,100]", Total: a.SharePercent}
		}
		if _, ok := e.book.Activities[a.Code]; !ok {
			return &InvalidActivityCodeError{Code: a.Code}
		}
	}

	total := in.TotalSharePercent()
	switch e.book.SharePolicy {
	case SharesExact100:
		if !total.Equal(hundred) {
			return &InvalidActivitySharesError{Reason: "shares must sum to exactly 100", Total: total}
		}
	case SharesAtMost100:
		if total.GreaterThan(hundred) || !total.IsPositive() {
			return &InvalidActivitySharesError{Reason: "shares must sum to (0,100]", Total: total}
		}
	}

	if in.Turnover.IsNegative() {
		return &MissingRequiredParameterError{Parameter: "caDeclare"}
	}
	if in.Headcount.IsNegative() {
		return &MissingRequiredParameterError{Parameter: "effectifETP"}
	}
	if in.EffectiveDate.IsZero() {
		return &MissingRequiredParameterError{Parameter: "dateEffet"}
	}
	return nil
}
