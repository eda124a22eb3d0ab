/*
patch.go - Manual-override re-derivation

PURPOSE:
  An operator can edit one leaf field of an already-computed result (one
  majoration factor, or one ancillary charge). Apply re-derives every field
  that is a declared function of the edited one and regenerates the
  schedule wholesale - never a partial patch of it.

DEPENDENCY CHAIN:
  majorations.<factor> -> totalMajorations -> primeTotal
                       -> reprise (primeApresSinistralite scales)
                       -> taxe, fraisFractionnement -> autres.total
                       -> totalTTC -> echeancier
  protectionJuridique  -> autres.total -> totalTTC -> echeancier
  autres.taxeAssurance -> autres.total -> totalTTC -> echeancier
  autres.fraisFractionnementPrimeHT -> autres.total -> totalTTC -> echeancier
  fraisGestion         -> totalTTC -> echeancier

  Direct edits of taxe / fractionnement are terminal overrides: a later
  majoration edit recomputes them from primeTotal again, which is the
  documented behavior (the chain always re-derives downstream of the edit).

RE-ENTRANCY:
  Apply never mutates the input result; it returns a new one. Applying the
  same patch twice yields equal results.

SEE ALSO:
  - engine.go: the recompute steps reused here
  - majoration.go: incremental composition property Apply relies on
*/
package rating

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Apply edits one leaf field of a computed result and re-derives the
// declared dependency chain. The input result is left untouched.
func (e *Engine) Apply(r *CalculationResult, fieldPath string, newValue decimal.Decimal) (*CalculationResult, error) {
	if r.Refus {
		return nil, &UnknownFieldPathError{Path: fieldPath}
	}

	out := cloneResult(r)

	switch {
	case strings.HasPrefix(fieldPath, "majorations."):
		factor := strings.TrimPrefix(fieldPath, "majorations.")
		if _, ok := out.Majorations[factor]; !ok {
			return nil, &UnknownFieldPathError{Path: fieldPath}
		}
		out.Majorations[factor] = newValue
		e.recomputePremium(out)
		e.rescaleReprise(out)
		e.recomputeCharges(out)

	case fieldPath == "protectionJuridique":
		out.ProtectionJuridique = Cents(newValue)
		out.Autres.ProtectionJuridiqueTTC = Cents(
			newValue.Mul(one.Add(e.book.Charges.LegalProtectionTaxRate)))
		e.recomputeAutresTotal(out)

	case fieldPath == "fraisGestion":
		out.FraisGestion = Cents(newValue)

	case fieldPath == "autres.taxeAssurance":
		out.Autres.TaxeAssurance = Cents(newValue)
		e.recomputeAutresTotal(out)

	case fieldPath == "autres.fraisFractionnementPrimeHT":
		out.Autres.FraisFractionnementPrimeHT = Cents(newValue)
		e.recomputeAutresTotal(out)

	default:
		return nil, &UnknownFieldPathError{Path: fieldPath}
	}

	e.recomputeTotal(out)
	if err := e.regenerateSchedule(out); err != nil {
		return nil, err
	}
	return out, nil
}

// rescaleReprise re-derives the claims-history block after primeTotal
// moved: the loading coefficient and categories are functions of the input
// only, so the per-year table simply rescales on the new premium.
func (e *Engine) rescaleReprise(r *CalculationResult) {
	rp := r.ReprisePasseResult
	if rp == nil {
		return
	}

	rp.PrimeApresSinistralite = Cents(r.PrimeTotal.Mul(rp.TauxMajoration))
	rowSum := decimal.Zero
	for i := range rp.Annees {
		row := &rp.Annees[i]
		row.PrimeRepriseAnnee = Cents(
			rp.PrimeApresSinistralite.Mul(row.PourcentageAnnee).Div(hundred).Mul(row.TauxTI))
		rowSum = rowSum.Add(row.PrimeRepriseAnnee)
	}
	rp.PrimeReprisePasseTTC = Cents(rowSum.Mul(one.Add(e.book.Charges.InsuranceTaxRate)))
}

// cloneResult deep-copies the mutable parts of a result so the retained
// copy and the patched copy never alias.
func cloneResult(r *CalculationResult) *CalculationResult {
	out := *r
	out.Majorations = r.Majorations.Clone()

	if r.ReturnTab != nil {
		out.ReturnTab = make([]ActivityRatingRow, len(r.ReturnTab))
		copy(out.ReturnTab, r.ReturnTab)
	}
	if r.ReprisePasseResult != nil {
		rp := *r.ReprisePasseResult
		rp.Annees = make([]RepriseYearRow, len(r.ReprisePasseResult.Annees))
		copy(rp.Annees, r.ReprisePasseResult.Annees)
		out.ReprisePasseResult = &rp
	}
	out.Echeancier = nil // always regenerated
	return &out
}
