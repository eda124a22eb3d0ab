/*
charges.go - Ancillary charges (protection juridique, frais, taxes)

PURPOSE:
  Computes the additive line items that sit next to the risk premium:
  legal-protection premium, management fee, insurance tax and the
  fractionation fee for non-annual billing.

IDENTITIES:
  autres.total = taxeAssurance + fraisFractionnementPrimeHT + protectionJuridique
  totalTTC     = primeTotal + autres.total + fraisGestion
               (+ primeReprisePasseTTC when claims loading applies)

SEE ALSO:
  - tariff.go: ChargeRates configuration
  - engine.go: aggregation into CalculationResult
*/
package rating

import "github.com/shopspring/decimal"

// Autres groups the tax-and-fee line items of the aggregate result.
type Autres struct {
	TaxeAssurance              decimal.Decimal `json:"taxeAssurance"`
	FraisFractionnementPrimeHT decimal.Decimal `json:"fraisFractionnementPrimeHT"`
	ProtectionJuridiqueTTC     decimal.Decimal `json:"protectionJuridiqueTTC"`
	Total                      decimal.Decimal `json:"total"`
}

// AncillaryCharges is the full output of this calculator.
type AncillaryCharges struct {
	ProtectionJuridique decimal.Decimal
	FraisGestion        decimal.Decimal
	Autres              Autres
}

// ComputeCharges derives every ancillary line item from the risk premium,
// the billing frequency and the legal-protection opt-in.
func ComputeCharges(rates ChargeRates, primeTotal decimal.Decimal, freq BillingFrequency, legalProtection bool) AncillaryCharges {
	pj := decimal.Zero
	pjTTC := decimal.Zero
	if legalProtection {
		pj = Cents(rates.LegalProtectionPremium)
		pjTTC = Cents(pj.Mul(one.Add(rates.LegalProtectionTaxRate)))
	}

	taxe := Cents(primeTotal.Mul(rates.InsuranceTaxRate))

	fraisFrac := decimal.Zero
	if rate, ok := rates.FractionRates[freq]; ok && freq != FreqAnnual {
		fraisFrac = Cents(primeTotal.Mul(rate))
	}

	return AncillaryCharges{
		ProtectionJuridique: pj,
		FraisGestion:        Cents(rates.ManagementFee),
		Autres: Autres{
			TaxeAssurance:              taxe,
			FraisFractionnementPrimeHT: fraisFrac,
			ProtectionJuridiqueTTC:     pjTTC,
			Total:                      Cents(taxe.Add(fraisFrac).Add(pj)),
		},
	}
}
