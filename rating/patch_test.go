package rating_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rating-engine/rating"
)

// overridableInput rates to totalMajorations = 1.10: two-year-old company
// (+0.10), 5 years experience (0), 1 year continuous cover (0), never
// insured (no claims-free discount), not qualified.
func overridableInput() rating.RatingInput {
	in := acceptedInput()
	in.CreationDate = date(2023, time.June, 1)
	in.YearsExperience = 5
	in.ContinuousCoverYears = 1
	in.PriorInsurerStatus = rating.PriorInsurerNeverInsured
	return in
}

// =============================================================================
// SCENARIO B - manual override of one majoration factor
// =============================================================================

func TestApply_MajorationEdit_RederivesChain(t *testing.T) {
	// GIVEN: a computed result with totalMajorations = 1.10
	// WHEN:  an operator sets majorations.qualif to -0.05
	// THEN:  totalMajorations = 1.05, primeTotal follows, and the schedule
	//        is regenerated to sum to the new totalTTC

	engine := newTestEngine(t)
	result, err := engine.Compute(overridableInput())
	require.NoError(t, err)
	require.True(t, result.TotalMajorations.Equal(dec("1.10")),
		"baseline totalMajorations = %s, want 1.10", result.TotalMajorations)

	patched, err := engine.Apply(result, "majorations.qualif", dec("-0.05"))
	require.NoError(t, err)

	assert.True(t, patched.TotalMajorations.Equal(dec("1.05")),
		"totalMajorations = %s, want 1.05", patched.TotalMajorations)

	expectedPrime := rating.Cents(patched.PrimeHTSansMajorations.Mul(dec("1.05")))
	assert.True(t, patched.PrimeTotal.Equal(expectedPrime),
		"primeTotal = %s, want %s", patched.PrimeTotal, expectedPrime)

	// Charges follow the new premium.
	expectedTaxe := rating.Cents(patched.PrimeTotal.Mul(engine.Book().Charges.InsuranceTaxRate))
	assert.True(t, patched.Autres.TaxeAssurance.Equal(expectedTaxe),
		"taxeAssurance = %s, want %s", patched.Autres.TaxeAssurance, expectedTaxe)

	// Schedule regenerated wholesale against the new total.
	require.NotNil(t, patched.Echeancier)
	sum := decimal.Zero
	for _, e := range patched.Echeancier.Echeances {
		sum = sum.Add(e.TotalTTC)
	}
	assert.True(t, sum.Sub(patched.TotalTTC).Abs().LessThanOrEqual(dec("0.01")),
		"schedule sums to %s, want %s", sum, patched.TotalTTC)

	// The input result is untouched.
	assert.True(t, result.TotalMajorations.Equal(dec("1.10")))
	assert.True(t, result.Majorations[rating.FactorQualification].IsZero())
}

func TestApply_SamePatchTwice_IsIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	result, err := engine.Compute(overridableInput())
	require.NoError(t, err)

	once, err := engine.Apply(result, "majorations.qualif", dec("-0.05"))
	require.NoError(t, err)
	twice, err := engine.Apply(once, "majorations.qualif", dec("-0.05"))
	require.NoError(t, err)

	assert.True(t, once.TotalTTC.Equal(twice.TotalTTC),
		"totalTTC drifted across identical patches: %s vs %s", once.TotalTTC, twice.TotalTTC)
	assert.True(t, once.PrimeTotal.Equal(twice.PrimeTotal))
	assert.True(t, once.Autres.Total.Equal(twice.Autres.Total))
}

// =============================================================================
// CHARGE EDIT PATHS
// =============================================================================

func TestApply_ChargeEdits_RederiveDownstreamOnly(t *testing.T) {
	engine := newTestEngine(t)
	result, err := engine.Compute(overridableInput())
	require.NoError(t, err)

	t.Run("fraisGestion", func(t *testing.T) {
		patched, err := engine.Apply(result, "fraisGestion", dec("120"))
		require.NoError(t, err)
		assert.True(t, patched.FraisGestion.Equal(dec("120")))
		// Premium side untouched.
		assert.True(t, patched.PrimeTotal.Equal(result.PrimeTotal))

		delta := patched.TotalTTC.Sub(result.TotalTTC)
		assert.True(t, delta.Equal(dec("120").Sub(result.FraisGestion)),
			"totalTTC moved by %s, want the fraisGestion delta", delta)
	})

	t.Run("taxeAssurance", func(t *testing.T) {
		patched, err := engine.Apply(result, "autres.taxeAssurance", dec("500"))
		require.NoError(t, err)
		assert.True(t, patched.Autres.TaxeAssurance.Equal(dec("500")))

		expected := patched.Autres.TaxeAssurance.
			Add(patched.Autres.FraisFractionnementPrimeHT).
			Add(patched.ProtectionJuridique)
		assert.True(t, patched.Autres.Total.Equal(expected),
			"autres.total = %s, want %s", patched.Autres.Total, expected)
	})

	t.Run("protectionJuridique", func(t *testing.T) {
		patched, err := engine.Apply(result, "protectionJuridique", dec("80"))
		require.NoError(t, err)
		assert.True(t, patched.ProtectionJuridique.Equal(dec("80")))

		ttc := rating.Cents(dec("80").Mul(dec("1").Add(engine.Book().Charges.LegalProtectionTaxRate)))
		assert.True(t, patched.Autres.ProtectionJuridiqueTTC.Equal(ttc))
	})
}

func TestApply_LegalProtectionOptInSurvivesEdits(t *testing.T) {
	// The opt-in is retained on the result, never inferred from the
	// monetary amount: zeroing protectionJuridique by hand must not flip
	// the flag, so the next charge re-derivation restores the book premium.

	engine := newTestEngine(t)
	result, err := engine.Compute(overridableInput())
	require.NoError(t, err)
	require.True(t, result.ProtectionJuridiqueSouscrite)

	zeroed, err := engine.Apply(result, "protectionJuridique", dec("0"))
	require.NoError(t, err)
	require.True(t, zeroed.ProtectionJuridique.IsZero())
	assert.True(t, zeroed.ProtectionJuridiqueSouscrite,
		"a zero override must not flip the opt-in")

	patched, err := engine.Apply(zeroed, "majorations.qualif", dec("-0.05"))
	require.NoError(t, err)
	flat := engine.Book().Charges.LegalProtectionPremium
	assert.True(t, patched.ProtectionJuridique.Equal(flat),
		"protectionJuridique = %s, want the book premium %s", patched.ProtectionJuridique, flat)
}

func TestApply_MajorationEdit_KeepsOptOut(t *testing.T) {
	engine := newTestEngine(t)
	in := overridableInput()
	in.LegalProtection = false

	result, err := engine.Compute(in)
	require.NoError(t, err)
	require.False(t, result.ProtectionJuridiqueSouscrite)

	patched, err := engine.Apply(result, "majorations.qualif", dec("-0.05"))
	require.NoError(t, err)
	assert.False(t, patched.ProtectionJuridiqueSouscrite)
	assert.True(t, patched.ProtectionJuridique.IsZero(),
		"an opted-out quote must never regain the legal-protection premium")
}

// =============================================================================
// ERROR PATHS
// =============================================================================

func TestApply_UnknownFieldPath(t *testing.T) {
	engine := newTestEngine(t)
	result, err := engine.Compute(overridableInput())
	require.NoError(t, err)

	for _, path := range []string{"", "primeTotal", "majorations.inconnu", "autres.total"} {
		_, err := engine.Apply(result, path, dec("1"))
		require.Error(t, err, "path %q must be rejected", path)
		assert.True(t, errors.Is(err, rating.ErrUnknownFieldPath), "path %q: got %v", path, err)
	}
}

func TestApply_RefusedResult_IsNotEditable(t *testing.T) {
	engine := newTestEngine(t)
	in := overridableInput()
	in.Turnover = dec("3000000")

	result, err := engine.Compute(in)
	require.NoError(t, err)
	require.True(t, result.Refus)

	_, err = engine.Apply(result, "fraisGestion", dec("120"))
	assert.Error(t, err)
}

func TestApply_MajorationEdit_RescalesReprise(t *testing.T) {
	// A factor edit moves primeTotal, so the claims loading rescales while
	// its retained percentages and coefficients stay fixed.

	engine := newTestEngine(t)
	in := overridableInput()
	in.PriorInsurerStatus = rating.PriorInsurerCurrent
	in.ClaimsLoadingOptIn = true
	in.LossHistory = []rating.LossHistoryEntry{
		{Year: 2025, NumClaims: 1, TotalCost: dec("6000")},
		{Year: 2024, NumClaims: 1, TotalCost: dec("4000")},
	}

	result, err := engine.Compute(in)
	require.NoError(t, err)
	require.NotNil(t, result.ReprisePasseResult)

	patched, err := engine.Apply(result, "majorations.qualif", dec("-0.05"))
	require.NoError(t, err)
	rp := patched.ReprisePasseResult
	require.NotNil(t, rp)

	assert.True(t, rp.TauxMajoration.Equal(result.ReprisePasseResult.TauxMajoration),
		"loading coefficient must not change on a factor edit")
	expected := rating.Cents(patched.PrimeTotal.Mul(rp.TauxMajoration))
	assert.True(t, rp.PrimeApresSinistralite.Equal(expected),
		"primeApresSinistralite = %s, want %s", rp.PrimeApresSinistralite, expected)

	for i, row := range rp.Annees {
		assert.True(t, row.PourcentageAnnee.Equal(result.ReprisePasseResult.Annees[i].PourcentageAnnee),
			"row %d percentage must be retained", i)
	}
}
