package rating_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/rating-engine/factory"
	"github.com/warp/rating-engine/rating"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestEngine(t *testing.T) *rating.Engine {
	t.Helper()
	engine, err := rating.NewEngine(factory.DefaultTariffBook())
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine
}

func dec(s string) decimal.Decimal {
	return rating.Rate(s)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// acceptedInput is a baseline single-activity input that rates without
// refusal: 100% maçonnerie, 300k turnover, seasoned company, no claims
// loading.
func acceptedInput() rating.RatingInput {
	return rating.RatingInput{
		Turnover:             dec("300000"),
		Headcount:            dec("4"),
		Activities:           []rating.ActivityShare{{Code: "maconnerie", SharePercent: dec("100")}},
		CreationDate:         date(2015, time.June, 1),
		YearsExperience:      12,
		ContinuousCoverYears: 5,
		PriorInsurerStatus:   rating.PriorInsurerCurrent,
		EffectiveDate:        date(2026, time.January, 1),
		Frequency:            rating.FreqAnnual,
		LegalProtection:      true,
	}
}

func approxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(dec("0.01"))
}

// =============================================================================
// SCENARIO A - accept path
// =============================================================================

func TestCompute_AcceptPath_SingleActivity(t *testing.T) {
	// GIVEN: one activity at 100% CA share, turnover 300 000, no loss
	//        history, claims loading disabled
	// WHEN:  rating
	// THEN:  accepted, no reprise block, one returnTab row, and the
	//        aggregate identity totalTTC = primeTotal + autres.total + fraisGestion

	engine := newTestEngine(t)
	result, err := engine.Compute(acceptedInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Refus {
		t.Fatalf("expected acceptance, got refusal: %s", result.RefusRaison)
	}
	if result.ReprisePasseResult != nil {
		t.Errorf("expected no reprisePasseResult")
	}
	if len(result.ReturnTab) != 1 {
		t.Fatalf("expected 1 returnTab row, got %d", len(result.ReturnTab))
	}

	expected := result.PrimeTotal.Add(result.Autres.Total).Add(result.FraisGestion)
	if !approxEqual(result.TotalTTC, expected) {
		t.Errorf("totalTTC = %s, want %s", result.TotalTTC, expected)
	}

	// 0.012 x 300 000 = 3 600, above the 950 floor
	if !result.PrimeHTSansMajorations.Equal(dec("3600")) {
		t.Errorf("PrimeHTSansMajorations = %s, want 3600", result.PrimeHTSansMajorations)
	}
}

// =============================================================================
// COMPOSITION IDENTITIES
// =============================================================================

func TestCompute_PremiumComposition(t *testing.T) {
	// primeTotal == PrimeHTSansMajorations x totalMajorations

	engine := newTestEngine(t)
	result, err := engine.Compute(acceptedInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := result.PrimeHTSansMajorations.Mul(result.TotalMajorations)
	if !approxEqual(result.PrimeTotal, expected) {
		t.Errorf("primeTotal = %s, want %s", result.PrimeTotal, expected)
	}

	sum := rating.Rate("1").Add(result.Majorations.Sum())
	if !result.TotalMajorations.Equal(sum) {
		t.Errorf("totalMajorations = %s, want 1+sum = %s", result.TotalMajorations, sum)
	}
}

func TestCompute_AncillaryReconciliation(t *testing.T) {
	// autres.total == taxe + fractionnement + protectionJuridique,
	// also with a non-annual frequency so the fractionation fee is live.

	engine := newTestEngine(t)
	in := acceptedInput()
	in.Frequency = rating.FreqQuarterly

	result, err := engine.Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := result.Autres.TaxeAssurance.
		Add(result.Autres.FraisFractionnementPrimeHT).
		Add(result.ProtectionJuridique)
	if !result.Autres.Total.Equal(expected) {
		t.Errorf("autres.total = %s, want %s", result.Autres.Total, expected)
	}
	if result.Autres.FraisFractionnementPrimeHT.IsZero() {
		t.Errorf("expected a non-zero fractionation fee for quarterly billing")
	}

	total := result.PrimeTotal.Add(result.Autres.Total).Add(result.FraisGestion)
	if !approxEqual(result.TotalTTC, total) {
		t.Errorf("totalTTC = %s, want %s", result.TotalTTC, total)
	}
}

func TestCompute_AnnualBillingHasNoFractionFee(t *testing.T) {
	engine := newTestEngine(t)
	result, err := engine.Compute(acceptedInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Autres.FraisFractionnementPrimeHT.IsZero() {
		t.Errorf("annual billing must carry no fractionation fee, got %s",
			result.Autres.FraisFractionnementPrimeHT)
	}
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestCompute_Idempotent(t *testing.T) {
	// Compute(input) == Compute(input): no hidden clock or randomness.

	engine := newTestEngine(t)
	in := acceptedInput()
	in.ClaimsLoadingOptIn = true
	in.LossHistory = []rating.LossHistoryEntry{
		{Year: 2024, NumClaims: 1, TotalCost: dec("4000")},
		{Year: 2023, NumClaims: 0, TotalCost: dec("0")},
	}

	first, err := engine.Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.TotalTTC.Equal(second.TotalTTC) {
		t.Errorf("totalTTC differs across identical calls: %s vs %s", first.TotalTTC, second.TotalTTC)
	}
	if !first.TotalMajorations.Equal(second.TotalMajorations) {
		t.Errorf("totalMajorations differs across identical calls")
	}
	if len(first.Echeancier.Echeances) != len(second.Echeancier.Echeances) {
		t.Errorf("schedule length differs across identical calls")
	}
	for i := range first.Echeancier.Echeances {
		if !first.Echeancier.Echeances[i].TotalTTC.Equal(second.Echeancier.Echeances[i].TotalTTC) {
			t.Errorf("installment %d differs across identical calls", i)
		}
	}
}

// =============================================================================
// EDGE CASES
// =============================================================================

func TestCompute_ZeroTurnover_FloorsAtMinimum(t *testing.T) {
	// Zero turnover with a declared activity pays the activity floor.

	engine := newTestEngine(t)
	in := acceptedInput()
	in.Turnover = decimal.Zero

	result, err := engine.Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.PrimeHTSansMajorations.Equal(dec("950")) {
		t.Errorf("expected the 950 activity floor, got %s", result.PrimeHTSansMajorations)
	}
}

func TestCompute_ZeroShareRow_KeptForTransparency(t *testing.T) {
	engine := newTestEngine(t)
	in := acceptedInput()
	in.Activities = []rating.ActivityShare{
		{Code: "maconnerie", SharePercent: dec("100")},
		{Code: "plomberie", SharePercent: dec("0")},
	}

	result, err := engine.Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ReturnTab) != 2 {
		t.Fatalf("expected 2 returnTab rows, got %d", len(result.ReturnTab))
	}
	if !result.ReturnTab[1].Premium.IsZero() {
		t.Errorf("zero-share row must carry a zero premium, got %s", result.ReturnTab[1].Premium)
	}
}

func TestCompute_DegressiveRate_BeyondBreakpoint(t *testing.T) {
	// 600k at 100%: 0.012 x 400k + 0.006 x 200k = 4800 + 1200 = 6000

	engine := newTestEngine(t)
	in := acceptedInput()
	in.Turnover = dec("600000")

	result, err := engine.Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.PrimeHTSansMajorations.Equal(dec("6000")) {
		t.Errorf("PrimeHTSansMajorations = %s, want 6000", result.PrimeHTSansMajorations)
	}
}

func TestCompute_ValidationFailures(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name   string
		mutate func(*rating.RatingInput)
	}{
		{"empty activity list", func(in *rating.RatingInput) { in.Activities = nil }},
		{"unknown activity code", func(in *rating.RatingInput) {
			in.Activities = []rating.ActivityShare{{Code: "aquaculture", SharePercent: dec("100")}}
		}},
		{"share above 100", func(in *rating.RatingInput) {
			in.Activities = []rating.ActivityShare{{Code: "maconnerie", SharePercent: dec("140")}}
		}},
		{"shares over 100 total", func(in *rating.RatingInput) {
			in.Activities = []rating.ActivityShare{
				{Code: "maconnerie", SharePercent: dec("80")},
				{Code: "plomberie", SharePercent: dec("40")},
			}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := acceptedInput()
			tc.mutate(&in)
			result, err := engine.Compute(in)
			if err == nil {
				t.Fatalf("expected a validation error, got result (refus=%v)", result.Refus)
			}
			if !rating.IsValidation(err) {
				t.Errorf("expected a validation error, got: %v", err)
			}
		})
	}
}

func TestCompute_ExactSharePolicy(t *testing.T) {
	// With exact_100 a partial split is a validation failure, not a refusal.

	book := factory.DefaultTariffBook()
	book.SharePolicy = rating.SharesExact100
	engine, err := rating.NewEngine(book)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	in := acceptedInput()
	in.Activities = []rating.ActivityShare{{Code: "maconnerie", SharePercent: dec("70")}}

	if _, err := engine.Compute(in); err == nil {
		t.Fatalf("expected a share-policy violation")
	}

	in.Activities[0].SharePercent = dec("100")
	if _, err := engine.Compute(in); err != nil {
		t.Fatalf("unexpected error with exact shares: %v", err)
	}
}
