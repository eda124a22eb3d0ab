package rating_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/rating-engine/rating"
)

// =============================================================================
// COMPOSITION PROPERTIES
// =============================================================================

func TestMajorationSet_TotalIsOnePlusSum(t *testing.T) {
	sets := []rating.MajorationSet{
		{},
		{rating.FactorQualification: dec("-0.05")},
		{
			rating.FactorCreationDate:    dec("0.15"),
			rating.FactorExperience:      dec("-0.05"),
			rating.FactorClaimsFree:      dec("-0.10"),
			rating.FactorNoBalanceSheet:  dec("0.05"),
			rating.FactorContinuousCover: dec("0"),
		},
	}

	floor := dec("0.10")
	for _, m := range sets {
		expected := dec("1").Add(m.Sum())
		if expected.LessThan(floor) {
			expected = floor
		}
		if !m.Total(floor).Equal(expected) {
			t.Errorf("Total(%v) = %s, want %s", m, m.Total(floor), expected)
		}
	}
}

func TestMajorationSet_SingleFactorEdit_MovesTotalByDelta(t *testing.T) {
	// Changing one factor from a to b moves the total by exactly (b - a).

	m := rating.MajorationSet{
		rating.FactorCreationDate:  dec("0.10"),
		rating.FactorQualification: dec("0"),
		rating.FactorExperience:    dec("0"),
	}
	floor := dec("0.10")
	before := m.Total(floor)

	m[rating.FactorQualification] = dec("-0.05")
	after := m.Total(floor)

	delta := after.Sub(before)
	if !delta.Equal(dec("-0.05")) {
		t.Errorf("total moved by %s, want -0.05", delta)
	}
}

func TestMajorationSet_FloorClamp(t *testing.T) {
	// No combination of discounts may drive the multiplier to zero or below.

	m := rating.MajorationSet{
		"a": dec("-0.60"),
		"b": dec("-0.70"),
	}
	total := m.Total(dec("0.10"))
	if !total.Equal(dec("0.10")) {
		t.Errorf("expected the 0.10 floor, got %s", total)
	}
	if total.LessThanOrEqual(decimal.Zero) {
		t.Fatalf("multiplier must never be <= 0")
	}
}

// =============================================================================
// FACTOR EVALUATION
// =============================================================================

func TestEvaluateMajorations_AllFactorsAlwaysPresent(t *testing.T) {
	engine := newTestEngine(t)
	m := rating.EvaluateMajorations(acceptedInput(), engine.Book().Majorations)

	for _, factor := range []string{
		rating.FactorCreationDate, rating.FactorQualification,
		rating.FactorExperience, rating.FactorDefaulting,
		rating.FactorContinuousCover, rating.FactorCoverGap,
		rating.FactorClaimsFree, rating.FactorNoBalanceSheet,
		rating.FactorDormant,
	} {
		if _, ok := m[factor]; !ok {
			t.Errorf("factor %s absent from the set", factor)
		}
	}
}

func TestEvaluateMajorations_YoungCompanySurcharge(t *testing.T) {
	engine := newTestEngine(t)
	in := acceptedInput()
	in.CreationDate = date(2025, time.June, 1) // under a year old at effect

	m := rating.EvaluateMajorations(in, engine.Book().Majorations)
	if !m[rating.FactorCreationDate].Equal(dec("0.15")) {
		t.Errorf("dateCreation = %s, want 0.15 for a company under a year old",
			m[rating.FactorCreationDate])
	}
}

func TestEvaluateMajorations_DirectorExperienceBacksTheCompany(t *testing.T) {
	// A company with no track record of its own rates on the director's
	// experience when that is higher.

	engine := newTestEngine(t)
	in := acceptedInput()
	in.YearsExperience = 0
	in.DirectorExperience = 12

	m := rating.EvaluateMajorations(in, engine.Book().Majorations)
	if !m[rating.FactorExperience].Equal(dec("-0.05")) {
		t.Errorf("anneeExperience = %s, want the -0.05 seasoned-experience band",
			m[rating.FactorExperience])
	}

	// Without the director's record the same company carries the surcharge.
	in.DirectorExperience = 0
	m = rating.EvaluateMajorations(in, engine.Book().Majorations)
	if !m[rating.FactorExperience].Equal(dec("0.10")) {
		t.Errorf("anneeExperience = %s, want the 0.10 novice band", m[rating.FactorExperience])
	}
}

func TestEvaluateMajorations_DefaultingInsurer(t *testing.T) {
	engine := newTestEngine(t)
	in := acceptedInput()
	in.PriorInsurerStatus = rating.PriorInsurerDefaulting

	m := rating.EvaluateMajorations(in, engine.Book().Majorations)
	if !m[rating.FactorDefaulting].Equal(dec("0.10")) {
		t.Errorf("assureurDefaillant = %s, want 0.10", m[rating.FactorDefaulting])
	}
}

func TestEvaluateMajorations_NeverInsuredGetsNoClaimsFreeDiscount(t *testing.T) {
	engine := newTestEngine(t)
	in := acceptedInput()
	in.PriorInsurerStatus = rating.PriorInsurerNeverInsured

	m := rating.EvaluateMajorations(in, engine.Book().Majorations)
	if !m[rating.FactorClaimsFree].IsZero() {
		t.Errorf("never-insured company must not get the claims-free discount")
	}
}
