/*
reprise.go - Claims-history loader ("reprise du passé")

PURPOSE:
  When the quote opts into claims-history loading and historical loss
  entries exist, this component derives a loading coefficient from three
  ordinal categories (company seniority, claim frequency, loss ratio) and
  spreads a supplementary premium over the historical years.

ALGORITHM:
  ratioSP      = total historical cost / (PrimeHTSansMajorations x years)
  frequency    = total claim count / years considered
  categories   = band lookups on seniority, frequency, ratio
  tauxMajoration = Coefficients[catSeniority][catFrequency][catRatio]
  primeApresSinistralite = primeTotal x tauxMajoration
  per-year row = primeApresSinistralite x weight% x tauxTI
  TTC total    = sum(rows) x (1 + insurance tax)

  Recency weights come from the grid (most recent year first, summing to
  100 over a full lookback window); when fewer years are present the
  weights of the present years are renormalized so they still sum to 100.

EDGE CASES:
  - Empty loss history or opt-out: loader disabled, the aggregate result
    simply carries no ReprisePasseResult.
  - Years beyond the lookback window are ignored.

SEE ALSO:
  - tariff.go: RepriseGrid configuration
  - engine.go: invocation and aggregation
*/
package rating

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// RepriseYearRow is one line of the per-year breakdown table.
type RepriseYearRow struct {
	Annee             int             `json:"annee"`
	TauxTI            decimal.Decimal `json:"tauxTI"`
	PourcentageAnnee  decimal.Decimal `json:"pourcentageAnnee"`
	PrimeRepriseAnnee decimal.Decimal `json:"primeRepriseAnnee"`
}

// ReprisePasseResult is the claims-history loading block of the aggregate.
type ReprisePasseResult struct {
	RatioSP                decimal.Decimal  `json:"ratioSP"`
	FrequenceSinistres     decimal.Decimal  `json:"frequenceSinistres"`
	CategorieAnciennete    int              `json:"categorieAnciennete"`
	CategorieFrequence     int              `json:"categorieFrequence"`
	CategorieRatio         int              `json:"categorieRatio"`
	TauxMajoration         decimal.Decimal  `json:"tauxMajoration"`
	PrimeApresSinistralite decimal.Decimal  `json:"primeApresSinistralite"`
	Annees                 []RepriseYearRow `json:"annees"`
	PrimeReprisePasseTTC   decimal.Decimal  `json:"primeReprisePasseTTC"`
}

// =============================================================================
// BUCKETING
// =============================================================================

// ordinalIntBucket returns the index of the first band covering n.
func ordinalIntBucket(bands []IntBand, n int) int {
	for i, b := range bands {
		if b.UpTo < 0 || n <= b.UpTo {
			return i
		}
	}
	return len(bands) - 1
}

// ordinalBucket returns the index of the first band covering v.
func ordinalBucket(bands []Band, v decimal.Decimal) int {
	for i, b := range bands {
		if b.UpTo.IsNegative() || v.LessThanOrEqual(b.UpTo) {
			return i
		}
	}
	return len(bands) - 1
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// =============================================================================
// LOADER
// =============================================================================

// ComputeReprise runs the claims-history loader. Returns nil when loading
// is not requested or no usable history exists.
func ComputeReprise(
	in RatingInput,
	grid RepriseGrid,
	primeHTSansMajorations decimal.Decimal,
	primeTotal decimal.Decimal,
	taxRate decimal.Decimal,
) *ReprisePasseResult {

	if !in.ClaimsLoadingOptIn || len(in.LossHistory) == 0 {
		return nil
	}

	// Keep at most LookbackYears entries, most recent first.
	history := make([]LossHistoryEntry, len(in.LossHistory))
	copy(history, in.LossHistory)
	sort.Slice(history, func(i, j int) bool { return history[i].Year > history[j].Year })
	if len(history) > grid.LookbackYears {
		history = history[:grid.LookbackYears]
	}

	years := decimal.NewFromInt(int64(len(history)))
	totalCost := decimal.Zero
	totalClaims := 0
	for _, e := range history {
		totalCost = totalCost.Add(e.TotalCost)
		totalClaims += e.NumClaims
	}

	// Loss ratio against the pre-majoration premium over the same span.
	// A zero premium base degrades to a zero ratio rather than dividing.
	ratio := decimal.Zero
	base := primeHTSansMajorations.Mul(years)
	if base.IsPositive() {
		ratio = totalCost.Div(base)
	}
	frequency := decimal.NewFromInt(int64(totalClaims)).Div(years)

	catSen := ordinalIntBucket(grid.SeniorityBands, in.CompanyAgeYears())
	catFreq := ordinalBucket(grid.FrequencyBands, frequency)
	catRatio := ordinalBucket(grid.RatioBands, ratio)

	// Grid lookup, clamped so a short grid never panics.
	s := clampIndex(catSen, len(grid.Coefficients))
	f := clampIndex(catFreq, len(grid.Coefficients[s]))
	r := clampIndex(catRatio, len(grid.Coefficients[s][f]))
	taux := grid.Coefficients[s][f][r]

	primeApres := primeTotal.Mul(taux)

	// Renormalize the recency weights over the years actually present so
	// pourcentageAnnee still sums to 100.
	present := len(history)
	weightSum := decimal.Zero
	for i := 0; i < present; i++ {
		weightSum = weightSum.Add(grid.YearWeights[i])
	}

	rows := make([]RepriseYearRow, 0, present)
	rowSum := decimal.Zero
	pctSum := decimal.Zero
	for i, e := range history {
		pct := grid.YearWeights[i].Mul(hundred).Div(weightSum).Round(4)
		if i == present-1 {
			// Last row absorbs the normalization remainder so the published
			// percentages sum to exactly 100.
			pct = hundred.Sub(pctSum)
		}
		pctSum = pctSum.Add(pct)

		ti := grid.TechnicalRates[i]
		prime := Cents(primeApres.Mul(pct).Div(hundred).Mul(ti))
		rowSum = rowSum.Add(prime)

		rows = append(rows, RepriseYearRow{
			Annee:             e.Year,
			TauxTI:            ti,
			PourcentageAnnee:  pct,
			PrimeRepriseAnnee: prime,
		})
	}

	return &ReprisePasseResult{
		RatioSP:                ratio.Round(6),
		FrequenceSinistres:     frequency.Round(6),
		CategorieAnciennete:    catSen,
		CategorieFrequence:     catFreq,
		CategorieRatio:         catRatio,
		TauxMajoration:         taux,
		PrimeApresSinistralite: Cents(primeApres),
		Annees:                 rows,
		PrimeReprisePasseTTC:   Cents(rowSum.Mul(one.Add(taxRate))),
	}
}
