package factory

import "github.com/warp/rating-engine/rating"

// DefaultTariffJSON is a built-in sample tariff book used by tests, demos
// and local development. The figures are placeholders with the right shape;
// production books are injected via -tariff.
const DefaultTariffJSON = `{
  "version": "sample-2026-01",
  "share_policy": "at_most_100",
  "activities": [
    {"code": "maconnerie", "label": "Maçonnerie et gros oeuvre", "base_rate": "0.012",
     "minimum_premium": "950", "breakpoint": "400000", "degressive_rate": "0.006",
     "reference_ca": "250000"},
    {"code": "charpente", "label": "Charpente et ossature bois", "base_rate": "0.015",
     "minimum_premium": "1200", "breakpoint": "400000", "degressive_rate": "0.0075",
     "reference_ca": "250000"},
    {"code": "plomberie", "label": "Plomberie et chauffage", "base_rate": "0.010",
     "minimum_premium": "800", "breakpoint": "400000", "degressive_rate": "0.005",
     "reference_ca": "250000"},
    {"code": "electricite", "label": "Électricité générale", "base_rate": "0.011",
     "minimum_premium": "850", "breakpoint": "400000", "degressive_rate": "0.0055",
     "reference_ca": "250000"},
    {"code": "demolition", "label": "Démolition", "base_rate": "0.020",
     "minimum_premium": "1500", "breakpoint": "400000", "degressive_rate": "0.010",
     "reference_ca": "250000"}
  ],
  "majorations": {
    "company_age_years": [
      {"up_to": 1, "value": "0.15"},
      {"up_to": 3, "value": "0.10"},
      {"up_to": 5, "value": "0.05"},
      {"up_to": -1, "value": "0"}
    ],
    "experience_years": [
      {"up_to": 1, "value": "0.10"},
      {"up_to": 3, "value": "0.05"},
      {"up_to": 9, "value": "0"},
      {"up_to": -1, "value": "-0.05"}
    ],
    "continuous_cover_years": [
      {"up_to": 0, "value": "0.05"},
      {"up_to": 2, "value": "0"},
      {"up_to": -1, "value": "-0.05"}
    ],
    "qualified_discount": "-0.05",
    "defaulting_surcharge": "0.10",
    "gap_over_12_surcharge": "0.15",
    "inactivity_surcharge": "0.10",
    "claims_free_discount": "-0.10",
    "no_balance_sheet_load": "0.05",
    "min_multiplier": "0.10"
  },
  "reprise": {
    "lookback_years": 5,
    "seniority_bands": [
      {"up_to": 3, "value": "0"},
      {"up_to": 7, "value": "0"},
      {"up_to": -1, "value": "0"}
    ],
    "frequency_bands": [
      {"up_to": 0.2, "value": "0"},
      {"up_to": 0.6, "value": "0"},
      {"up_to": -1, "value": "0"}
    ],
    "ratio_bands": [
      {"up_to": 0.5, "value": "0"},
      {"up_to": 1.0, "value": "0"},
      {"up_to": -1, "value": "0"}
    ],
    "coefficients": [
      [["0.05", "0.10", "0.18"], ["0.10", "0.16", "0.24"], ["0.16", "0.24", "0.32"]],
      [["0.04", "0.08", "0.15"], ["0.08", "0.14", "0.21"], ["0.14", "0.21", "0.28"]],
      [["0.03", "0.06", "0.12"], ["0.06", "0.11", "0.18"], ["0.11", "0.18", "0.25"]]
    ],
    "year_weights": ["40", "25", "15", "12", "8"],
    "technical_rates": ["1.00", "0.90", "0.80", "0.70", "0.60"]
  },
  "charges": {
    "legal_protection_premium": "60",
    "legal_protection_tax_rate": "0.136",
    "management_fee": "90",
    "insurance_tax_rate": "0.09",
    "fraction_rates": {
      "mensuelle": "0.05",
      "trimestrielle": "0.03",
      "semestrielle": "0.02"
    }
  },
  "eligibility": {
    "max_turnover": "2000000",
    "max_headcount": "10",
    "max_cover_gap_months": 18,
    "max_claims_in_history": 5,
    "forbidden_pairs": [["demolition", "charpente"]]
  }
}`

// DefaultTariffBook parses the built-in sample book. It panics on failure,
// which can only happen if the constant above is edited into an invalid
// state; tests catch that immediately.
func DefaultTariffBook() *rating.TariffBook {
	book, err := ParseTariff([]byte(DefaultTariffJSON))
	if err != nil {
		panic(err)
	}
	return book
}
