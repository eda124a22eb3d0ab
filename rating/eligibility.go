/*
eligibility.go - Hard-stop underwriting rules

PURPOSE:
  Evaluates the fixed set of exclusion rules against the normalized input.
  The first matching rule produces a terminal refusal with its
  human-readable reason; rule order is fixed so the refusal reason is
  reproducible. A refusal is a first-class result, never an error.

RULE ORDER:
  1. Turnover above the underwriting bound
  2. Headcount above the underwriting bound
  3. Disallowed activity-code combination
  4. Cover gap beyond the accepted duration (terminated prior cover)
  5. Claims history beyond the accepted count

SEE ALSO:
  - tariff.go: EligibilityBounds configuration
  - engine.go: short-circuits after a refusal
*/
package rating

import "fmt"

// Refusal is the terminal output of the gate: nil means accepted.
type Refusal struct {
	RuleID string
	Reason string
}

type eligibilityRule struct {
	id     string
	match  func(in RatingInput, b EligibilityBounds) bool
	reason func(in RatingInput, b EligibilityBounds) string
}

// Rules are evaluated in declaration order; the first match wins.
var eligibilityRules = []eligibilityRule{
	{
		id: "ca_max",
		match: func(in RatingInput, b EligibilityBounds) bool {
			return b.MaxTurnover.IsPositive() && in.Turnover.GreaterThan(b.MaxTurnover)
		},
		reason: func(in RatingInput, b EligibilityBounds) string {
			return fmt.Sprintf("chiffre d'affaires déclaré (%s €) au-delà du plafond souscriptible (%s €)",
				in.Turnover, b.MaxTurnover)
		},
	},
	{
		id: "effectif_max",
		match: func(in RatingInput, b EligibilityBounds) bool {
			return b.MaxHeadcount.IsPositive() && in.Headcount.GreaterThan(b.MaxHeadcount)
		},
		reason: func(in RatingInput, b EligibilityBounds) string {
			return fmt.Sprintf("effectif (%s ETP) au-delà du plafond souscriptible (%s ETP)",
				in.Headcount, b.MaxHeadcount)
		},
	},
	{
		id: "activites_incompatibles",
		match: func(in RatingInput, b EligibilityBounds) bool {
			return forbiddenPair(in, b) != nil
		},
		reason: func(in RatingInput, b EligibilityBounds) string {
			p := forbiddenPair(in, b)
			return fmt.Sprintf("combinaison d'activités non souscriptible : %s + %s", p[0], p[1])
		},
	},
	{
		id: "interruption_garantie",
		match: func(in RatingInput, b EligibilityBounds) bool {
			return b.MaxCoverGapMonths > 0 &&
				in.PriorInsurerStatus == PriorInsurerTerminated &&
				in.CoverGapMonths() > b.MaxCoverGapMonths
		},
		reason: func(in RatingInput, b EligibilityBounds) string {
			return fmt.Sprintf("interruption de garantie de %d mois, au-delà des %d mois acceptés",
				in.CoverGapMonths(), b.MaxCoverGapMonths)
		},
	},
	{
		id: "sinistralite_max",
		match: func(in RatingInput, b EligibilityBounds) bool {
			if b.MaxClaimsInHistory <= 0 {
				return false
			}
			claims := 0
			for _, e := range in.LossHistory {
				claims += e.NumClaims
			}
			return claims > b.MaxClaimsInHistory
		},
		reason: func(in RatingInput, b EligibilityBounds) string {
			claims := 0
			for _, e := range in.LossHistory {
				claims += e.NumClaims
			}
			return fmt.Sprintf("sinistralité déclarée (%d sinistres) au-delà du seuil souscriptible (%d)",
				claims, b.MaxClaimsInHistory)
		},
	},
}

func forbiddenPair(in RatingInput, b EligibilityBounds) *[2]string {
	declared := make(map[string]bool, len(in.Activities))
	for _, a := range in.Activities {
		declared[a.Code] = true
	}
	for i := range b.ForbiddenPairs {
		p := b.ForbiddenPairs[i]
		if declared[p[0]] && declared[p[1]] {
			return &p
		}
	}
	return nil
}

// CheckEligibility runs the rules in fixed order and returns the first
// refusal, or nil when the input passes.
func CheckEligibility(in RatingInput, bounds EligibilityBounds) *Refusal {
	for _, rule := range eligibilityRules {
		if rule.match(in, bounds) {
			return &Refusal{RuleID: rule.id, Reason: rule.reason(in, bounds)}
		}
	}
	return nil
}
