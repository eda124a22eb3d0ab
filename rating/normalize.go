/*
normalize.go - Parameter normalization (dynamic form -> typed RatingInput)

PURPOSE:
  The quoting UI submits a dynamically-keyed field map driven by its form
  configuration. The Normalizer maps that map onto a canonical RatingInput
  through a statically declared mapping table, one entry per engine
  parameter:

    {Param: "caDeclare", Field: "chiffre_affaires", Kind: KindNumber}

  The table is validated when the Normalizer is built (duplicate params,
  unknown kinds, missing required declarations), not per call.

COERCION AND DEFAULTS:
  - Unknown or malformed optional fields are ignored, never fatal
  - Numbers default to 0, dates to the injected "now", booleans to false
  - Only the required subset (turnover, headcount, activity list) can fail
    normalization, with MissingRequiredParameterError

FIELD KINDS:
  Number, Date, Boolean, Text, Select, MultiSelect, ActivityBreakdown,
  LossHistory - the tagged union consumed only by this normalizer.

SEE ALSO:
  - types.go: RatingInput, the normalization target
  - engine.go: validates the normalized input before rating
*/
package rating

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELD SPECIFICATION - tagged union of form field kinds
// =============================================================================

// FieldKind tags how a raw form value is coerced.
type FieldKind string

const (
	KindNumber            FieldKind = "number"
	KindDate              FieldKind = "date"
	KindBoolean           FieldKind = "boolean"
	KindText              FieldKind = "text"
	KindSelect            FieldKind = "select"
	KindMultiSelect       FieldKind = "multiselect"
	KindActivityBreakdown FieldKind = "activity_breakdown"
	KindLossHistory       FieldKind = "loss_history"
)

var knownKinds = map[FieldKind]bool{
	KindNumber: true, KindDate: true, KindBoolean: true, KindText: true,
	KindSelect: true, KindMultiSelect: true,
	KindActivityBreakdown: true, KindLossHistory: true,
}

// FieldMapping binds one engine parameter to one form field.
type FieldMapping struct {
	Param string    `json:"param"` // engine parameter name (RatingInput json tag)
	Field string    `json:"field"` // form field name
	Kind  FieldKind `json:"kind"`
}

// Engine parameter names the normalizer understands.
const (
	ParamTurnover           = "caDeclare"
	ParamHeadcount          = "effectifETP"
	ParamActivities         = "activites"
	ParamCreationDate       = "dateCreation"
	ParamYearsExperience    = "anneeExperience"
	ParamDirectorExperience = "experienceDirigeant"
	ParamQualified          = "qualif"
	ParamPriorInsurer       = "assureurPrecedent"
	ParamPriorStatus        = "statutAssureurPrecedent"
	ParamContinuousCover    = "nombreAnneeAssuranceContinue"
	ParamPriorCoverEnd      = "finCouverturePrecedente"
	ParamInactive           = "sansActiviteDepuisPlusDe12Mois"
	ParamLossHistory        = "sinistralite"
	ParamClaimsOptIn        = "reprisePasseDemandee"
	ParamEffectiveDate      = "dateEffet"
	ParamContractYears      = "anneesContrat"
	ParamFrequency          = "frequenceFacturation"
	ParamLegalProtection    = "protectionJuridiqueSouscrite"
	ParamBalanceSheet       = "nonFournitureBilanN_1"
)

// requiredParams is the subset whose absence after defaulting is fatal.
var requiredParams = []string{ParamTurnover, ParamHeadcount, ParamActivities}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer holds a validated mapping table and the reference clock used
// for date defaults. Build once, reuse across calls.
type Normalizer struct {
	byParam map[string]FieldMapping
	now     time.Time
}

// NewNormalizer validates the mapping table at load time.
func NewNormalizer(mappings []FieldMapping, now time.Time) (*Normalizer, error) {
	byParam := make(map[string]FieldMapping, len(mappings))
	for _, m := range mappings {
		if m.Param == "" || m.Field == "" {
			return nil, fmt.Errorf("mapping with empty param or field name")
		}
		if !knownKinds[m.Kind] {
			return nil, fmt.Errorf("param %q: unknown field kind %q", m.Param, m.Kind)
		}
		if _, dup := byParam[m.Param]; dup {
			return nil, fmt.Errorf("param %q mapped twice", m.Param)
		}
		byParam[m.Param] = m
	}
	for _, req := range requiredParams {
		if _, ok := byParam[req]; !ok {
			return nil, fmt.Errorf("required param %q has no mapping", req)
		}
	}
	return &Normalizer{byParam: byParam, now: now}, nil
}

// Normalize coerces the raw field map into a typed RatingInput.
func (n *Normalizer) Normalize(fields map[string]any) (RatingInput, error) {
	in := RatingInput{
		Turnover:      n.number(fields, ParamTurnover),
		Headcount:     n.number(fields, ParamHeadcount),
		CreationDate:  n.date(fields, ParamCreationDate),
		PriorCoverEnd: n.dateOrZero(fields, ParamPriorCoverEnd),
		EffectiveDate: n.date(fields, ParamEffectiveDate),

		YearsExperience:      n.intValue(fields, ParamYearsExperience),
		DirectorExperience:   n.intValue(fields, ParamDirectorExperience),
		ContinuousCoverYears: n.intValue(fields, ParamContinuousCover),
		ContractYears:        n.intValue(fields, ParamContractYears),

		Qualified:            n.boolean(fields, ParamQualified),
		InactiveOver12Months: n.boolean(fields, ParamInactive),
		ClaimsLoadingOptIn:   n.boolean(fields, ParamClaimsOptIn),
		LegalProtection:      n.boolean(fields, ParamLegalProtection),
		BalanceSheetMissing:  n.boolean(fields, ParamBalanceSheet),

		PriorInsurer:       n.text(fields, ParamPriorInsurer),
		PriorInsurerStatus: PriorInsurerStatus(n.text(fields, ParamPriorStatus)),
		Frequency:          BillingFrequency(n.text(fields, ParamFrequency)),
	}

	if in.Frequency == "" {
		in.Frequency = FreqAnnual
	}

	in.Activities = n.activities(fields)
	in.LossHistory = n.lossHistory(fields)

	// Required subset: fatal only when entirely absent after defaulting.
	if _, present := n.raw(fields, ParamTurnover); !present {
		return RatingInput{}, &MissingRequiredParameterError{Parameter: ParamTurnover}
	}
	if _, present := n.raw(fields, ParamHeadcount); !present {
		return RatingInput{}, &MissingRequiredParameterError{Parameter: ParamHeadcount}
	}
	if len(in.Activities) == 0 {
		return RatingInput{}, &MissingRequiredParameterError{Parameter: ParamActivities}
	}
	return in, nil
}

// =============================================================================
// COERCION HELPERS
// =============================================================================

// raw resolves a param through the mapping table to its raw form value.
func (n *Normalizer) raw(fields map[string]any, param string) (any, bool) {
	m, ok := n.byParam[param]
	if !ok {
		return nil, false
	}
	v, ok := fields[m.Field]
	return v, ok
}

func (n *Normalizer) number(fields map[string]any, param string) decimal.Decimal {
	v, ok := n.raw(fields, param)
	if !ok {
		return decimal.Zero
	}
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func (n *Normalizer) intValue(fields map[string]any, param string) int {
	return int(n.number(fields, param).IntPart())
}

func (n *Normalizer) boolean(fields map[string]any, param string) bool {
	v, ok := n.raw(fields, param)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "on" || s == "oui"
	case float64:
		return t != 0
	default:
		return false
	}
}

func (n *Normalizer) text(fields map[string]any, param string) string {
	v, ok := n.raw(fields, param)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// date defaults to the injected "now" when absent; malformed values are
// ignored (optional field contract).
func (n *Normalizer) date(fields map[string]any, param string) time.Time {
	if t := n.dateOrZero(fields, param); !t.IsZero() {
		return t
	}
	return n.now
}

func (n *Normalizer) dateOrZero(fields map[string]any, param string) time.Time {
	v, ok := n.raw(fields, param)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := parseISODate(param, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}

// parseISODate parses "2006-01-02" and wraps failures in MalformedDateError.
func parseISODate(field, raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, &MalformedDateError{Field: field, Raw: raw}
	}
	return t, nil
}

// activities coerces the structured activity-breakdown list. Entries are
// maps ({code, caSharePercent}) or already-typed ActivityShare values.
func (n *Normalizer) activities(fields map[string]any) []ActivityShare {
	v, ok := n.raw(fields, ParamActivities)
	if !ok {
		return nil
	}

	switch list := v.(type) {
	case []ActivityShare:
		return list
	case []any:
		var out []ActivityShare
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			code, _ := m["code"].(string)
			if code == "" {
				continue
			}
			out = append(out, ActivityShare{
				Code:         code,
				SharePercent: anyToDecimal(m["caSharePercent"]),
			})
		}
		return out
	default:
		return nil
	}
}

// lossHistory coerces the structured loss-history list (0..5 entries).
func (n *Normalizer) lossHistory(fields map[string]any) []LossHistoryEntry {
	v, ok := n.raw(fields, ParamLossHistory)
	if !ok {
		return nil
	}

	switch list := v.(type) {
	case []LossHistoryEntry:
		return list
	case []any:
		var out []LossHistoryEntry
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			year := int(anyToDecimal(m["annee"]).IntPart())
			if year == 0 {
				continue
			}
			out = append(out, LossHistoryEntry{
				Year:      year,
				NumClaims: int(anyToDecimal(m["nombreSinistres"]).IntPart()),
				TotalCost: anyToDecimal(m["coutTotal"]),
			})
		}
		return out
	default:
		return nil
	}
}

func anyToDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// DefaultFieldMappings returns the mapping table where form field names
// equal engine parameter names, the common case for API callers.
func DefaultFieldMappings() []FieldMapping {
	kinds := map[string]FieldKind{
		ParamTurnover:           KindNumber,
		ParamHeadcount:          KindNumber,
		ParamActivities:         KindActivityBreakdown,
		ParamCreationDate:       KindDate,
		ParamYearsExperience:    KindNumber,
		ParamDirectorExperience: KindNumber,
		ParamQualified:          KindBoolean,
		ParamPriorInsurer:       KindText,
		ParamPriorStatus:        KindSelect,
		ParamContinuousCover:    KindNumber,
		ParamPriorCoverEnd:      KindDate,
		ParamInactive:           KindBoolean,
		ParamLossHistory:        KindLossHistory,
		ParamClaimsOptIn:        KindBoolean,
		ParamEffectiveDate:      KindDate,
		ParamContractYears:      KindNumber,
		ParamFrequency:          KindSelect,
		ParamLegalProtection:    KindBoolean,
		ParamBalanceSheet:       KindBoolean,
	}
	out := make([]FieldMapping, 0, len(kinds))
	for param, kind := range kinds {
		out = append(out, FieldMapping{Param: param, Field: param, Kind: kind})
	}
	return out
}
