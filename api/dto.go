/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers returned to clients

VALIDATION:
  Validation is done in handlers and in the engine itself; DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - rating/engine.go: CalculationResult, serialized as-is
*/
package api

import "encoding/json"

// ComputeRequest carries the loosely-typed field map of one rating call,
// exactly as the quoting UI submits it. The field names follow the default
// mapping table (rating.DefaultFieldMappings).
type ComputeRequest struct {
	QuoteRef string         `json:"quoteRef,omitempty"`
	Fields   map[string]any `json:"fields"`
}

// PatchRequest edits one leaf field of the latest computed result.
type PatchRequest struct {
	FieldPath string      `json:"fieldPath"`
	NewValue  json.Number `json:"newValue"`
}

// ScheduleRequest invokes the schedule generator standalone.
type ScheduleRequest struct {
	DateEffet     string            `json:"dateEffet"`
	AnneesContrat int               `json:"anneesContrat"`
	Frequence     string            `json:"frequence"`
	Totaux        map[string]string `json:"totaux"`
}

// SnapshotResponse wraps one stored snapshot.
type SnapshotResponse struct {
	ID        int64           `json:"id"`
	QuoteRef  string          `json:"quoteRef"`
	CreatedAt string          `json:"createdAt"`
	Payload   json.RawMessage `json:"payload"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
