/*
handlers.go - HTTP handlers of the quoting host

PURPOSE:
  Thin collaborator surface around the pure rating engine: it supplies a
  rating input, receives a result to store and render, and requests
  recomputation after a manual edit. No business logic lives here.

ENDPOINTS:
  POST /api/quotes/compute        normalize + rate, snapshot when a ref is given
  POST /api/quotes/{ref}/patch    re-derive from the latest snapshot
  GET  /api/quotes/{ref}          latest snapshot
  GET  /api/quotes/{ref}/history  all snapshots, newest first
  POST /api/schedule              standalone schedule generation
  GET  /api/tariff/version        active tariff book version

SEE ALSO:
  - server.go: routing and middleware
  - rating/patch.go: the re-derivation contract
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/rating-engine/rating"
	"github.com/warp/rating-engine/schedule"
	"github.com/warp/rating-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine     *rating.Engine
	Normalizer *rating.Normalizer
	Store      *sqlite.Store
}

// NewHandler wires the engine, the default field mapping and the store.
func NewHandler(engine *rating.Engine, store *sqlite.Store) (*Handler, error) {
	normalizer, err := rating.NewNormalizer(rating.DefaultFieldMappings(), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &Handler{Engine: engine, Normalizer: normalizer, Store: store}, nil
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// Compute normalizes and rates one submission.
// POST /api/quotes/compute
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input, err := h.Normalizer.Normalize(req.Fields)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Normalization failed", err)
		return
	}

	result, err := h.Engine.Compute(input)
	if err != nil {
		status := http.StatusInternalServerError
		if rating.IsValidation(err) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "Rating failed", err)
		return
	}

	if req.QuoteRef != "" {
		if err := h.snapshot(r, req.QuoteRef, result); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store snapshot", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// Patch applies a manual edit to the latest snapshot of a quote and
// appends the re-derived result as a new snapshot.
// POST /api/quotes/{ref}/patch
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	value, err := decimal.NewFromString(req.NewValue.String())
	if err != nil {
		writeError(w, http.StatusBadRequest, "newValue is not a number", err)
		return
	}

	snap, err := h.Store.Latest(r.Context(), ref)
	if errors.Is(err, sqlite.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "Quote has no snapshot", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}

	var result rating.CalculationResult
	if err := json.Unmarshal(snap.Payload, &result); err != nil {
		writeError(w, http.StatusInternalServerError, "Stored snapshot is unreadable", err)
		return
	}

	patched, err := h.Engine.Apply(&result, req.FieldPath, value)
	if err != nil {
		status := http.StatusInternalServerError
		if rating.IsValidation(err) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "Patch failed", err)
		return
	}

	if err := h.snapshot(r, ref, patched); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, patched)
}

// Latest returns the most recent snapshot of a quote.
// GET /api/quotes/{ref}
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	snap, err := h.Store.Latest(r.Context(), ref)
	if errors.Is(err, sqlite.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "Quote has no snapshot", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snap))
}

// History returns every snapshot of a quote, newest first.
// GET /api/quotes/{ref}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	snaps, err := h.Store.History(r.Context(), ref)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	out := make([]SnapshotResponse, len(snaps))
	for i := range snaps {
		out[i] = toSnapshotResponse(&snaps[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// SCHEDULE / TARIFF HANDLERS
// =============================================================================

// GenerateSchedule runs the schedule generator standalone.
// POST /api/schedule
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse("2006-01-02", req.DateEffet)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dateEffet", err)
		return
	}

	totals := schedule.Totals{
		PrimeHT:             rating.Rate(req.Totaux["primeHT"]),
		ProtectionJuridique: rating.Rate(req.Totaux["protectionJuridique"]),
		FraisFractionnement: rating.Rate(req.Totaux["fraisFractionnement"]),
		FraisGestion:        rating.Rate(req.Totaux["fraisGestion"]),
		ReprisePasse:        rating.Rate(req.Totaux["reprisePasse"]),
		Taxe:                rating.Rate(req.Totaux["taxe"]),
		TotalTTC:            rating.Rate(req.Totaux["totalTTC"]),
	}

	ech, err := schedule.Generate(schedule.Spec{
		Start:     start,
		Years:     req.AnneesContrat,
		Frequency: schedule.Frequency(req.Frequence),
		Totals:    totals,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Schedule generation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ech)
}

// TariffVersion reports the active tariff book version.
// GET /api/tariff/version
func (h *Handler) TariffVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.Engine.Book().Version})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) snapshot(r *http.Request, ref string, result *rating.CalculationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = h.Store.Append(r.Context(), ref, payload)
	return err
}

func toSnapshotResponse(snap *sqlite.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:        snap.ID,
		QuoteRef:  snap.QuoteRef,
		CreatedAt: snap.CreatedAt.Format(time.RFC3339),
		Payload:   snap.Payload,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
