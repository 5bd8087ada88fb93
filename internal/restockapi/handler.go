package restockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/api/handlers"
	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

// Recommender is the restock service as the handler sees it.
type Recommender interface {
	RecommendBatch(ctx context.Context, items []domain.RestockItem) ([]domain.RestockRecommendation, error)
}

type Handler struct {
	svc    Recommender
	status handlers.StatusReporter
}

func NewHandler(svc Recommender, status handlers.StatusReporter) *Handler {
	return &Handler{svc: svc, status: status}
}

// RecommendBatch handles POST /api/recommend_batch.
func (h *Handler) RecommendBatch(w http.ResponseWriter, r *http.Request) {
	var req domain.RestockBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := getValidator().Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	recs, err := h.svc.RecommendBatch(r.Context(), req.InventoryItems)
	if err != nil {
		status := statusFor(err)
		log.Error().Err(err).Int("status", status).Int("items", len(req.InventoryItems)).Msg("Restock batch failed")
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, recs)
}

// Health reports per-capability artifact status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	statuses := h.status.Status()
	status := "ok"
	for _, s := range statuses {
		if !s.Available {
			status = "degraded"
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": status, "artifacts": statuses})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidHistoryLength), errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
