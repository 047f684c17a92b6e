package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/printcraft/personalization/internal/pkg/logger"
	"github.com/printcraft/personalization/internal/recommendation"
)

// RecommendationsResponse carries a recommendation batch for one customer.
type RecommendationsResponse struct {
	CustomerID      string                                 `json:"customer_id"`
	Recommendations []recommendation.ProductRecommendation `json:"recommendations"`
	Cached          bool                                   `json:"cached"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "customer ID is required")
		return
	}

	limit := s.cfg.Personalization.RecommendationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	// The existence check runs before the cache read so a deleted customer
	// stops getting batches immediately, not at TTL expiry.
	customer, err := s.store.GetCustomer(r.Context(), customerID)
	if err != nil {
		logger.Error("recommendations: load customer failed", "customer_id", customerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}
	if customer == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	if recs, ok := s.cache.GetRecommendations(r.Context(), customerID, limit); ok {
		writeJSON(w, http.StatusOK, RecommendationsResponse{
			CustomerID:      customerID,
			Recommendations: recs,
			Cached:          true,
		})
		return
	}

	engine := recommendation.NewEngine(*customer)
	recs, err := engine.GenerateRecommendations(r.Context(), limit)
	if err != nil {
		logger.Error("recommendations: generate failed", "customer_id", customerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to generate recommendations")
		return
	}

	s.cache.SetRecommendations(r.Context(), customerID, limit, recs)

	writeJSON(w, http.StatusOK, RecommendationsResponse{
		CustomerID:      customerID,
		Recommendations: recs,
		Cached:          false,
	})
}
