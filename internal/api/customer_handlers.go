package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printcraft/personalization/internal/pkg/logger"
)

// handleRefreshCustomer drops every cached preview and recommendation batch
// for one customer. Upstream systems call it after mutating the customer
// record so the next request re-renders from fresh data.
func (s *Server) handleRefreshCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "customer ID is required")
		return
	}

	if err := s.cache.InvalidateCustomer(r.Context(), customerID); err != nil {
		logger.Error("refresh: invalidate failed", "customer_id", customerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to invalidate cached entries")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
