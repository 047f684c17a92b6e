package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/printcraft/personalization/internal/pkg/logger"
)

var errCustomerNotFound = errors.New("customer not found")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
