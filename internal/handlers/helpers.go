package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ukydev/vehicle-maintenance/internal/middleware"
	"github.com/ukydev/vehicle-maintenance/internal/models"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requireClaims extracts the authenticated caller from the request context.
// Writes 401 and returns false when the middleware did not run.
func requireClaims(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// messageResponse is the generic {id, message} delete confirmation.
type messageResponse struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}
