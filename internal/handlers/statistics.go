package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-maintenance/internal/stats"
)

// StatisticsHandler serves the per-user maintenance statistics rollup.
type StatisticsHandler struct {
	statsService *stats.Service
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(statsService *stats.Service) *StatisticsHandler {
	return &StatisticsHandler{statsService: statsService}
}

// Get computes and returns the caller's statistics report. The report is
// recomputed on every request; nothing is cached.
func (h *StatisticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	report, err := h.statsService.UserStatistics(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to compute statistics")
		http.Error(w, "Failed to fetch statistics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
