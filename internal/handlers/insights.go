package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/request"
	"github.com/benvon/selfspeak/internal/services/journal"
)

// DashboardService serves the weekly dashboard
type DashboardService interface {
	GetWeeklyDashboard(ctx context.Context, userID, weekStart string) (*models.InsightResponse, error)
}

var _ DashboardService = (*journal.Service)(nil)

// InsightHandler handles weekly insight requests
type InsightHandler struct {
	svc    DashboardService
	logger *zap.Logger
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(svc DashboardService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers insight routes on the given router
// The router should already have the /api/v1/insights prefix
func (h *InsightHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/weekly", h.GetWeekly).Methods("GET")
}

// GetWeekly handles GET /api/v1/insights/weekly?week_start=
func (h *InsightHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	resp, err := h.svc.GetWeeklyDashboard(r.Context(), user.ID, r.URL.Query().Get("week_start"))
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
