package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/request"
	"github.com/benvon/selfspeak/internal/services/journal"
	"github.com/benvon/selfspeak/internal/validation"
)

// JournalService is the set of journal operations served over HTTP
type JournalService interface {
	SaveEntry(ctx context.Context, userID, date, content string) (*journal.SaveResult, error)
	AnalyzeEntry(ctx context.Context, userID, date string) (*journal.AnalyzeResult, error)
	GetToday(ctx context.Context, userID string) (*journal.TodayResult, error)
	GetRange(ctx context.Context, userID, start, end string) ([]*models.DayRecord, error)
}

var _ JournalService = (*journal.Service)(nil)

// JournalHandler handles journal entry requests
type JournalHandler struct {
	svc    JournalService
	logger *zap.Logger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(svc JournalService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers journal routes on the given router
// The router should already have the /api/v1/journal prefix
func (h *JournalHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/save", h.SaveEntry).Methods("POST")
	r.HandleFunc("/analyze", h.AnalyzeEntry).Methods("POST")
	r.HandleFunc("/today", h.GetToday).Methods("GET")
	r.HandleFunc("/range", h.GetRange).Methods("GET")
}

// SaveEntryRequest is the body of POST /journal/save
type SaveEntryRequest struct {
	Content string `json:"content" validate:"required"`
	Date    string `json:"date" validate:"entry_date"`
}

// AnalyzeEntryRequest is the optional body of POST /journal/analyze
type AnalyzeEntryRequest struct {
	Date string `json:"date" validate:"entry_date"`
}

// SaveEntry handles POST /api/v1/journal/save
func (h *JournalHandler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	var req SaveEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res, err := h.svc.SaveEntry(r.Context(), user.ID, req.Date, req.Content)
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	respondJSON(w, status, res)
}

// AnalyzeEntry handles POST /api/v1/journal/analyze. The date may come
// from the query string or an optional JSON body.
func (h *JournalHandler) AnalyzeEntry(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	req := AnalyzeEntryRequest{Date: r.URL.Query().Get("date")}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondJSONError(w, http.StatusBadRequest, "invalid_input", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res, err := h.svc.AnalyzeEntry(r.Context(), user.ID, req.Date)
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSONWithUsage(w, http.StatusOK, res, res.Usage)
}

// GetToday handles GET /api/v1/journal/today
func (h *JournalHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	res, err := h.svc.GetToday(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSONWithUsage(w, http.StatusOK, res, res.Usage)
}

// GetRange handles GET /api/v1/journal/range?start=&end=
func (h *JournalHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	q := r.URL.Query()
	records, err := h.svc.GetRange(r.Context(), user.ID, q.Get("start"), q.Get("end"))
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"entries": records,
		"count":   len(records),
	})
}
