package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/selfspeak/internal/apperror"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/request"
	"github.com/benvon/selfspeak/internal/services/journal"
)

type mockJournalService struct {
	saveCalls   []string
	analyzeDate string
	rangeArgs   [2]string
	weekStart   string

	saveResult    *journal.SaveResult
	analyzeResult *journal.AnalyzeResult
	todayResult   *journal.TodayResult
	rangeResult   []*models.DayRecord
	insight       *models.InsightResponse
	err           error
}

func (m *mockJournalService) SaveEntry(_ context.Context, _, date, content string) (*journal.SaveResult, error) {
	m.saveCalls = append(m.saveCalls, date+"|"+content)
	return m.saveResult, m.err
}

func (m *mockJournalService) AnalyzeEntry(_ context.Context, _, date string) (*journal.AnalyzeResult, error) {
	m.analyzeDate = date
	return m.analyzeResult, m.err
}

func (m *mockJournalService) GetToday(context.Context, string) (*journal.TodayResult, error) {
	return m.todayResult, m.err
}

func (m *mockJournalService) GetRange(_ context.Context, _, start, end string) ([]*models.DayRecord, error) {
	m.rangeArgs = [2]string{start, end}
	return m.rangeResult, m.err
}

func (m *mockJournalService) GetWeeklyDashboard(_ context.Context, _, weekStart string) (*models.InsightResponse, error) {
	m.weekStart = weekStart
	return m.insight, m.err
}

var testUser = &models.User{ID: "user-1", Email: "writer@example.com"}

func newTestRouter(svc *mockJournalService) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	NewJournalHandler(svc, zap.NewNop()).RegisterRoutes(api.PathPrefix("/journal").Subrouter())
	NewInsightHandler(svc, zap.NewNop()).RegisterRoutes(api.PathPrefix("/insights").Subrouter())
	NewAuthHandler().RegisterRoutes(api.PathPrefix("/auth").Subrouter())
	return r
}

func serve(r http.Handler, method, target, body string, user *models.User) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		req = req.WithContext(request.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJournalHandler_SaveEntry(t *testing.T) {
	t.Parallel()

	entry := &models.JournalEntry{EntryDate: "2024-03-13", Content: "Today I chose rest."}

	tests := []struct {
		name       string
		body       string
		result     *journal.SaveResult
		err        error
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "created",
			body:       `{"content":"Today I chose rest.","date":"2024-03-13"}`,
			result:     &journal.SaveResult{Entry: entry, Created: true, Message: "Journal entry created"},
			wantStatus: http.StatusCreated,
			wantCalls:  1,
		},
		{
			name:       "updated",
			body:       `{"content":"Today I chose rest."}`,
			result:     &journal.SaveResult{Entry: entry, Message: "Journal entry updated"},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "missing content",
			body:       `{"date":"2024-03-13"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed date",
			body:       `{"content":"x","date":"13/03/2024"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"content":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "service rejects future date",
			body:       `{"content":"x","date":"2999-01-01"}`,
			err:        apperror.InvalidInput("save", "Entry date cannot be in the future"),
			wantStatus: http.StatusBadRequest,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockJournalService{saveResult: tt.result, err: tt.err}
			rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/journal/save", tt.body, testUser)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(svc.saveCalls) != tt.wantCalls {
				t.Errorf("service calls = %d, want %d", len(svc.saveCalls), tt.wantCalls)
			}
		})
	}
}

func TestJournalHandler_RequiresUser(t *testing.T) {
	t.Parallel()

	r := newTestRouter(&mockJournalService{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/journal/save"},
		{http.MethodPost, "/api/v1/journal/analyze"},
		{http.MethodGet, "/api/v1/journal/today"},
		{http.MethodGet, "/api/v1/journal/range?start=2024-03-01&end=2024-03-07"},
		{http.MethodGet, "/api/v1/insights/weekly"},
		{http.MethodGet, "/api/v1/auth/me"},
	} {
		if rec := serve(r, tc.method, tc.path, "", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestJournalHandler_AnalyzeEntry(t *testing.T) {
	t.Parallel()

	usage := models.UsageSummary{Count: 1, Limit: 2, WeekStart: "2024-03-11", ResetsOn: "2024-03-18"}

	t.Run("date from query", func(t *testing.T) {
		t.Parallel()
		svc := &mockJournalService{analyzeResult: &journal.AnalyzeResult{
			Analysis: &models.DailyAnalysis{ConfidenceScore: 70},
			Usage:    usage,
		}}
		rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/journal/analyze?date=2024-03-12", "", testUser)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if svc.analyzeDate != "2024-03-12" {
			t.Errorf("date = %q, want 2024-03-12", svc.analyzeDate)
		}
		body := decodeEnvelope(t, rec)
		if u, ok := body["usage"].(map[string]any); !ok || u["count"] != float64(1) {
			t.Errorf("usage = %v", body["usage"])
		}
	})

	t.Run("date from body", func(t *testing.T) {
		t.Parallel()
		svc := &mockJournalService{analyzeResult: &journal.AnalyzeResult{Analysis: &models.DailyAnalysis{}}}
		rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/journal/analyze", `{"date":"2024-03-10"}`, testUser)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if svc.analyzeDate != "2024-03-10" {
			t.Errorf("date = %q, want 2024-03-10", svc.analyzeDate)
		}
	})

	t.Run("quota exceeded", func(t *testing.T) {
		t.Parallel()
		svc := &mockJournalService{err: apperror.QuotaExceeded("analyze", models.UsageSummary{Count: 2, Limit: 2})}
		rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/journal/analyze", "", testUser)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want 429", rec.Code)
		}
		body := decodeEnvelope(t, rec)
		if body["message"] != "Weekly analysis limit reached (2/2). Resets next Monday." {
			t.Errorf("message = %v", body["message"])
		}
	})

	t.Run("missing entry", func(t *testing.T) {
		t.Parallel()
		svc := &mockJournalService{err: apperror.NotFound("analyze", "No journal entry for this date. Save an entry first.")}
		rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/journal/analyze?date=2024-03-01", "", testUser)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestJournalHandler_GetToday(t *testing.T) {
	t.Parallel()

	svc := &mockJournalService{todayResult: &journal.TodayResult{
		Usage: models.UsageSummary{Count: 0, Limit: 2, WeekStart: "2024-03-11", ResetsOn: "2024-03-18"},
	}}
	rec := serve(newTestRouter(svc), http.MethodGet, "/api/v1/journal/today", "", testUser)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("data = %v", body["data"])
	}
	if data["journal_entry"] != nil || data["analysis"] != nil {
		t.Errorf("expected null entry and analysis, got %v", data)
	}
	if _, ok := body["usage"]; !ok {
		t.Error("expected usage")
	}
}

func TestJournalHandler_GetRange(t *testing.T) {
	t.Parallel()

	svc := &mockJournalService{rangeResult: []*models.DayRecord{
		{Entry: &models.JournalEntry{EntryDate: "2024-03-01"}},
		{Entry: &models.JournalEntry{EntryDate: "2024-03-02"}},
	}}
	rec := serve(newTestRouter(svc), http.MethodGet, "/api/v1/journal/range?start=2024-03-01&end=2024-03-07", "", testUser)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.rangeArgs != [2]string{"2024-03-01", "2024-03-07"} {
		t.Errorf("range args = %v", svc.rangeArgs)
	}
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]any)
	if data["count"] != float64(2) {
		t.Errorf("count = %v, want 2", data["count"])
	}
}

func TestInsightHandler_GetWeekly(t *testing.T) {
	t.Parallel()

	svc := &mockJournalService{insight: &models.InsightResponse{EntryCount: 3, Status: models.InsightGenerated}}
	rec := serve(newTestRouter(svc), http.MethodGet, "/api/v1/insights/weekly?week_start=2024-03-11", "", testUser)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.weekStart != "2024-03-11" {
		t.Errorf("week_start = %q", svc.weekStart)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["status"] != "generated" {
		t.Errorf("status = %v", data["status"])
	}

	svc = &mockJournalService{err: apperror.NotFound("weekly", "No journal analyses found for this week")}
	rec = serve(newTestRouter(svc), http.MethodGet, "/api/v1/insights/weekly", "", testUser)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAuthHandler_GetMe(t *testing.T) {
	t.Parallel()

	rec := serve(newTestRouter(&mockJournalService{}), http.MethodGet, "/api/v1/auth/me", "", testUser)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["id"] != "user-1" || data["email"] != "writer@example.com" {
		t.Errorf("data = %v", data)
	}
}
