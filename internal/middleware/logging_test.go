package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		method    string
		path      string
		status    int
		body      string
		wantLevel zapcore.Level
	}{
		{name: "ok", method: http.MethodGet, path: "/api/v1/journal/today", status: http.StatusOK, body: `{"success":true}`, wantLevel: zapcore.InfoLevel},
		{name: "created", method: http.MethodPost, path: "/api/v1/journal/save", status: http.StatusCreated, wantLevel: zapcore.InfoLevel},
		{name: "quota exceeded", method: http.MethodPost, path: "/api/v1/journal/analyze", status: http.StatusTooManyRequests, wantLevel: zapcore.WarnLevel},
		{name: "engine failure", method: http.MethodPost, path: "/api/v1/journal/analyze", status: http.StatusBadGateway, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			handler := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("expected one access log entry, got %d", len(entries))
			}
			entry := entries[0]
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", entry.Level, tt.wantLevel)
			}
			fields := entry.ContextMap()
			if fields["status_code"] != int64(tt.status) {
				t.Errorf("status_code = %v", fields["status_code"])
			}
			if fields["bytes"] != int64(len(tt.body)) {
				t.Errorf("bytes = %v, want %d", fields["bytes"], len(tt.body))
			}
			if fields["path"] != tt.path {
				t.Errorf("path = %v", fields["path"])
			}
		})
	}
}

func TestLogging_RouteTemplate(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	r := mux.NewRouter()
	r.Use(Logging(zap.New(core)))
	r.HandleFunc("/api/v1/journal/{op}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/journal/today", nil))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["route"]; got != "/api/v1/journal/{op}" {
		t.Errorf("route = %v", got)
	}
}
