package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpattn/staffing/internal/logging"
)

func TestLoggingMiddlewareRecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("info", "json", &buf)

	var scoped bool
	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = logging.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/clients/import", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !scoped {
		t.Fatalf("expected request scoped logger in context")
	}
	if rec.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("expected request id echoed, got %q", rec.Header().Get("X-Request-ID"))
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one json log line: %v (%s)", err, buf.String())
	}
	if line["status"] != float64(http.StatusUnprocessableEntity) {
		t.Fatalf("unexpected status field: %v", line["status"])
	}
	if line["request_id"] != "req-42" || line["path"] != "/api/clients/import" {
		t.Fatalf("unexpected log line: %v", line)
	}
}
