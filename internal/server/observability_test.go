package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evacdesk/evacdesk/internal/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEngineMiddlewareStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := NewEngine(config.Config{}, zap.New(core))

	// A request through a registered route is logged and counted.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a request id header")
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["route"] != "/health" {
		t.Fatalf("unexpected route field: %v", ctx["route"])
	}
	if ctx["status"] != int64(http.StatusOK) {
		t.Fatalf("unexpected status field: %v", ctx["status"])
	}
	if _, ok := ctx["request_id"]; !ok {
		t.Fatal("expected request_id field")
	}

	// The scrape endpoint reports the request counter for that route.
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Fatalf("request counter missing from scrape:\n%s", body)
	}
	if !strings.Contains(body, "http_request_duration_seconds_bucket") {
		t.Fatal("latency histogram missing from scrape")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewEngine(config.Config{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

func TestErrorRequestsLoggedWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := NewEngine(config.Config{}, zap.New(core))

	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, ErrUnauthorized)
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Fatalf("expected warn level for 4xx, got %v", entries[0].Level)
	}
	if _, ok := entries[0].ContextMap()["error"]; !ok {
		t.Fatal("expected error field on failed request log")
	}
}
