package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/health", "", nil)
	if err := NewHealthHandler(nil).Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	c, rec := newTestContext(http.MethodGet, "/health/ready", "", nil)
	if err := NewHealthHandler(map[string]Pinger{"mongodb": ok, "redis": ok}).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = newTestContext(http.MethodGet, "/health/ready", "", nil)
	if err := NewHealthHandler(map[string]Pinger{"mongodb": ok, "redis": down}).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("unexpected readiness: %+v", resp)
	}
}
