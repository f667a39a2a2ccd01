package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yeojun7429/portfolio-api/internal/events"
)

func TestHealthCheck_BasicMode(t *testing.T) {
	t.Parallel()

	checker := NewHealthChecker(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	checker.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Checks != nil {
		t.Errorf("basic mode should not include checks, got %v", response.Checks)
	}
	if response.Timestamp == "" {
		t.Error("expected a timestamp")
	}
}

func TestHealthCheck_ExtendedMode(t *testing.T) {
	t.Parallel()

	bus := events.NewMemoryBus()
	defer func() {
		if err := bus.Close(); err != nil {
			t.Errorf("failed to close bus: %v", err)
		}
	}()

	checker := NewHealthChecker(nil, bus)

	req := httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil)
	rr := httptest.NewRecorder()
	checker.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Checks["bus"] != "healthy" {
		t.Errorf("expected bus check healthy, got %q", response.Checks["bus"])
	}
	if response.Checks["database"] != "not configured" {
		t.Errorf("expected database check 'not configured', got %q", response.Checks["database"])
	}
}

func TestHealthCheck_ExtendedMode_UnhealthyBus(t *testing.T) {
	t.Parallel()

	bus := events.NewMemoryBus()
	if err := bus.Close(); err != nil {
		t.Fatalf("failed to close bus: %v", err)
	}

	checker := NewHealthChecker(nil, bus)

	req := httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil)
	rr := httptest.NewRecorder()
	checker.HealthCheck(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "unhealthy" {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
}
