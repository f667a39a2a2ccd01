package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const samplePayload = `{
	"name": "Seoul",
	"weather": [{"description": "clear sky", "icon": "01d"}],
	"main": {"temp": 21.5, "feels_like": 20.9, "humidity": 40},
	"wind": {"speed": 3.2}
}`

func TestClient_Current(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("appid") != "test-key" {
			t.Errorf("appid = %q, want %q", q.Get("appid"), "test-key")
		}
		if q.Get("units") != "metric" {
			t.Errorf("units = %q, want metric", q.Get("units"))
		}
		if q.Get("lat") == "" || q.Get("lon") == "" {
			t.Error("expected lat/lon in query")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	report, err := client.Current(context.Background(), 37.5665, 126.978)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	if report.Location != "Seoul" {
		t.Errorf("Location = %q, want Seoul", report.Location)
	}
	if report.TempC != 21.5 {
		t.Errorf("TempC = %v, want 21.5", report.TempC)
	}
	if report.Description != "clear sky" {
		t.Errorf("Description = %q, want %q", report.Description, "clear sky")
	}
	if report.Humidity != 40 {
		t.Errorf("Humidity = %d, want 40", report.Humidity)
	}
}

func TestClient_CachesByCoordinate(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithCacheTTL(time.Hour))

	for i := 0; i < 3; i++ {
		if _, err := client.Current(context.Background(), 37.5665, 126.978); err != nil {
			t.Fatalf("Current: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream called %d times, want 1", got)
	}

	// Different coordinates miss the cache.
	if _, err := client.Current(context.Background(), 35.1796, 129.0756); err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream called %d times, want 2", got)
	}
}

func TestClient_UpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))
	if _, err := client.Current(context.Background(), 37.5665, 126.978); err == nil {
		t.Error("expected error for upstream 401")
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "Seoul"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	report, err := client.Current(context.Background(), 37.5665, 126.978)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
}

func TestClient_MissingAPIKey(t *testing.T) {
	t.Parallel()

	client := NewClient("")
	if _, err := client.Current(context.Background(), 0, 0); err != ErrMissingAPIKey {
		t.Errorf("error = %v, want ErrMissingAPIKey", err)
	}
}
