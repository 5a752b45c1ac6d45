package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/ha-weather-tool/internal/store"
	"github.com/i474232898/ha-weather-tool/internal/weather"
)

type fakeService struct {
	forecast string
	store    *store.MemoryStore
	calls    int
}

func (f *fakeService) CurrentForecast(ctx context.Context) string {
	f.calls++
	return f.forecast
}

func (f *fakeService) GetLatest() (weather.Report, error) { return f.store.GetLatest() }

func (f *fakeService) GetRange(from, to time.Time) ([]weather.Report, error) {
	return f.store.GetRange(from, to)
}

func newTestApp(svc WeatherService, middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	for _, m := range middleware {
		app.Use(m)
	}
	RegisterRoutes(app, svc, 5*time.Second)
	return app
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// TestForecastReturnsToolOutput verifies the tool's string is passed through
// verbatim, error documents included.
func TestForecastReturnsToolOutput(t *testing.T) {
	svc := &fakeService{forecast: `{"error":"HA_API_TOKEN is not set."}`, store: store.NewMemoryStore(0, 0)}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/forecast", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := readBody(t, resp); body != svc.forecast {
		t.Errorf("body = %q, want %q", body, svc.forecast)
	}
}

func TestLatest(t *testing.T) {
	mem := store.NewMemoryStore(0, 0)
	app := newTestApp(&fakeService{store: mem})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/latest", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, `"error"`) {
		t.Errorf("body = %q, want error document", body)
	}

	mem.SaveReport(weather.Report{ID: "r1", FetchedAt: time.Now().UTC(), Document: []byte(`{"current_timezone":"Europe/London"}`)})

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/latest", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var got struct {
		ID       string         `json:"id"`
		Document map[string]any `json:"document"`
	}
	if err := json.Unmarshal([]byte(readBody(t, resp)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "r1" || got.Document["current_timezone"] != "Europe/London" {
		t.Errorf("latest = %+v", got)
	}
}

// TestHistoryValidation verifies the history endpoint requires an ordered
// from/to pair.
func TestHistoryValidation(t *testing.T) {
	mem := store.NewMemoryStore(0, 0)
	at := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	mem.SaveReport(weather.Report{ID: "r1", FetchedAt: at, Document: []byte(`{}`)})
	app := newTestApp(&fakeService{store: mem})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "missing params", query: "", want: http.StatusBadRequest},
		{name: "bad format", query: "?from=yesterday&to=today", want: http.StatusBadRequest},
		{name: "to before from", query: "?from=2024-03-06T00:00:00Z&to=2024-03-05T00:00:00Z", want: http.StatusBadRequest},
		{name: "empty range", query: "?from=2024-01-01T00:00:00Z&to=2024-01-02T00:00:00Z", want: http.StatusNotFound},
		{name: "rfc3339", query: "?from=2024-03-05T00:00:00Z&to=2024-03-06T00:00:00Z", want: http.StatusOK},
		{name: "unix seconds", query: "?from=1709596800&to=1709683200", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/history"+tt.query, nil)
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	svc := &fakeService{forecast: `{}`, store: store.NewMemoryStore(0, 0)}
	app := newTestApp(svc, RateLimit(0.001, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/forecast", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first request: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/forecast", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request: expected status %d, got %d", http.StatusTooManyRequests, resp.StatusCode)
	}
	if svc.calls != 1 {
		t.Errorf("tool invoked %d times, want 1", svc.calls)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	svc := &fakeService{forecast: `{}`, store: store.NewMemoryStore(0, 0)}
	app := newTestApp(svc, RateLimit(0, 0))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/forecast", nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected status %d, got %d", i, http.StatusOK, resp.StatusCode)
		}
	}
}
