package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/ha-weather-tool/internal/common"
	"github.com/i474232898/ha-weather-tool/internal/weather"
)

// HomeAssistant implements weather.StateFetcher against the hub REST API.
type HomeAssistant struct {
	baseURL string
	token   string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewHomeAssistant creates a client for the hub at baseURL authenticated with token.
func NewHomeAssistant(cfg HTTPClientConfig, baseURL, token string) *HomeAssistant {
	return &HomeAssistant{
		baseURL: baseURL,
		token:   token,
		httpCfg: cfg,
		circuit: newBreaker("homeassistant", cfg.BreakerFailures),
	}
}

// StateURL is the endpoint serving the state of sensorID.
func (p *HomeAssistant) StateURL(sensorID string) string {
	return common.JoinURL(p.baseURL, "api", "states", sensorID)
}

// FetchState issues GET /api/states/{sensorID}.
func (p *HomeAssistant) FetchState(ctx context.Context, sensorID string) (weather.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.StateURL(sensorID), nil)
	if err != nil {
		return nil, &weather.NetworkError{Sensor: sensorID, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(p.httpCfg, p.circuit, req)
	if err != nil {
		return nil, &weather.NetworkError{Sensor: sensorID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &weather.StatusError{Sensor: sensorID, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &weather.NetworkError{Sensor: sensorID, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, &weather.InvalidJSONError{Sensor: sensorID, Err: err}
	}
	if dec.More() {
		return nil, &weather.InvalidJSONError{Sensor: sensorID, Err: fmt.Errorf("trailing data after JSON value")}
	}

	switch v := payload.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return weather.Reading(v), nil
	default:
		return nil, &weather.ExtractionError{Detail: fmt.Sprintf("sensor '%s' returned %T, not an object", sensorID, payload)}
	}
}

var _ weather.StateFetcher = (*HomeAssistant)(nil)
