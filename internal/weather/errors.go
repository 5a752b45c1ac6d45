package weather

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is; each typed error below matches exactly one.
var (
	ErrConfigMissing = errors.New("configuration missing")
	ErrNetwork       = errors.New("network error")
	ErrStatus        = errors.New("sensor not found or api error")
	ErrInvalidJSON   = errors.New("invalid json")
	ErrExtraction    = errors.New("error extracting attributes")
	ErrNoData        = errors.New("no data returned")
	ErrEmptyForecast = errors.New("empty forecast")
)

// ConfigMissingError lists required valves that are empty.
type ConfigMissingError struct {
	Fields []string
}

func (e *ConfigMissingError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f+" is not set.")
	}
	return strings.Join(msgs, " ")
}

func (e *ConfigMissingError) Is(target error) bool { return target == ErrConfigMissing }

// NetworkError is a transport failure talking to the hub.
type NetworkError struct {
	Sensor string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Network error fetching '%s': %v", e.Sensor, e.Err)
}

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }
func (e *NetworkError) Unwrap() error        { return e.Err }

// StatusError is any non-200 answer from the hub.
type StatusError struct {
	Sensor string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Sensor '%s' not found or API error (status %d).", e.Sensor, e.Code)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// InvalidJSONError is a 200 answer whose body does not decode.
type InvalidJSONError struct {
	Sensor string
	Err    error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("Invalid JSON from sensor '%s'.", e.Sensor)
}

func (e *InvalidJSONError) Is(target error) bool { return target == ErrInvalidJSON }
func (e *InvalidJSONError) Unwrap() error        { return e.Err }

// ExtractionError is a payload whose structure does not match what the
// report needs.
type ExtractionError struct {
	Detail string
}

func (e *ExtractionError) Error() string {
	return "Error extracting attributes: " + e.Detail
}

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// NoDataError is a sensor that answered 200 with a JSON null body.
type NoDataError struct {
	Kind SensorKind
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("No data returned for '%s' sensor.", e.Kind)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// EmptyForecastError reports a forecast sequence with no entries.
type EmptyForecastError struct {
	Which string // "hourly" or "daily"
}

func (e *EmptyForecastError) Error() string {
	return fmt.Sprintf("No %s forecast data available.", e.Which)
}

func (e *EmptyForecastError) Is(target error) bool { return target == ErrEmptyForecast }
