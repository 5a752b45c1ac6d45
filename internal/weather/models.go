package weather

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/i474232898/ha-weather-tool/internal/config"
)

// SensorKind names the role a hub sensor plays in the report.
type SensorKind string

const (
	SensorHourlyForecast  SensorKind = "hourly_forecast"
	SensorDailyForecast   SensorKind = "daily_forecast"
	SensorCurrent         SensorKind = "current"
	SensorRange           SensorKind = "current_range"
	SensorCurrentDateTime SensorKind = "current_date_time"
)

// sensorKinds is the fixed order in which sensors are fetched and checked.
var sensorKinds = []SensorKind{
	SensorHourlyForecast,
	SensorDailyForecast,
	SensorCurrent,
	SensorRange,
	SensorCurrentDateTime,
}

// Sensor binds a role to the hub entity id configured for it.
type Sensor struct {
	Kind SensorKind
	ID   string
}

// Sensors returns the five sensors of a report in the order failures are
// reported.
func Sensors(v config.Valves) []Sensor {
	return []Sensor{
		{Kind: SensorHourlyForecast, ID: v.HourlyForecastSensor},
		{Kind: SensorDailyForecast, ID: v.DailyForecastSensor},
		{Kind: SensorCurrent, ID: v.CurrentSensor},
		{Kind: SensorRange, ID: v.RangeSensor},
		{Kind: SensorCurrentDateTime, ID: v.CurrentDateTimeSensor},
	}
}

// Reading is one decoded state document from the hub. Values are the
// generic JSON kinds: nil, bool, json.Number, string, []any, map[string]any.
type Reading map[string]any

// WeatherDocument is the assembled report handed back to the caller.
type WeatherDocument struct {
	CurrentDateTime  any            `json:"current_date_time"`
	CurrentTimezone  string         `json:"current_timezone"`
	CurrentLocation  string         `json:"current_location"`
	CurrentWeather   CurrentWeather `json:"current_weather"`
	WeatherForecasts Forecasts      `json:"weather_forecasts"`
}

// CurrentWeather groups the current readings. Group values are strings
// carrying their unit, or nil.
type CurrentWeather struct {
	Temperatures map[string]any `json:"temperatures"`
	Humidities   map[string]any `json:"humidities"`
	Pressures    map[string]any `json:"pressures"`
	Lux          any            `json:"lux"`
}

// Forecasts holds the forecast entries as received, with datetime fields
// normalized.
type Forecasts struct {
	Hourly []map[string]any `json:"hourly_forecast"`
	Daily  []map[string]any `json:"daily_forecast"`
}

// Report is one produced document with bookkeeping for history and
// publishing.
type Report struct {
	ID        string          `json:"id"`
	FetchedAt time.Time       `json:"fetched_at"`
	Failed    bool            `json:"failed"`
	Document  json.RawMessage `json:"document"`
}

// JSON serializes the document compactly without HTML escaping.
func (d *WeatherDocument) JSON() (string, error) {
	return marshalCompact(d)
}

// ErrorDocument renders err as {"error": "<message>"}.
func ErrorDocument(err error) string {
	out, mErr := marshalCompact(map[string]string{"error": err.Error()})
	if mErr != nil {
		// A map of strings always encodes.
		return `{"error":"internal error"}`
	}
	return out
}

func marshalCompact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
