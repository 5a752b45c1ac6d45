package weather

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/i474232898/ha-weather-tool/internal/config"
)

// sensorData is what a report needs out of the five readings.
type sensorData struct {
	currentDateTime any
	hourly          []map[string]any
	daily           []map[string]any
	current         map[string]any
	ranges          map[string]any
}

// extract pulls the needed fields out of the readings. Absent attributes or
// forecast keys yield empty values; values of the wrong shape are errors.
func extract(readings map[SensorKind]Reading) (sensorData, error) {
	var (
		d   sensorData
		err error
	)

	for _, kind := range sensorKinds {
		if readings[kind] == nil {
			return d, &NoDataError{Kind: kind}
		}
	}

	if d.hourly, err = forecastOf(readings[SensorHourlyForecast], SensorHourlyForecast); err != nil {
		return d, err
	}
	if d.daily, err = forecastOf(readings[SensorDailyForecast], SensorDailyForecast); err != nil {
		return d, err
	}
	if d.current, err = attributesOf(readings[SensorCurrent], SensorCurrent); err != nil {
		return d, err
	}
	if d.ranges, err = attributesOf(readings[SensorRange], SensorRange); err != nil {
		return d, err
	}

	d.currentDateTime = readings[SensorCurrentDateTime]["state"]

	return d, nil
}

func attributesOf(r Reading, kind SensorKind) (map[string]any, error) {
	raw, ok := r["attributes"]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	attrs, ok := raw.(map[string]any)
	if !ok {
		return nil, &ExtractionError{Detail: fmt.Sprintf("attributes of '%s' sensor is %T, not an object", kind, raw)}
	}
	return attrs, nil
}

func forecastOf(r Reading, kind SensorKind) ([]map[string]any, error) {
	attrs, err := attributesOf(r, kind)
	if err != nil {
		return nil, err
	}
	raw, ok := attrs["forecast"]
	if !ok || raw == nil {
		return []map[string]any{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, &ExtractionError{Detail: fmt.Sprintf("forecast of '%s' sensor is %T, not a list", kind, raw)}
	}
	entries := make([]map[string]any, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &ExtractionError{Detail: fmt.Sprintf("forecast entry %d of '%s' sensor is %T, not an object", i, kind, item)}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// assemble maps the extracted values onto the output document. Datetimes
// must already be normalized.
func assemble(v config.Valves, d sensorData) *WeatherDocument {
	temps := map[string]any{
		"current_temperature": withUnit(d.current["temperature"], v.TemperatureUnit),
		"temperature_high":    withUnit(d.ranges["max_temperature"], v.TemperatureUnit),
		"temperature_low":     withUnit(d.ranges["min_temperature"], v.TemperatureUnit),
	}
	hums := map[string]any{
		"humidity":      withUnit(d.current["humidity"], v.HumidityUnit),
		"humidity_high": withUnit(d.ranges["max_humidity"], v.HumidityUnit),
		"humidity_low":  withUnit(d.ranges["min_humidity"], v.HumidityUnit),
	}
	press := map[string]any{
		"pressure":      withUnit(d.current["pressure"], v.PressureUnit),
		"pressure_high": withUnit(d.ranges["max_pressure"], v.PressureUnit),
		"pressure_low":  withUnit(d.ranges["min_pressure"], v.PressureUnit),
	}
	if v.IncludeAverages {
		temps["temperature_average"] = withUnit(d.ranges["avg_temperature"], v.TemperatureUnit)
		hums["humidity_average"] = withUnit(d.ranges["avg_humidity"], v.HumidityUnit)
		press["pressure_average"] = withUnit(d.ranges["avg_pressure"], v.PressureUnit)
	}

	return &WeatherDocument{
		CurrentDateTime: d.currentDateTime,
		CurrentTimezone: v.Timezone,
		CurrentLocation: v.Location,
		CurrentWeather: CurrentWeather{
			Temperatures: temps,
			Humidities:   hums,
			Pressures:    press,
			Lux:          d.current["lx"],
		},
		WeatherForecasts: Forecasts{
			Hourly: d.hourly,
			Daily:  d.daily,
		},
	}
}

// withUnit renders a reading as text followed by unit. nil stays nil.
func withUnit(val any, unit string) any {
	var s string
	switch x := val.(type) {
	case nil:
		return nil
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	default:
		s = fmt.Sprint(x)
	}
	return s + unit
}
