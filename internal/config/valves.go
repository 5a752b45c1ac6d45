package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Valves holds the settings of the weather tool. Each field is addressed by
// the name in its `valve` tag, both in the environment and in a YAML file.
// Required fields are only checked at the point of use (see Missing).
type Valves struct {
	HAURL      string `valve:"HA_URL" yaml:"HA_URL" validate:"required" default:"https://my-home-assistant.local:8123" description:"URL of the home assistant instance."`
	HAAPIToken string `valve:"HA_API_TOKEN" yaml:"HA_API_TOKEN" validate:"required" description:"Long lived API token to give the tool access to home assistant."`

	HourlyForecastSensor  string `valve:"HA_HOURLY_FORECAST_SENSOR_NAME" yaml:"HA_HOURLY_FORECAST_SENSOR_NAME" validate:"required" description:"Name of the sensor in home assistant that contains the hourly forecast data."`
	DailyForecastSensor   string `valve:"HA_DAILY_FORECAST_SENSOR_NAME" yaml:"HA_DAILY_FORECAST_SENSOR_NAME" validate:"required" description:"Name of the sensor in home assistant that contains the daily forecast data."`
	CurrentSensor         string `valve:"HA_CURRENT_SENSOR_NAME" yaml:"HA_CURRENT_SENSOR_NAME" validate:"required" description:"Name of the sensor in home assistant that contains the current weather data."`
	RangeSensor           string `valve:"HA_RANGE_SENSOR_NAME" yaml:"HA_RANGE_SENSOR_NAME" validate:"required" description:"Name of the sensor in home assistant that contains the weather ranges data."`
	CurrentDateTimeSensor string `valve:"HA_CURRENT_DATE_TIME_SENSOR_NAME" yaml:"HA_CURRENT_DATE_TIME_SENSOR_NAME" validate:"required" description:"Name of the sensor in home assistant that contains the current date and time."`

	Timezone string `valve:"HA_TIMEZONE" yaml:"HA_TIMEZONE" default:"Europe/London" description:"Home Assistant timezone, used for formatting dates and times in the weather data."`
	Location string `valve:"HA_LOCATION" yaml:"HA_LOCATION" description:"Free text description of where the weather readings are taken."`

	TemperatureUnit string `valve:"HA_TEMPERATURE_UNIT" yaml:"HA_TEMPERATURE_UNIT" default:"°C" description:"Unit appended to temperature readings."`
	HumidityUnit    string `valve:"HA_HUMIDITY_UNIT" yaml:"HA_HUMIDITY_UNIT" default:"%" description:"Unit appended to humidity readings."`
	PressureUnit    string `valve:"HA_PRESSURE_UNIT" yaml:"HA_PRESSURE_UNIT" default:"hPa" description:"Unit appended to pressure readings."`

	IncludeAverages bool `valve:"HA_INCLUDE_AVERAGES" yaml:"HA_INCLUDE_AVERAGES" default:"false" description:"Include the average temperature, humidity and pressure from the range sensor."`
}

// ValveInfo describes one setting for operators.
type ValveInfo struct {
	Name        string
	Default     string
	Description string
}

var (
	validateOnce sync.Once
	valveCheck   *validator.Validate
)

func valveValidator() *validator.Validate {
	validateOnce.Do(func() {
		valveCheck = validator.New()
		valveCheck.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fld.Tag.Get("valve")
		})
	})
	return valveCheck
}

// DefaultValves returns the settings with every default applied.
func DefaultValves() Valves {
	var v Valves
	rv := reflect.ValueOf(&v).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		def, ok := rt.Field(i).Tag.Lookup("default")
		if !ok {
			continue
		}
		// Defaults are literals in this file; a bad one is a programming error.
		if err := setField(rv.Field(i), def); err != nil {
			panic(fmt.Sprintf("valve %s: %v", rt.Field(i).Tag.Get("valve"), err))
		}
	}
	return v
}

// LoadValves starts from the defaults, overlays the YAML file at path (when
// path is non-empty) and finally the environment. It does not check that
// required valves are set.
func LoadValves(path string) (Valves, error) {
	v := DefaultValves()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Valves{}, fmt.Errorf("reading valves file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &v); err != nil {
			return Valves{}, fmt.Errorf("parsing valves yaml: %w", err)
		}
	}

	rv := reflect.ValueOf(&v).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := rt.Field(i).Tag.Get("valve")
		raw, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if err := setField(rv.Field(i), raw); err != nil {
			return Valves{}, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return v, nil
}

// Missing returns the names of required valves that are empty, in
// declaration order.
func (v Valves) Missing() []string {
	err := valveValidator().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return names
}

// Describe lists every valve with its default and description.
func Describe() []ValveInfo {
	rt := reflect.TypeOf(Valves{})
	out := make([]ValveInfo, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag
		out = append(out, ValveInfo{
			Name:        tag.Get("valve"),
			Default:     tag.Get("default"),
			Description: tag.Get("description"),
		})
	}
	return out
}

func setField(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Bool:
		raw = strings.TrimSpace(raw)
		if raw == "" {
			f.SetBool(false)
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	default:
		return fmt.Errorf("unsupported valve kind %s", f.Kind())
	}
	return nil
}
