package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "prod", slog.LevelInfo, "ha-weather-tool")

	logger.Debug("hidden")
	logger.Info("report produced", "sensor", "sensor.hourly")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record written at info level: %q", line)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, line)
	}
	if rec["app"] != "ha-weather-tool" || rec["env"] != "prod" || rec["sensor"] != "sensor.hourly" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNew_DevWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "dev", slog.LevelDebug, "ha-weather-tool")

	logger.Debug("fetching sensor")

	out := buf.String()
	if !strings.Contains(out, "fetching sensor") {
		t.Fatalf("message missing from dev output: %q", out)
	}
	if json.Valid([]byte(strings.TrimSpace(out))) {
		t.Errorf("dev output should not be JSON: %q", out)
	}
}
