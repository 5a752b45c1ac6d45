package weather

import (
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve in minimal containers
)

// Layouts tried in order before the ISO-8601 fallback. All are naive.
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ISO-8601 forms carrying an offset; their offset is kept.
var isoOffsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04Z07",
	"2006-01-02T15Z07:00",
	"2006-01-02T15Z0700",
	"2006-01-02T15Z07",
}

// ISO-8601 forms without an offset that the fixed layouts miss.
var isoNaiveLayouts = []string{
	"2006-01-02T15",
	"2006-01-02",
}

// Keys of a forecast entry that hold datetimes.
var forecastDateTimeKeys = []string{"datetime", "time", "datetime_utc", "timestamp"}

const (
	isoLayout      = "2006-01-02T15:04:05-07:00"
	isoMicroLayout = "2006-01-02T15:04:05.000000-07:00"
)

// NormalizeDateTime parses raw and renders it as ISO-8601 with an offset.
// Naive values are read as wall-clock time in loc; values with an offset
// keep it. ok is false when raw matches no known form, in which case raw is
// returned unchanged.
func NormalizeDateTime(raw string, loc *time.Location) (out string, ok bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatISO(attachZone(t, loc)), true
		}
	}
	for _, layout := range isoOffsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatISO(t), true
		}
	}
	for _, layout := range isoNaiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatISO(attachZone(t, loc)), true
		}
	}
	return raw, false
}

// Normalize is NormalizeDateTime with the zone given by name. An unknown
// zone leaves raw unchanged.
func Normalize(raw, timezone string) string {
	n := newNormalizer(timezone, slog.Default())
	return n.normalize("value", raw)
}

// attachZone relabels the wall clock of t with loc without moving it. A
// clock reading skipped by a forward jump keeps the offset in effect before
// the jump; a repeated reading takes the earlier of its two instants.
func attachZone(t time.Time, loc *time.Location) time.Time {
	wall := wallClock(t)
	z := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)

	switch got := wallClock(z); {
	case got.After(wall):
		// time.Date moved the reading past the gap; z lies after the transition.
		start, _ := z.ZoneBounds()
		if start.IsZero() {
			return z
		}
		name, offset := start.Add(-time.Nanosecond).In(loc).Zone()
		return relabel(wall, time.FixedZone(name, offset))
	case got.Before(wall):
		name, offset := z.Zone()
		return relabel(wall, time.FixedZone(name, offset))
	}

	start, _ := z.ZoneBounds()
	if start.IsZero() {
		return z
	}
	_, prevOffset := start.Add(-time.Nanosecond).In(loc).Zone()
	earlier := wall.Add(-time.Duration(prevOffset) * time.Second).In(loc)
	if earlier.Before(z) && wallClock(earlier).Equal(wall) {
		return earlier
	}
	return z
}

// wallClock returns the calendar reading of t as a UTC time.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func relabel(wall time.Time, loc *time.Location) time.Time {
	return time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc)
}

func formatISO(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format(isoMicroLayout)
	}
	return t.Format(isoLayout)
}

type normalizer struct {
	loc    *time.Location
	logger *slog.Logger
}

func newNormalizer(timezone string, logger *slog.Logger) *normalizer {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("unknown timezone; datetimes left as received", "timezone", timezone, "error", err)
		loc = nil
	}
	return &normalizer{loc: loc, logger: logger}
}

func (n *normalizer) normalize(field, raw string) string {
	if n.loc == nil {
		return raw
	}
	out, ok := NormalizeDateTime(raw, n.loc)
	if !ok {
		n.logger.Warn("could not parse datetime", "field", field, "value", raw)
	}
	return out
}

// normalizeEntries rewrites the datetime keys of every entry in place.
func (n *normalizer) normalizeEntries(entries []map[string]any) {
	for _, entry := range entries {
		for _, key := range forecastDateTimeKeys {
			if s, ok := entry[key].(string); ok {
				entry[key] = n.normalize(key, s)
			}
		}
	}
}
