package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/ha-weather-tool/internal/config"
)

// Service produces weather reports from the hub sensors and keeps a history
// of them.
type Service struct {
	valves  config.Valves
	fetcher StateFetcher
	store   Store
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new Service. store may be nil when no history is kept.
func NewService(valves config.Valves, fetcher StateFetcher, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		valves:  valves,
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// CurrentForecast returns the weather report as JSON text. Failures are
// returned as {"error": "..."} documents; nothing else signals them.
func (s *Service) CurrentForecast(ctx context.Context) string {
	out, _ := s.run(ctx, s.logger.With("invocation", uuid.NewString()))
	return out
}

// Report produces a document like CurrentForecast and wraps it with
// bookkeeping.
func (s *Service) Report(ctx context.Context) Report {
	id := uuid.NewString()
	out, err := s.run(ctx, s.logger.With("invocation", id))
	return Report{
		ID:        id,
		FetchedAt: s.now().UTC(),
		Failed:    err != nil,
		Document:  json.RawMessage(out),
	}
}

// RefreshAndStore produces a report and saves it to the history store.
func (s *Service) RefreshAndStore(ctx context.Context) (Report, error) {
	if s.store == nil {
		return Report{}, fmt.Errorf("no report store configured")
	}
	report := s.Report(ctx)
	s.store.SaveReport(report)
	return report, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest() (Report, error) {
	if s.store == nil {
		return Report{}, fmt.Errorf("no report store configured")
	}
	return s.store.GetLatest()
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(from, to time.Time) ([]Report, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no report store configured")
	}
	return s.store.GetRange(from, to)
}

func (s *Service) run(ctx context.Context, logger *slog.Logger) (string, error) {
	doc, err := s.build(ctx, logger)
	if err != nil {
		return ErrorDocument(err), err
	}
	out, err := doc.JSON()
	if err != nil {
		logger.Error("encoding weather document", "error", err)
		err = fmt.Errorf("encoding weather document: %w", err)
		return ErrorDocument(err), err
	}
	logger.Info("weather report produced",
		"hourly", len(doc.WeatherForecasts.Hourly),
		"daily", len(doc.WeatherForecasts.Daily),
	)
	return out, nil
}

func (s *Service) build(ctx context.Context, logger *slog.Logger) (doc *WeatherDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while building weather report", "panic", r)
			doc, err = nil, &ExtractionError{Detail: fmt.Sprint(r)}
		}
	}()

	if missing := s.valves.Missing(); len(missing) > 0 {
		logger.Error("configuration incomplete", "missing", missing)
		return nil, &ConfigMissingError{Fields: missing}
	}

	readings, err := s.fetchAll(ctx, logger)
	if err != nil {
		return nil, err
	}

	data, err := extract(readings)
	if err != nil {
		logger.Error("extracting attributes", "error", err)
		return nil, err
	}

	if len(data.hourly) == 0 {
		return nil, &EmptyForecastError{Which: "hourly"}
	}
	if len(data.daily) == 0 {
		return nil, &EmptyForecastError{Which: "daily"}
	}

	norm := newNormalizer(s.valves.Timezone, logger)
	if raw, ok := data.currentDateTime.(string); ok && raw != "" {
		data.currentDateTime = norm.normalize(string(SensorCurrentDateTime), raw)
	}
	norm.normalizeEntries(data.hourly)
	norm.normalizeEntries(data.daily)

	return assemble(s.valves, data), nil
}

type fetchResult struct {
	reading Reading
	err     error
}

// fetchAll queries every sensor concurrently and waits for all of them.
// Failures are examined afterwards in Sensors order so the reported one does
// not depend on completion order.
func (s *Service) fetchAll(ctx context.Context, logger *slog.Logger) (map[SensorKind]Reading, error) {
	sensors := Sensors(s.valves)
	results := make([]fetchResult, len(sensors))

	logger.Debug("fetching sensors", "count", len(sensors))

	var wg sync.WaitGroup
	for i, sn := range sensors {
		i, sn := i, sn
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := s.fetcher.FetchState(ctx, sn.ID)
			results[i] = fetchResult{reading: r, err: err}
		}()
	}
	wg.Wait()

	readings := make(map[SensorKind]Reading, len(sensors))
	for i, sn := range sensors {
		if err := results[i].err; err != nil {
			logger.Error("sensor fetch failed", "kind", sn.Kind, "sensor", sn.ID, "error", err)
			if !isFetchError(err) {
				err = &NetworkError{Sensor: sn.ID, Err: err}
			}
			return nil, err
		}
		readings[sn.Kind] = results[i].reading
	}
	return readings, nil
}

func isFetchError(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrStatus) ||
		errors.Is(err, ErrInvalidJSON) || errors.Is(err, ErrExtraction)
}
