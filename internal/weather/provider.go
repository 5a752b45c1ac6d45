package weather

import (
	"context"
	"time"
)

// StateFetcher reads the current state document of one hub entity.
// Implementations report failures as *NetworkError, *StatusError or
// *InvalidJSONError.
type StateFetcher interface {
	FetchState(ctx context.Context, sensorID string) (Reading, error)
}

// Store is the contract the in-memory report history (and any future persistent store) must satisfy.
type Store interface {
	SaveReport(report Report)
	GetLatest() (Report, error)
	GetRange(from, to time.Time) ([]Report, error)
}
