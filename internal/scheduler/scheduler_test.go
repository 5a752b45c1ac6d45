package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/ha-weather-tool/internal/weather"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRefresher) RefreshAndStore(ctx context.Context) (weather.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return weather.Report{}, f.err
	}
	return weather.Report{ID: "r1", Document: []byte(`{}`)}, nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	published []weather.Report
	err       error
}

func (f *fakePublisher) Publish(r weather.Report) error {
	f.published = append(f.published, r)
	return f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_PublishesReport(t *testing.T) {
	ref := &fakeRefresher{}
	pub := &fakePublisher{}
	s := New(time.Minute, ref, pub, quietLogger())

	s.RunOnce()

	if ref.count() != 1 {
		t.Fatalf("refresh calls = %d, want 1", ref.count())
	}
	if len(pub.published) != 1 || pub.published[0].ID != "r1" {
		t.Fatalf("published = %+v, want r1", pub.published)
	}
}

func TestRunOnce_RefreshErrorSkipsPublish(t *testing.T) {
	ref := &fakeRefresher{err: errors.New("no store")}
	pub := &fakePublisher{}
	s := New(time.Minute, ref, pub, quietLogger())

	s.RunOnce()

	if len(pub.published) != 0 {
		t.Fatalf("published = %+v, want nothing", pub.published)
	}
}

func TestRunOnce_NilPublisher(t *testing.T) {
	ref := &fakeRefresher{}
	s := New(time.Minute, ref, nil, quietLogger())

	s.RunOnce()

	if ref.count() != 1 {
		t.Fatalf("refresh calls = %d, want 1", ref.count())
	}
}

func TestStart_ZeroIntervalSchedulesNothing(t *testing.T) {
	ref := &fakeRefresher{}
	s := New(0, ref, nil, quietLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	if ref.count() != 0 {
		t.Fatalf("refresh calls = %d, want 0", ref.count())
	}
}

func TestStart_RunsImmediately(t *testing.T) {
	ref := &fakeRefresher{}
	s := New(time.Hour, ref, nil, quietLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for ref.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ref.count() == 0 {
		t.Fatal("scheduled job did not run")
	}
}
