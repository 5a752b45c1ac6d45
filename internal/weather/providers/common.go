package providers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client *http.Client

	// BreakerFailures opens the circuit after that many consecutive
	// transport failures. Zero disables the breaker.
	BreakerFailures int
}

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

func newBreaker(name string, failures int) *gobreaker.CircuitBreaker {
	if failures <= 0 {
		return nil
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
	})
}

// doRequest executes req once, through the circuit breaker when one is
// configured. Only transport failures count against the breaker; any HTTP
// answer is returned to the caller.
func doRequest(cfg HTTPClientConfig, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cb == nil {
		return cfg.Client.Do(req)
	}

	result, err := cb.Execute(func() (interface{}, error) {
		return cfg.Client.Do(req)
	})
	if err != nil {
		// If circuit is open, fail without touching the network.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errCircuitOpen
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
