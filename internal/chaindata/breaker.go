package chaindata

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/metrics"
)

// BreakerSettings tunes when the indexer circuit breaker opens.
type BreakerSettings struct {
	// MinRequests is the number of requests in the interval before the
	// failure ratio is considered.
	MinRequests uint32
	// FailureRatio opens the breaker once reached.
	FailureRatio float64
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings returns the breaker defaults.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  10,
		FailureRatio: 0.6,
		OpenTimeout:  30 * time.Second,
	}
}

// newBreaker builds a circuit breaker that trips once at least
// MinRequests were made and the failure ratio reached FailureRatio.
func newBreaker(name string, s BreakerSettings, log config.LogWriter) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("breaker %s changed from %s to %s", name, from, to)
			if to == gobreaker.StateOpen {
				metrics.Global.RecordBreakerOpen()
			}
		},
	})
}
