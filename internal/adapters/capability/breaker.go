package capability

import (
	"time"

	"satyanetra/internal/platform/metrics"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/rs/zerolog"
)

// State mirrors the breaker states in a form that is cheap to export
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// BreakerConfig configures the circuit in front of one capability
type BreakerConfig struct {
	// FailureRatio of the last MinRequests calls that trips the breaker
	FailureRatio float64
	MinRequests  uint
	// Delay is how long the breaker stays open before probing
	Delay time.Duration
	// SuccessThreshold probes must pass to close again
	SuccessThreshold uint
}

// DefaultBreakerConfig trips at half of ten calls and probes after 15s
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureRatio: 0.5, MinRequests: 10, Delay: 15 * time.Second, SuccessThreshold: 1}
}

func (c BreakerConfig) normalized() BreakerConfig {
	d := DefaultBreakerConfig()
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = d.FailureRatio
	}
	if c.MinRequests == 0 {
		c.MinRequests = d.MinRequests
	}
	if c.Delay <= 0 {
		c.Delay = d.Delay
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = d.SuccessThreshold
	}
	return c
}

func newBreaker(name string, cfg BreakerConfig, m *metrics.Metrics, log zerolog.Logger) circuitbreaker.CircuitBreaker[any] {
	cfg = cfg.normalized()
	threshold := max(uint(float64(cfg.MinRequests)*cfg.FailureRatio), 1)

	m.BreakerState.WithLabelValues(name).Set(float64(StateClosed))

	return circuitbreaker.NewBuilder[any]().
		WithFailureThresholdRatio(threshold, cfg.MinRequests).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(cfg.SuccessThreshold).
		HandleIf(func(_ any, err error) bool { return countsAsFailure(err) }).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			from, to := convertState(e.OldState), convertState(e.NewState)
			m.BreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn().Str("from_state", from.String()).Str("to_state", to.String()).Msg("circuit breaker state change")
		}).
		Build()
}

func convertState(s circuitbreaker.State) State {
	switch s {
	case circuitbreaker.HalfOpenState:
		return StateHalfOpen
	case circuitbreaker.OpenState:
		return StateOpen
	default:
		return StateClosed
	}
}
