package capability

import (
	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/metrics"
)

// OptionsFrom reads URL, TOKEN, TIMEOUT and BREAKER_* keys from a prefixed view such as
// SERVICE_INFERENCE_. ok is false when URL is unset and the capability should stay unwired.
func OptionsFrom(cfg config.Conf, m *metrics.Metrics) (Options, bool) {
	base := cfg.MayString("URL", "")
	if base == "" {
		return Options{}, false
	}
	d := DefaultBreakerConfig()
	return Options{
		BaseURL: base,
		Token:   cfg.MayString("TOKEN", ""),
		Timeout: cfg.MayDuration("TIMEOUT", defaultTimeout),
		Breaker: BreakerConfig{
			FailureRatio:     cfg.MayFraction("BREAKER_FAILURE_RATIO", d.FailureRatio),
			MinRequests:      uint(max(cfg.MayInt("BREAKER_MIN_REQUESTS", int(d.MinRequests)), 1)),
			Delay:            cfg.MayDuration("BREAKER_DELAY", d.Delay),
			SuccessThreshold: uint(max(cfg.MayInt("BREAKER_SUCCESS_THRESHOLD", int(d.SuccessThreshold)), 1)),
		},
		Metrics: m,
	}, true
}
