package module

import (
	"satyanetra/internal/platform/config"
	"satyanetra/internal/services/alerts/service"
)

// AckRole is the principal role allowed to acknowledge alerts
const AckRole = "analyst"

// Options configures the alerts module
type Options struct {
	Service service.Config
	// AuthEnabled turns on the role check for acknowledgement
	AuthEnabled bool
}

// FromConfig reads CORE_ALERTS_* keys
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_ALERTS_")
	d := service.DefaultConfig()
	return Options{Service: service.Config{
		CriticalScore: c.MayFloat64("CRITICAL_SCORE", d.CriticalScore),
		HighScore:     c.MayFloat64("HIGH_SCORE", d.HighScore),
		Window:        c.MayDuration("SUPPRESSION_WINDOW", d.Window),
		PerMinute:     c.MayFloat64("PER_MINUTE", d.PerMinute),
		Burst:         c.MayInt("BURST", d.Burst),
		StreamBuffer:  c.MayInt("STREAM_BUFFER", 256),
	}}
}
