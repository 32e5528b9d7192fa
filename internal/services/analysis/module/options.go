package module

import (
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/features"
	"satyanetra/internal/core/lexicon"
	"satyanetra/internal/core/scoring"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/services/analysis/service"
)

// Options configures the analysis module
type Options struct {
	Service      service.Config
	Limits       content.Limits
	Scoring      scoring.Options
	ModelTimeout time.Duration

	// SubmitPerMinute rate limits submissions per caller; zero disables it
	SubmitPerMinute int

	// Model and OCR are optional external capabilities
	Model   features.Model
	OCR     content.OCR
	Lexicon *lexicon.Lexicon
}

// FromConfig reads CORE_ANALYSIS_* keys
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_ANALYSIS_")
	rd := service.DefaultRetryConfig()
	return Options{
		Service: service.Config{
			Workers:      c.MayInt("WORKERS", 4),
			QueueSize:    c.MayInt("QUEUE_SIZE", 256),
			StreamBuffer: c.MayInt("STREAM_BUFFER", 256),
			Retry: service.RetryConfig{
				MaxRetries: c.MayInt("MAX_RETRIES", rd.MaxRetries),
				BaseDelay:  c.MayDuration("RETRY_BASE", rd.BaseDelay),
				MaxDelay:   c.MayDuration("RETRY_MAX", rd.MaxDelay),
			},
		},
		Limits: content.Limits{
			MaxTextBytes:  c.MayInt("MAX_TEXT_BYTES", content.DefaultMaxTextBytes),
			MaxImageBytes: c.MayInt("MAX_IMAGE_BYTES", content.DefaultMaxImageBytes),
		},
		Scoring: scoring.Options{
			MaxIndicators:      c.MayInt("MAX_INDICATORS", scoring.DefaultMaxIndicators),
			IndicatorThreshold: c.MayFraction("INDICATOR_THRESHOLD", scoring.DefaultIndicatorThreshold),
			Languages:          c.MayCSV("LANGUAGES", []string{"en"}),
		},
		ModelTimeout:    c.MayDuration("MODEL_TIMEOUT", features.DefaultModelTimeout),
		SubmitPerMinute: c.MayInt("SUBMIT_PER_MINUTE", 120),
	}
}
