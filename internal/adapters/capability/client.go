// Package capability is the HTTP JSON transport shared by the external inference and OCR
// capabilities. Every call runs through a per-capability circuit breaker; transport errors,
// 5xx and 429 count as failures and surface as ModelUnavailable.
package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 10 * time.Second
	maxBody        = 1 << 20
)

// Options configures a Client
type Options struct {
	// Name labels metrics and logs, e.g. "inference"
	Name    string
	BaseURL string
	Token   string
	Timeout time.Duration
	Breaker BreakerConfig
	Metrics *metrics.Metrics
	// HTTP overrides the transport; tests pass httptest clients
	HTTP *http.Client
}

// Client posts JSON documents to one capability endpoint
type Client struct {
	name  string
	base  string
	token string
	http  *http.Client
	cb    circuitbreaker.CircuitBreaker[any]
	m     *metrics.Metrics
	log   zerolog.Logger
}

// New builds a Client. BaseURL is required
func New(o Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if base == "" {
		return nil, perr.InvalidArgf("%s base url is required", o.Name)
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := o.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	m := o.Metrics
	if m == nil {
		m = metrics.Discard()
	}
	log := *logger.Named(o.Name)
	return &Client{
		name:  o.Name,
		base:  base,
		token: o.Token,
		http:  hc,
		cb:    newBreaker(o.Name, o.Breaker, m, log),
		m:     m,
		log:   log,
	}, nil
}

// Name returns the capability label
func (c *Client) Name() string { return c.name }

// State reports the breaker state
func (c *Client) State() State { return convertState(c.cb.State()) }

// Post sends in as JSON to path and decodes the 2xx response body into out
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "%s encode request", c.name)
	}

	_, err = failsafe.With(c.cb).WithContext(ctx).Get(func() (any, error) {
		return nil, c.do(ctx, path, body, out)
	})

	switch {
	case err == nil:
		c.m.InferenceCalls.WithLabelValues(c.name, "ok").Inc()
		return nil
	case errors.Is(err, circuitbreaker.ErrOpen):
		c.m.InferenceCalls.WithLabelValues(c.name, "open").Inc()
		return perr.Wrapf(err, perr.ErrorCodeModelUnavailable, "%s circuit open", c.name)
	case ctx.Err() != nil:
		c.m.InferenceCalls.WithLabelValues(c.name, "canceled").Inc()
		return ctx.Err()
	default:
		c.m.InferenceCalls.WithLabelValues(c.name, "error").Inc()
		return err
	}
}

func (c *Client) do(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "%s new request", c.name)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeModelUnavailable, "%s unreachable", c.name)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("lat", time.Since(start)).Msg("capability call")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return perr.Newf(perr.ErrorCodeModelUnavailable, "%s returned %d", c.name, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return perr.Newf(perr.ErrorCodeInvalidArgument, "%s rejected request: %d %s", c.name, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeModelUnavailable, "%s malformed response", c.name)
	}
	return nil
}

// countsAsFailure keeps caller mistakes and cancellations from tripping the breaker
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return perr.IsCode(err, perr.ErrorCodeModelUnavailable)
}
