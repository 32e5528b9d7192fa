// Package inference is the HTTP client for the external model that scores propaganda
// similarity and image-only signals
package inference

import (
	"context"

	"satyanetra/internal/adapters/capability"
	"satyanetra/internal/core/features"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/metrics"
)

// Name is the capability label used in metrics and health output
const Name = "inference"

const inferPath = "/v1/infer"

type imageDoc struct {
	SHA256  string `json:"sha256"`
	Format  string `json:"format"`
	Data    []byte `json:"data"`
	Overlay string `json:"overlay,omitempty"`
}

type request struct {
	Kind  string    `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Image *imageDoc `json:"image,omitempty"`
}

type response struct {
	Signals map[string]float64 `json:"signals"`
}

// Client implements features.Model over HTTP
type Client struct {
	c *capability.Client
}

var _ features.Model = (*Client)(nil)

// New builds a Client from transport options; Name is forced to "inference"
func New(o capability.Options) (*Client, error) {
	o.Name = Name
	c, err := capability.New(o)
	if err != nil {
		return nil, err
	}
	return &Client{c: c}, nil
}

// FromConfig reads SERVICE_INFERENCE_* through cfg. ok is false when no URL is configured
func FromConfig(cfg config.Conf, m *metrics.Metrics) (cl *Client, ok bool, err error) {
	o, ok := capability.OptionsFrom(cfg, m)
	if !ok {
		return nil, false, nil
	}
	cl, err = New(o)
	return cl, err == nil, err
}

// Infer asks the model for the signals it supports. Unknown names in the reply are dropped
func (c *Client) Infer(ctx context.Context, req features.Request) (map[features.Signal]float64, error) {
	body := request{Kind: string(req.Kind), Text: req.Text}
	if im := req.Image; im != nil {
		body.Image = &imageDoc{SHA256: im.SHA256, Format: im.Format, Data: im.Data, Overlay: im.Overlay}
	}

	var out response
	if err := c.c.Post(ctx, inferPath, body, &out); err != nil {
		return nil, err
	}

	sig := make(map[features.Signal]float64, len(out.Signals))
	for k, v := range out.Signals {
		s := features.Signal(k)
		if s.Known() {
			sig[s] = v
		}
	}
	return sig, nil
}

// State reports the breaker state for health output
func (c *Client) State() capability.State { return c.c.State() }
