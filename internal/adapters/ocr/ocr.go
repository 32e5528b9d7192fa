// Package ocr is the HTTP client for the overlay text capability
package ocr

import (
	"context"
	"strings"

	"satyanetra/internal/adapters/capability"
	"satyanetra/internal/core/content"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/metrics"
)

// Name is the capability label
const Name = "ocr"

const extractPath = "/v1/ocr"

type request struct {
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

type response struct {
	Text string `json:"text"`
}

// Client implements content.OCR
type Client struct {
	c *capability.Client
}

var _ content.OCR = (*Client)(nil)

// New builds a Client; Name is forced to "ocr"
func New(o capability.Options) (*Client, error) {
	o.Name = Name
	c, err := capability.New(o)
	if err != nil {
		return nil, err
	}
	return &Client{c: c}, nil
}

// FromConfig reads SERVICE_OCR_* through cfg
func FromConfig(cfg config.Conf, m *metrics.Metrics) (cl *Client, ok bool, err error) {
	o, ok := capability.OptionsFrom(cfg, m)
	if !ok {
		return nil, false, nil
	}
	cl, err = New(o)
	return cl, err == nil, err
}

// Extract returns the overlay text found in the image, trimmed
func (c *Client) Extract(ctx context.Context, data []byte, format string) (string, error) {
	var out response
	if err := c.c.Post(ctx, extractPath, request{Format: format, Data: data}, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// State reports the breaker state for health output
func (c *Client) State() capability.State { return c.c.State() }
