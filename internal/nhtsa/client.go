// Package nhtsa decodes VINs with the NHTSA vPIC DecodeVin endpoint.
package nhtsa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/JakeFAU/charm-vin-resolver/internal/metrics"
	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

// DefaultBaseURL is the public vPIC DecodeVin endpoint.
const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles/DecodeVin"

// vPIC variable names.
const (
	variableModelYear = "Model Year"
	variableMake      = "Make"
	variableModel     = "Model"
)

// Waiter delays a request to honor per-host politeness.
type Waiter interface {
	Wait(ctx context.Context, url string) error
}

// Config controls the decoder client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements resolver.Decoder.
type Client struct {
	baseURL string
	client  *http.Client
	limiter Waiter
	logger  *zap.Logger
}

var _ resolver.Decoder = (*Client)(nil)

// NewClient creates a Client. limiter may be nil.
func NewClient(cfg Config, limiter Waiter, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: limiter,
		logger:  logger,
	}
}

type decodeResponse struct {
	Count   int            `json:"Count"`
	Message string         `json:"Message"`
	Results []decodeResult `json:"Results"`
}

type decodeResult struct {
	Variable string  `json:"Variable"`
	Value    *string `json:"Value"`
}

// DecodeVIN returns the model year, make and model for vin. Every failure is a decode error.
func (c *Client) DecodeVIN(ctx context.Context, vin string) (resolver.VehicleInfo, error) {
	info, err := c.decode(ctx, vin)
	if err != nil {
		metrics.ObserveDecode("error")
		c.logger.Warn("vin decode failed", zap.String("vin", vin), zap.Error(err))
		return resolver.VehicleInfo{}, resolver.NewDecodeError(err)
	}
	metrics.ObserveDecode("ok")
	return info, nil
}

func (c *Client) decode(ctx context.Context, vin string) (resolver.VehicleInfo, error) {
	url := fmt.Sprintf("%s/%s?format=json", c.baseURL, neturl.PathEscape(vin))
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return resolver.VehicleInfo{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return resolver.VehicleInfo{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return resolver.VehicleInfo{}, fmt.Errorf("decoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resolver.VehicleInfo{}, fmt.Errorf("unexpected status %d from decoder", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resolver.VehicleInfo{}, fmt.Errorf("read decoder body: %w", err)
	}
	var dr decodeResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return resolver.VehicleInfo{}, fmt.Errorf("parse decoder body: %w", err)
	}

	info := resolver.VehicleInfo{
		Year:  dr.value(variableModelYear),
		Make:  dr.value(variableMake),
		Model: dr.value(variableModel),
	}
	if !info.Complete() {
		return resolver.VehicleInfo{}, errors.New("incomplete vehicle data from decoder")
	}
	return info, nil
}

// value returns the first result for variable, trimmed. Null values read as empty.
func (r decodeResponse) value(variable string) string {
	for _, res := range r.Results {
		if res.Variable != variable {
			continue
		}
		if res.Value == nil {
			return ""
		}
		return strings.TrimSpace(*res.Value)
	}
	return ""
}
