// Package svc implements the downstream microservice adapters. Every
// service speaks JSON over HTTP and is reached through the shared Client,
// which maps transport failures onto the adapter.ServiceError taxonomy.
package svc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// VerdictCache memoizes health probe outcomes for a short window.
// redis.HealthCache satisfies it; nil disables caching.
type VerdictCache interface {
	Get(ctx context.Context, service string) (healthy bool, known bool)
	Put(ctx context.Context, service string, healthy bool)
}

const healthProbeTimeout = 5 * time.Second

var _ adapter.ServiceClient = (*Client)(nil)

// Client is a generic JSON-over-HTTP microservice client. Concrete
// adapters embed it and add typed endpoint methods.
type Client struct {
	name   string
	base   string
	http   *http.Client
	health VerdictCache
	log    *zerolog.Logger
}

func NewClient(name, baseURL string, health VerdictCache, log *zerolog.Logger) *Client {
	return &Client{
		name:   name,
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{}, // per-call timeouts via context
		health: health,
		log:    log,
	}
}

func (c *Client) Name() string { return c.name }

// HealthCheck probes GET {base}/health with a 5s bound. The verdict is
// cached briefly so a degraded service is not hammered by every executor.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if c.health != nil {
		if healthy, known := c.health.Get(ctx, c.name); known {
			return healthy
		}
	}

	pctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	healthy := false
	req, err := http.NewRequestWithContext(pctx, http.MethodGet, c.base+"/health", nil)
	if err == nil {
		resp, err := c.http.Do(req)
		if err == nil {
			healthy = resp.StatusCode < 300
			resp.Body.Close()
		}
	}

	metrics.IncHealthCheck(c.name, healthy)
	if !healthy {
		c.log.Warn().Str("service", c.name).Msg("health probe failed")
	}
	if c.health != nil {
		c.health.Put(ctx, c.name, healthy)
	}
	return healthy
}

// Call posts payload to endpoint and decodes the response into out.
func (c *Client) Call(ctx context.Context, endpoint string, payload any, out any, timeout time.Duration) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return c.fail(endpoint, &adapter.ServiceError{
				Service: c.name, Kind: adapter.ProtocolError,
				Msg: "encode payload", Cause: err,
			})
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(cctx, http.MethodPost, c.base+endpoint, body)
	if err != nil {
		return c.fail(endpoint, &adapter.ServiceError{
			Service: c.name, Kind: adapter.ProtocolError,
			Msg: "build request", Cause: err,
		})
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	latencyMs := int(time.Since(start) / time.Millisecond)
	if err != nil {
		// Connect failures and context deadlines both count as Unavailable.
		metrics.ObserveServiceCall(c.name, endpoint, latencyMs, false)
		return c.fail(endpoint, &adapter.ServiceError{
			Service: c.name, Kind: adapter.Unavailable,
			Msg: err.Error(), Cause: err,
		})
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		metrics.ObserveServiceCall(c.name, endpoint, latencyMs, false)
		return c.fail(endpoint, &adapter.ServiceError{
			Service: c.name, Kind: adapter.ServerFault, Status: resp.StatusCode,
			Msg: readErrorBody(resp.Body),
		})
	case resp.StatusCode >= 400:
		metrics.ObserveServiceCall(c.name, endpoint, latencyMs, false)
		return c.fail(endpoint, &adapter.ServiceError{
			Service: c.name, Kind: adapter.Rejected, Status: resp.StatusCode,
			Msg: readErrorBody(resp.Body),
		})
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			metrics.ObserveServiceCall(c.name, endpoint, latencyMs, false)
			return c.fail(endpoint, &adapter.ServiceError{
				Service: c.name, Kind: adapter.ProtocolError,
				Msg: "decode response", Cause: err,
			})
		}
	}
	metrics.ObserveServiceCall(c.name, endpoint, latencyMs, true)
	return nil
}

func (c *Client) fail(endpoint string, se *adapter.ServiceError) error {
	metrics.IncServiceError(c.name, string(se.Kind))
	c.log.Warn().Str("service", c.name).Str("endpoint", endpoint).
		Str("kind", string(se.Kind)).Int("status", se.Status).Msg("service call failed")
	return se
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "no response body"
	}
	// Surface the service's own error field when it sent one.
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &env) == nil && env.Error != "" {
		return env.Error
	}
	return fmt.Sprintf("%.256s", s)
}
