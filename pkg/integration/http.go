package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/castellan-home/castellan/pkg/device"
)

const defaultHTTPTimeout = 10 * time.Second

// restClient is the shared HTTP plumbing for networked device families.
// It speaks plain JSON over HTTP and maps upstream status codes onto the
// error shapes adapters know how to translate.
type restClient struct {
	baseURL    string
	httpClient *http.Client
}

func newRESTClient(host string, port int) *restClient {
	return &restClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (c *restClient) do(ctx context.Context, auth Auth, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case auth.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+auth.BearerToken)
	case auth.Username != "":
		req.SetBasicAuth(auth.Username, auth.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream error (status %d): %s", resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 30 * time.Second
}

// HTTPCamera implements CameraClient and PTZClient against a camera's
// local HTTP control endpoint.
type HTTPCamera struct {
	rest *restClient
}

// NewHTTPCamera creates a camera client for host:port.
func NewHTTPCamera(host string, port int) *HTTPCamera {
	return &HTTPCamera{rest: newRESTClient(host, port)}
}

func (c *HTTPCamera) Ping(ctx context.Context, auth Auth) error {
	return c.rest.do(ctx, auth, http.MethodGet, "/api/status", nil, nil)
}

func (c *HTTPCamera) CaptureStill(ctx context.Context, auth Auth) (device.ImageRef, error) {
	var out struct {
		URL    string `json:"url"`
		Format string `json:"format"`
	}
	if err := c.rest.do(ctx, auth, http.MethodPost, "/api/snapshot", nil, &out); err != nil {
		return device.ImageRef{}, err
	}
	return device.ImageRef{URL: out.URL, Format: out.Format, CapturedAt: time.Now().UTC()}, nil
}

func (c *HTTPCamera) StreamDescriptor(ctx context.Context, auth Auth) (device.StreamInfo, error) {
	var out device.StreamInfo
	if err := c.rest.do(ctx, auth, http.MethodGet, "/api/stream", nil, &out); err != nil {
		return device.StreamInfo{}, err
	}
	return out, nil
}

func (c *HTTPCamera) MoveTo(ctx context.Context, auth Auth, pos device.PTZPosition, speed float64) error {
	body := map[string]any{
		"pan":   pos.Pan,
		"tilt":  pos.Tilt,
		"zoom":  pos.Zoom,
		"speed": speed,
	}
	return c.rest.do(ctx, auth, http.MethodPost, "/api/ptz/move", body, nil)
}

func (c *HTTPCamera) Position(ctx context.Context, auth Auth) (device.PTZPosition, error) {
	var out device.PTZPosition
	if err := c.rest.do(ctx, auth, http.MethodGet, "/api/ptz/position", nil, &out); err != nil {
		return device.PTZPosition{}, err
	}
	return out, nil
}

func (c *HTTPCamera) Stop(ctx context.Context, auth Auth) error {
	return c.rest.do(ctx, auth, http.MethodPost, "/api/ptz/stop", nil, nil)
}

// HTTPPlug implements PlugClient against a smart plug's local HTTP API.
type HTTPPlug struct {
	rest *restClient
}

// NewHTTPPlug creates a plug client for host:port.
func NewHTTPPlug(host string, port int) *HTTPPlug {
	return &HTTPPlug{rest: newRESTClient(host, port)}
}

func (c *HTTPPlug) Ping(ctx context.Context, auth Auth) error {
	return c.rest.do(ctx, auth, http.MethodGet, "/api/status", nil, nil)
}

func (c *HTTPPlug) SetPower(ctx context.Context, auth Auth, on bool) error {
	return c.rest.do(ctx, auth, http.MethodPost, "/api/power", map[string]any{"on": on}, nil)
}

func (c *HTTPPlug) PowerState(ctx context.Context, auth Auth) (bool, error) {
	var out struct {
		On bool `json:"on"`
	}
	if err := c.rest.do(ctx, auth, http.MethodGet, "/api/power", nil, &out); err != nil {
		return false, err
	}
	return out.On, nil
}

func (c *HTTPPlug) Reading(ctx context.Context, auth Auth) (device.PowerReading, error) {
	var out device.PowerReading
	if err := c.rest.do(ctx, auth, http.MethodGet, "/api/power/reading", nil, &out); err != nil {
		return device.PowerReading{}, err
	}
	return out, nil
}

// HTTPSensor implements SensorClient against a station's local HTTP API.
type HTTPSensor struct {
	rest *restClient
}

// NewHTTPSensor creates a sensor client for host:port.
func NewHTTPSensor(host string, port int) *HTTPSensor {
	return &HTTPSensor{rest: newRESTClient(host, port)}
}

func (c *HTTPSensor) Ping(ctx context.Context, auth Auth) error {
	return c.rest.do(ctx, auth, http.MethodGet, "/api/status", nil, nil)
}

func (c *HTTPSensor) Read(ctx context.Context, auth Auth) (device.SensorReading, error) {
	var out device.SensorReading
	if err := c.rest.do(ctx, auth, http.MethodGet, "/api/reading", nil, &out); err != nil {
		return device.SensorReading{}, err
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	return out, nil
}
