package types

import (
	"time"

	"github.com/castellan-home/castellan/pkg/gateway"
)

// --- Request DTOs ---

// DispatchRequest is the request body for POST /dispatch
type DispatchRequest struct {
	Tool       string         `json:"tool" binding:"required"`
	Action     string         `json:"action" binding:"required"`
	Device     string         `json:"device" binding:"required"`
	Parameters map[string]any `json:"parameters"`
}

// RegisterDeviceRequest is the request body for POST /devices
type RegisterDeviceRequest struct {
	Name   string `json:"name" binding:"required"`
	Family string `json:"family" binding:"required"`
	Host   string `json:"host" binding:"required"`
	Port   int    `json:"port"`

	Username string `json:"username"`
	Password string `json:"password"`

	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	TokenURL     string `json:"token_url"`

	EagerConnect bool `json:"eager_connect"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Devices   int       `json:"devices"`
	Ready     int       `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
}

// DispatchResponse is returned from POST /dispatch. It carries the
// normalized action result verbatim.
type DispatchResponse struct {
	Result gateway.ActionResult `json:"result"`
}

// DeviceInfo describes one registered device
type DeviceInfo struct {
	Name            string   `json:"name"`
	Family          string   `json:"family"`
	ConnectionState string   `json:"connection_state"`
	Capabilities    []string `json:"capabilities"`
}

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices []DeviceInfo `json:"devices"`
	Count   int          `json:"count"`
}

// DeviceResponse is returned from GET /devices/:name
type DeviceResponse struct {
	Device DeviceInfo `json:"device"`
}
