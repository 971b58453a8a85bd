package device

import "time"

// Family identifies the kind of device an adapter drives.
type Family string

// Device families
const (
	FamilyCamera    Family = "camera"
	FamilyPTZCamera Family = "ptz_camera"
	FamilyPlug      Family = "plug"
	FamilyLight     Family = "light"
	FamilySensor    Family = "sensor"
)

// Valid reports whether f is a known device family.
func (f Family) Valid() bool {
	switch f {
	case FamilyCamera, FamilyPTZCamera, FamilyPlug, FamilyLight, FamilySensor:
		return true
	}
	return false
}

// Capabilities returns the capability groups a family supports.
func (f Family) Capabilities() []Capability {
	switch f {
	case FamilyCamera:
		return []Capability{CapabilityCamera}
	case FamilyPTZCamera:
		return []Capability{CapabilityCamera, CapabilityPTZ}
	case FamilyPlug:
		return []Capability{CapabilityPower}
	case FamilyLight:
		return []Capability{CapabilityLight}
	case FamilySensor:
		return []Capability{CapabilitySensor}
	}
	return nil
}

// Capability is a named bundle of related operations a device may support.
type Capability string

// Capability groups
const (
	CapabilityCamera Capability = "camera"
	CapabilityPTZ    Capability = "ptz"
	CapabilityPower  Capability = "power"
	CapabilityLight  Capability = "light"
	CapabilitySensor Capability = "sensor"
)

// ConnectionState tracks the lifecycle of a device's connection.
type ConnectionState string

// Connection states
const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateReady        ConnectionState = "ready"
	StateDegraded     ConnectionState = "degraded"
	StateFailed       ConnectionState = "failed"
)

// PTZPosition is a camera position. Pan and tilt are normalized to
// [-1, 1], zoom to [0, 1].
type PTZPosition struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Zoom float64 `json:"zoom"`
}

// Clamp returns the position with each axis forced into its valid range.
// Clamping is idempotent.
func (p PTZPosition) Clamp() PTZPosition {
	return PTZPosition{
		Pan:  clampFloat(p.Pan, -1, 1),
		Tilt: clampFloat(p.Tilt, -1, 1),
		Zoom: clampFloat(p.Zoom, 0, 1),
	}
}

// InBounds reports whether every axis is within its valid range.
func (p PTZPosition) InBounds() bool {
	return p == p.Clamp()
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PTZPreset is a named, saved PTZ position that can be recalled later.
type PTZPreset struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Position PTZPosition `json:"position"`
}

// PowerState is the on/off state of a switchable device.
type PowerState struct {
	On bool `json:"on"`
}

// PowerReading is an instantaneous energy telemetry sample. Every plug
// adapter must populate all fields so callers never probe for
// vendor-specific attribute names.
type PowerReading struct {
	Watts float64 `json:"watts"`
	Volts float64 `json:"volts"`
	Amps  float64 `json:"amps"`
}

// SensorReading is a single measurement from a sensor device.
type SensorReading struct {
	Kind      string    `json:"kind"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// ImageRef points at a captured still image.
type ImageRef struct {
	URL        string    `json:"url"`
	Format     string    `json:"format"`
	CapturedAt time.Time `json:"captured_at"`
}

// StreamInfo describes a live stream endpoint.
type StreamInfo struct {
	URL      string `json:"url"`
	Protocol string `json:"protocol"`
}
