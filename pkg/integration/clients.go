// Package integration defines the opaque vendor client contracts the
// adapters talk to, and ships default HTTP implementations. Vendor wire
// protocols stay behind these interfaces; adapters translate their error
// shapes into the gateway taxonomy.
package integration

import (
	"context"

	"github.com/castellan-home/castellan/pkg/device"
)

// Auth carries the per-call authentication material derived from the
// device's session snapshot.
type Auth struct {
	Username    string
	Password    string
	BearerToken string
}

// CameraClient drives still-image and stream operations.
type CameraClient interface {
	Ping(ctx context.Context, auth Auth) error
	CaptureStill(ctx context.Context, auth Auth) (device.ImageRef, error)
	StreamDescriptor(ctx context.Context, auth Auth) (device.StreamInfo, error)
}

// PTZClient drives absolute positioning. Adapters own delta math and
// clamping; clients only ever see in-bounds absolute positions.
type PTZClient interface {
	MoveTo(ctx context.Context, auth Auth, pos device.PTZPosition, speed float64) error
	Position(ctx context.Context, auth Auth) (device.PTZPosition, error)
	Stop(ctx context.Context, auth Auth) error
}

// PlugClient drives switching and energy telemetry.
type PlugClient interface {
	Ping(ctx context.Context, auth Auth) error
	SetPower(ctx context.Context, auth Auth, on bool) error
	PowerState(ctx context.Context, auth Auth) (bool, error)
	Reading(ctx context.Context, auth Auth) (device.PowerReading, error)
}

// LightClient drives a bridge-attached light.
type LightClient interface {
	Ping(ctx context.Context, auth Auth) error
	SetOn(ctx context.Context, auth Auth, on bool) error
	SetBrightness(ctx context.Context, auth Auth, level int) error
	SetColor(ctx context.Context, auth Auth, r, g, b uint8) error
}

// SensorClient drives measurement reads.
type SensorClient interface {
	Ping(ctx context.Context, auth Auth) error
	Read(ctx context.Context, auth Auth) (device.SensorReading, error)
}
