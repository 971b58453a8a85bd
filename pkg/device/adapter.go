package device

import "context"

// Adapter is the device-family-specific implementation behind a registered
// device. Concrete adapters additionally implement the capability
// interfaces below; the dispatcher only invokes a capability method when
// the device's family declares that capability.
type Adapter interface {
	// Family returns the device family the adapter drives
	Family() Family

	// Connect establishes (or re-establishes) the underlying connection
	Connect(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}

// Camera is the still-image and stream capability group.
type Camera interface {
	// CaptureStill takes a snapshot and returns a reference to the image
	CaptureStill(ctx context.Context) (ImageRef, error)

	// StreamDescriptor returns the live stream endpoint
	StreamDescriptor(ctx context.Context) (StreamInfo, error)
}

// PTZ is the pan-tilt-zoom capability group. All returned positions are
// clamped to their valid ranges.
type PTZ interface {
	// Move applies deltas to the current position. The target is clamped
	// silently; the returned position reflects the clamped value.
	// Speed is normalized to (0, 1].
	Move(ctx context.Context, panDelta, tiltDelta, zoomDelta, speed float64) (PTZPosition, error)

	// Position returns the current position
	Position(ctx context.Context) (PTZPosition, error)

	// SavePreset snapshots the current position under a name
	SavePreset(ctx context.Context, name string) (PTZPreset, error)

	// RecallPreset moves to a stored preset, addressed by name or
	// numeric id. Unknown presets are ErrNotFound, never a silent no-op.
	RecallPreset(ctx context.Context, ref string) (PTZPosition, error)

	// GoHome moves to the home position
	GoHome(ctx context.Context) (PTZPosition, error)

	// Stop halts any in-flight movement and returns the resting position
	Stop(ctx context.Context) (PTZPosition, error)
}

// Power is the switching and energy telemetry capability group.
type Power interface {
	// SetPower switches the device on or off
	SetPower(ctx context.Context, on bool) (PowerState, error)

	// ReadPower returns the current energy telemetry
	ReadPower(ctx context.Context) (PowerReading, error)
}

// Light is the lighting capability group.
type Light interface {
	// SetOn switches the light on or off
	SetOn(ctx context.Context, on bool) error

	// SetBrightness sets brightness as a percentage 0-100
	SetBrightness(ctx context.Context, level int) error

	// SetColor sets the light color as 8-bit RGB
	SetColor(ctx context.Context, r, g, b uint8) error
}

// Sensor is the measurement capability group.
type Sensor interface {
	// Read returns the current sensor measurement
	Read(ctx context.Context) (SensorReading, error)
}
