package adapters

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
)

const (
	// moveTimeout bounds a single positioning call. The upstream
	// behavior left this unconstrained; 10s comfortably covers a
	// full-range sweep on consumer PTZ hardware.
	moveTimeout = 10 * time.Second

	// defaultSpeed is used when the caller supplies no speed hint.
	defaultSpeed = 0.5
)

// PTZCameraAdapter drives pan-tilt-zoom cameras. It embeds the camera
// capability and adds positioning with silent clamping and named presets.
//
// The recorded position only ever changes after a positioning call
// succeeds, so a cancelled or failed move never leaves a maybe-applied
// intermediate state behind.
type PTZCameraAdapter struct {
	CameraAdapter
	ptz integration.PTZClient

	mu           sync.Mutex
	pos          device.PTZPosition
	presets      map[string]device.PTZPreset
	nextPresetID int
}

// NewPTZCamera creates a PTZ camera adapter.
func NewPTZCamera(name string, sessions sessionManager, status *device.Status, cam integration.CameraClient, ptz integration.PTZClient) *PTZCameraAdapter {
	return &PTZCameraAdapter{
		CameraAdapter: *NewCamera(name, sessions, status, cam),
		ptz:           ptz,
		presets:       make(map[string]device.PTZPreset),
		nextPresetID:  1,
	}
}

func (a *PTZCameraAdapter) Family() device.Family { return device.FamilyPTZCamera }

// Move applies deltas to the current position. The target is clamped so
// partial movement toward a boundary succeeds silently; the returned
// position always reflects the clamped value.
func (a *PTZCameraAdapter) Move(ctx context.Context, panDelta, tiltDelta, zoomDelta, speed float64) (device.PTZPosition, error) {
	a.mu.Lock()
	target := device.PTZPosition{
		Pan:  a.pos.Pan + panDelta,
		Tilt: a.pos.Tilt + tiltDelta,
		Zoom: a.pos.Zoom + zoomDelta,
	}.Clamp()
	a.mu.Unlock()

	return a.moveTo(ctx, target, normalizeSpeed(speed))
}

// Position returns the device's current position.
func (a *PTZCameraAdapter) Position(ctx context.Context) (device.PTZPosition, error) {
	var out device.PTZPosition
	err := a.exec(ctx, func(auth integration.Auth) error {
		p, err := a.ptz.Position(ctx, auth)
		if err != nil {
			return err
		}
		out = p.Clamp()
		return nil
	})
	if err != nil {
		return device.PTZPosition{}, err
	}

	a.mu.Lock()
	a.pos = out
	a.mu.Unlock()
	return out, nil
}

// SavePreset snapshots the device's actual current position under name.
func (a *PTZCameraAdapter) SavePreset(ctx context.Context, name string) (device.PTZPreset, error) {
	if name == "" {
		return device.PTZPreset{}, fmt.Errorf("%w: empty preset name", device.ErrNotFound)
	}

	pos, err := a.Position(ctx)
	if err != nil {
		return device.PTZPreset{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	preset := device.PTZPreset{Name: name, Position: pos}
	if existing, ok := a.presets[name]; ok {
		preset.ID = existing.ID
	} else {
		preset.ID = a.nextPresetID
		a.nextPresetID++
	}
	a.presets[name] = preset
	return preset, nil
}

// RecallPreset moves to a stored preset addressed by name or numeric id.
// An unknown reference is a NotFound failure, never a silent no-op and
// never a pass-through of the name as an id.
func (a *PTZCameraAdapter) RecallPreset(ctx context.Context, ref string) (device.PTZPosition, error) {
	a.mu.Lock()
	preset, ok := a.presets[ref]
	if !ok {
		if id, err := strconv.Atoi(ref); err == nil {
			for _, p := range a.presets {
				if p.ID == id {
					preset, ok = p, true
					break
				}
			}
		}
	}
	a.mu.Unlock()

	if !ok {
		return device.PTZPosition{}, fmt.Errorf("%w: preset %q", device.ErrNotFound, ref)
	}

	// Recall always uses the default speed; caller-supplied speed hints
	// apply to move only and are dropped upstream.
	return a.moveTo(ctx, preset.Position, defaultSpeed)
}

// GoHome moves to the all-zero home position.
func (a *PTZCameraAdapter) GoHome(ctx context.Context) (device.PTZPosition, error) {
	return a.moveTo(ctx, device.PTZPosition{}, defaultSpeed)
}

// Stop halts any in-flight movement and reads back the resting position.
func (a *PTZCameraAdapter) Stop(ctx context.Context) (device.PTZPosition, error) {
	err := a.exec(ctx, func(auth integration.Auth) error {
		return a.ptz.Stop(ctx, auth)
	})
	if err != nil {
		a.readBack(ctx)
		return device.PTZPosition{}, err
	}

	// Wherever the device came to rest is the new recorded position.
	if pos, err := a.Position(ctx); err == nil {
		return pos, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos, nil
}

// Presets returns the stored presets. Used by the API surface.
func (a *PTZCameraAdapter) Presets() []device.PTZPreset {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]device.PTZPreset, 0, len(a.presets))
	for _, p := range a.presets {
		out = append(out, p)
	}
	return out
}

// moveTo issues the positioning call and records the target only after
// the device confirms it.
func (a *PTZCameraAdapter) moveTo(ctx context.Context, target device.PTZPosition, speed float64) (device.PTZPosition, error) {
	mctx, cancel := context.WithTimeout(ctx, moveTimeout)
	defer cancel()

	err := a.exec(mctx, func(auth integration.Auth) error {
		return a.ptz.MoveTo(mctx, auth, target, speed)
	})
	if err != nil {
		a.readBack(ctx)
		return device.PTZPosition{}, err
	}

	a.mu.Lock()
	a.pos = target
	a.mu.Unlock()
	return target, nil
}

// readBack refreshes the recorded position after a failed mutation so
// the caller's next read reflects the device's actual state. Best effort
// and detached from the caller's context, which may already be cancelled.
func (a *PTZCameraAdapter) readBack(ctx context.Context) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readBackTimeout)
	defer cancel()

	auth, err := a.auth(rctx)
	if err != nil {
		return
	}
	pos, err := a.ptz.Position(rctx, auth)
	if err != nil {
		log.Debug().Err(err).Str("device", a.name).Msg("Position read-back failed")
		return
	}

	a.mu.Lock()
	a.pos = pos.Clamp()
	a.mu.Unlock()
}

func normalizeSpeed(speed float64) float64 {
	if speed <= 0 {
		return defaultSpeed
	}
	if speed > 1 {
		return 1
	}
	return speed
}
