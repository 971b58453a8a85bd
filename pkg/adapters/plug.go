package adapters

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
)

// PlugAdapter drives smart plugs with energy telemetry.
type PlugAdapter struct {
	base
	client integration.PlugClient

	mu     sync.Mutex
	lastOn *bool
}

// NewPlug creates a plug adapter.
func NewPlug(name string, sessions sessionManager, status *device.Status, client integration.PlugClient) *PlugAdapter {
	return &PlugAdapter{
		base:   newBase(name, sessions, status),
		client: client,
	}
}

func (a *PlugAdapter) Family() device.Family { return device.FamilyPlug }

func (a *PlugAdapter) Connect(ctx context.Context) error {
	return a.exec(ctx, func(auth integration.Auth) error {
		return a.client.Ping(ctx, auth)
	})
}

func (a *PlugAdapter) Close() error { return nil }

// SetPower switches the plug. On a transport failure it reads back the
// plug's actual state before returning, so the recorded state never
// drifts into a maybe-applied assumption.
func (a *PlugAdapter) SetPower(ctx context.Context, on bool) (device.PowerState, error) {
	err := a.exec(ctx, func(auth integration.Auth) error {
		return a.client.SetPower(ctx, auth, on)
	})
	if err != nil {
		a.readBack(ctx)
		return device.PowerState{}, err
	}

	a.mu.Lock()
	a.lastOn = &on
	a.mu.Unlock()
	return device.PowerState{On: on}, nil
}

// ReadPower returns the current energy telemetry. The reading is always
// fully populated; callers never see vendor-specific partial shapes.
func (a *PlugAdapter) ReadPower(ctx context.Context) (device.PowerReading, error) {
	var out device.PowerReading
	err := a.exec(ctx, func(auth integration.Auth) error {
		r, err := a.client.Reading(ctx, auth)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return device.PowerReading{}, err
	}
	return out, nil
}

// LastKnownState returns the most recently confirmed on/off state, if any.
func (a *PlugAdapter) LastKnownState() (bool, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastOn == nil {
		return false, false
	}
	return *a.lastOn, true
}

func (a *PlugAdapter) readBack(ctx context.Context) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readBackTimeout)
	defer cancel()

	auth, err := a.auth(rctx)
	if err != nil {
		return
	}
	on, err := a.client.PowerState(rctx, auth)
	if err != nil {
		log.Debug().Err(err).Str("device", a.name).Msg("Power state read-back failed")
		return
	}

	a.mu.Lock()
	a.lastOn = &on
	a.mu.Unlock()
}
