package adapters

import (
	"context"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
)

// LightAdapter drives a bridge-attached light. Parameter ranges are
// enforced at the dispatch boundary; the adapter forwards verbatim.
type LightAdapter struct {
	base
	client integration.LightClient
}

// NewLight creates a light adapter.
func NewLight(name string, sessions sessionManager, status *device.Status, client integration.LightClient) *LightAdapter {
	return &LightAdapter{
		base:   newBase(name, sessions, status),
		client: client,
	}
}

func (a *LightAdapter) Family() device.Family { return device.FamilyLight }

func (a *LightAdapter) Connect(ctx context.Context) error {
	return a.exec(ctx, func(auth integration.Auth) error {
		return a.client.Ping(ctx, auth)
	})
}

func (a *LightAdapter) Close() error { return nil }

func (a *LightAdapter) SetOn(ctx context.Context, on bool) error {
	return a.exec(ctx, func(auth integration.Auth) error {
		return a.client.SetOn(ctx, auth, on)
	})
}

func (a *LightAdapter) SetBrightness(ctx context.Context, level int) error {
	return a.exec(ctx, func(auth integration.Auth) error {
		return a.client.SetBrightness(ctx, auth, level)
	})
}

func (a *LightAdapter) SetColor(ctx context.Context, r, g, b uint8) error {
	return a.exec(ctx, func(auth integration.Auth) error {
		return a.client.SetColor(ctx, auth, r, g, b)
	})
}
