package adapters

import (
	"context"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
)

// CameraAdapter drives fixed IP cameras.
type CameraAdapter struct {
	base
	client integration.CameraClient
}

// NewCamera creates a camera adapter.
func NewCamera(name string, sessions sessionManager, status *device.Status, client integration.CameraClient) *CameraAdapter {
	return &CameraAdapter{
		base:   newBase(name, sessions, status),
		client: client,
	}
}

func (a *CameraAdapter) Family() device.Family { return device.FamilyCamera }

func (a *CameraAdapter) Connect(ctx context.Context) error {
	return a.exec(ctx, func(auth integration.Auth) error {
		return a.client.Ping(ctx, auth)
	})
}

func (a *CameraAdapter) Close() error { return nil }

func (a *CameraAdapter) CaptureStill(ctx context.Context) (device.ImageRef, error) {
	var out device.ImageRef
	err := a.exec(ctx, func(auth integration.Auth) error {
		ref, err := a.client.CaptureStill(ctx, auth)
		if err != nil {
			return err
		}
		out = ref
		return nil
	})
	if err != nil {
		return device.ImageRef{}, err
	}
	return out, nil
}

func (a *CameraAdapter) StreamDescriptor(ctx context.Context) (device.StreamInfo, error) {
	var out device.StreamInfo
	err := a.exec(ctx, func(auth integration.Auth) error {
		info, err := a.client.StreamDescriptor(ctx, auth)
		if err != nil {
			return err
		}
		out = info
		return nil
	})
	if err != nil {
		return device.StreamInfo{}, err
	}
	return out, nil
}
