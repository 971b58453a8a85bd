package adapters

import (
	"context"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
)

// SensorAdapter drives weather stations and alarm sensors.
type SensorAdapter struct {
	base
	client integration.SensorClient
}

// NewSensor creates a sensor adapter.
func NewSensor(name string, sessions sessionManager, status *device.Status, client integration.SensorClient) *SensorAdapter {
	return &SensorAdapter{
		base:   newBase(name, sessions, status),
		client: client,
	}
}

func (a *SensorAdapter) Family() device.Family { return device.FamilySensor }

func (a *SensorAdapter) Connect(ctx context.Context) error {
	return a.exec(ctx, func(auth integration.Auth) error {
		return a.client.Ping(ctx, auth)
	})
}

func (a *SensorAdapter) Close() error { return nil }

func (a *SensorAdapter) Read(ctx context.Context) (device.SensorReading, error) {
	var out device.SensorReading
	err := a.exec(ctx, func(auth integration.Auth) error {
		r, err := a.client.Read(ctx, auth)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return device.SensorReading{}, err
	}
	return out, nil
}
