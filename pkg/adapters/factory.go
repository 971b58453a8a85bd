package adapters

import (
	"fmt"
	"sync"

	"github.com/castellan-home/castellan/pkg/bridge"
	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
)

// ClientFactory builds the vendor clients for a device from its
// connection config. Tests inject fakes; production uses DefaultClients.
type ClientFactory interface {
	Camera(cfg device.Config) (integration.CameraClient, error)
	PTZCamera(cfg device.Config) (integration.CameraClient, integration.PTZClient, error)
	Plug(cfg device.Config) (integration.PlugClient, error)
	Light(name string, cfg device.Config) (integration.LightClient, error)
	Sensor(cfg device.Config) (integration.SensorClient, error)
}

// NewFactory returns the registry's adapter factory, binding each
// family to its adapter type and vendor client.
func NewFactory(sessions sessionManager, clients ClientFactory) device.AdapterFactory {
	return func(name string, family device.Family, cfg device.Config, status *device.Status) (device.Adapter, error) {
		switch family {
		case device.FamilyCamera:
			c, err := clients.Camera(cfg)
			if err != nil {
				return nil, err
			}
			return NewCamera(name, sessions, status, c), nil

		case device.FamilyPTZCamera:
			cam, ptz, err := clients.PTZCamera(cfg)
			if err != nil {
				return nil, err
			}
			return NewPTZCamera(name, sessions, status, cam, ptz), nil

		case device.FamilyPlug:
			c, err := clients.Plug(cfg)
			if err != nil {
				return nil, err
			}
			return NewPlug(name, sessions, status, c), nil

		case device.FamilyLight:
			c, err := clients.Light(name, cfg)
			if err != nil {
				return nil, err
			}
			return NewLight(name, sessions, status, c), nil

		case device.FamilySensor:
			c, err := clients.Sensor(cfg)
			if err != nil {
				return nil, err
			}
			return NewSensor(name, sessions, status, c), nil
		}

		return nil, fmt.Errorf("no adapter for family %q", family)
	}
}

// DefaultClients builds the stock transports: HTTP control endpoints for
// networked families, and a shared serial bridge per port path for
// bridge-attached lights.
type DefaultClients struct {
	mu      sync.Mutex
	bridges map[string]*bridge.SerialBridge
}

// NewDefaultClients creates the production client factory.
func NewDefaultClients() *DefaultClients {
	return &DefaultClients{bridges: make(map[string]*bridge.SerialBridge)}
}

func (f *DefaultClients) Camera(cfg device.Config) (integration.CameraClient, error) {
	return integration.NewHTTPCamera(cfg.Host, cfg.Port), nil
}

func (f *DefaultClients) PTZCamera(cfg device.Config) (integration.CameraClient, integration.PTZClient, error) {
	c := integration.NewHTTPCamera(cfg.Host, cfg.Port)
	return c, c, nil
}

func (f *DefaultClients) Plug(cfg device.Config) (integration.PlugClient, error) {
	return integration.NewHTTPPlug(cfg.Host, cfg.Port), nil
}

func (f *DefaultClients) Light(name string, cfg device.Config) (integration.LightClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	br, ok := f.bridges[cfg.Host]
	if !ok {
		br = bridge.NewSerialBridge(cfg.Host)
		f.bridges[cfg.Host] = br
	}
	return br.Light(name), nil
}

func (f *DefaultClients) Sensor(cfg device.Config) (integration.SensorClient, error) {
	return integration.NewHTTPSensor(cfg.Host, cfg.Port), nil
}
