package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// AdapterFactory builds an adapter for a device being registered. The
// factory receives the shared Status so the adapter can record the
// outcome of vendor calls.
type AdapterFactory func(name string, family Family, cfg Config, status *Status) (Adapter, error)

// Registry maps stable device names to live Device instances and owns
// their lifecycle. It is the only holder of mutable device topology;
// nothing else keeps device references across calls.
type Registry struct {
	mu       sync.RWMutex
	devices  map[string]*Device
	order    []string
	factory  AdapterFactory
	listener StateListener
}

// StateListener observes connection state transitions for every device
// in the registry. Listeners must not block; they run on the goroutine
// that caused the transition.
type StateListener func(name string, state ConnectionState)

// Option configures a Registry.
type Option func(*Registry)

// WithStateListener attaches a connection state listener to every device
// registered from now on.
func WithStateListener(fn StateListener) Option {
	return func(r *Registry) { r.listener = fn }
}

// NewRegistry creates an empty registry using the given adapter factory.
func NewRegistry(factory AdapterFactory, opts ...Option) *Registry {
	r := &Registry{
		devices: make(map[string]*Device),
		factory: factory,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a device under a unique name. Registration does not
// imply a live connection: the device starts Disconnected and connects
// lazily on first action, unless the config requests an eager connect.
func (r *Registry) Register(ctx context.Context, name string, family Family, cfg Config) (*Device, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty device name", ErrInvalidConfig)
	}
	if !family.Valid() {
		return nil, fmt.Errorf("%w: unknown family %q", ErrInvalidConfig, family)
	}
	if err := validateConfig(family, cfg); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	status := NewStatus()
	if r.listener != nil {
		deviceName := name
		status.Watch(func(s ConnectionState) { r.listener(deviceName, s) })
	}
	adapter, err := r.factory(name, family, cfg, status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	d := New(name, family, status, adapter)
	r.devices[name] = d
	r.order = append(r.order, name)

	log.Info().
		Str("device", name).
		Str("family", string(family)).
		Bool("eager", cfg.EagerConnect).
		Msg("Device registered")

	if cfg.EagerConnect {
		connect(ctx, d)
	}

	return d, nil
}

// Resolve returns the device registered under name. A device found in
// the Failed state gets exactly one reconnect attempt; if that also
// fails the device is returned as Failed and the caller's next action
// will surface a transport failure instead of blocking here.
func (r *Registry) Resolve(ctx context.Context, name string) (*Device, error) {
	r.mu.RLock()
	d, ok := r.devices[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: device %q", ErrNotFound, name)
	}

	if d.ConnectionState() == StateFailed {
		log.Warn().Str("device", name).Msg("Resolving failed device, attempting reconnect")
		connect(ctx, d)
	}

	return d, nil
}

// Reconnect forces a reconnect attempt for the named device.
func (r *Registry) Reconnect(ctx context.Context, name string) (*Device, error) {
	r.mu.RLock()
	d, ok := r.devices[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: device %q", ErrNotFound, name)
	}

	connect(ctx, d)
	return d, nil
}

// Remove closes the device's adapter and deletes it from the registry.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[name]
	if !ok {
		return fmt.Errorf("%w: device %q", ErrNotFound, name)
	}

	if err := d.Adapter().Close(); err != nil {
		log.Warn().Err(err).Str("device", name).Msg("Failed to close adapter during removal")
	}

	delete(r.devices, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	log.Info().Str("device", name).Msg("Device removed")
	return nil
}

// List returns all registered devices in insertion order.
func (r *Registry) List() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Device, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.devices[name])
	}
	return out
}

// Close closes every adapter. Used at process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		if err := r.devices[name].Adapter().Close(); err != nil {
			log.Warn().Err(err).Str("device", name).Msg("Failed to close adapter")
		}
	}
	r.devices = make(map[string]*Device)
	r.order = nil
}

// connect runs a single connect attempt and records the resulting state.
func connect(ctx context.Context, d *Device) {
	d.status.Set(StateConnecting)
	if err := d.Adapter().Connect(ctx); err != nil {
		log.Warn().Err(err).Str("device", d.Name()).Msg("Device connect failed")
		d.status.Set(StateFailed)
		return
	}
	d.status.Set(StateReady)
}

// validateConfig checks the per-family required connection parameters.
func validateConfig(family Family, cfg Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("%w: host is required for family %q", ErrInvalidConfig, family)
	}

	switch family {
	case FamilyCamera, FamilyPTZCamera, FamilyPlug, FamilySensor:
		if cfg.Port <= 0 {
			return fmt.Errorf("%w: port is required for family %q", ErrInvalidConfig, family)
		}
	case FamilyLight:
		// Bridge-attached lights address the bridge by host (a serial
		// port path or broker address); no port requirement.
	}

	if cfg.OAuth() {
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return fmt.Errorf("%w: oauth devices need client_id and client_secret", ErrInvalidConfig)
		}
		if cfg.TokenURL == "" {
			return fmt.Errorf("%w: oauth devices need token_url", ErrInvalidConfig)
		}
	}

	return nil
}
