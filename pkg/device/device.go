package device

import "sync"

// Config holds the connection parameters for a device, supplied by the
// configuration loader at registration time.
type Config struct {
	// Host is the device address: an IP/hostname for networked devices,
	// or a serial port path for bridge-attached devices.
	Host string
	Port int

	// Static credentials (LocalCredential sessions)
	Username string
	Password string

	// OAuth credentials (OAuthToken sessions)
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string

	// EagerConnect requests a connection attempt at registration instead
	// of lazily on first action.
	EagerConnect bool
}

// OAuth reports whether the config carries cloud OAuth credentials.
func (c Config) OAuth() bool {
	return c.ClientID != "" || c.ClientSecret != "" || c.RefreshToken != ""
}

// Status tracks a device's connection state. It is shared between the
// registry-owned Device and its adapter: the adapter records outcomes of
// vendor calls, the registry records connect attempts.
type Status struct {
	mu       sync.Mutex
	state    ConnectionState
	onChange func(ConnectionState)
}

// NewStatus creates a Status in the Disconnected state.
func NewStatus() *Status {
	return &Status{state: StateDisconnected}
}

// Get returns the current connection state.
func (s *Status) Get() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set records a connection state transition.
func (s *Status) Set(state ConnectionState) {
	s.mu.Lock()
	changed := state != s.state
	s.state = state
	fn := s.onChange
	s.mu.Unlock()

	if changed && fn != nil {
		fn(state)
	}
}

// Watch registers a callback invoked after every state transition. It
// must be set before the Status is shared with an adapter.
func (s *Status) Watch(fn func(ConnectionState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Device binds a caller-facing name to a live adapter. A Device
// exclusively owns its adapter; all access goes through the registry.
type Device struct {
	name    string
	family  Family
	caps    map[Capability]bool
	status  *Status
	adapter Adapter

	// actionMu serializes mutating actions against this device. Mutating
	// actions take the write lock, read-only actions the read lock, so
	// reads run concurrently with each other but wait out any in-flight
	// mutation.
	actionMu sync.RWMutex
}

// New creates a Device for an already-constructed adapter.
func New(name string, family Family, status *Status, adapter Adapter) *Device {
	caps := make(map[Capability]bool)
	for _, c := range family.Capabilities() {
		caps[c] = true
	}
	return &Device{
		name:    name,
		family:  family,
		caps:    caps,
		status:  status,
		adapter: adapter,
	}
}

// Name returns the caller-facing device name.
func (d *Device) Name() string { return d.name }

// Family returns the device family.
func (d *Device) Family() Family { return d.family }

// ConnectionState returns the current connection state.
func (d *Device) ConnectionState() ConnectionState { return d.status.Get() }

// Capabilities returns the device's capability groups.
func (d *Device) Capabilities() []Capability { return d.family.Capabilities() }

// Supports reports whether the device declares the capability group.
func (d *Device) Supports(c Capability) bool { return d.caps[c] }

// Adapter returns the device's adapter.
func (d *Device) Adapter() Adapter { return d.adapter }

// LockActions acquires the device's action lock. Mutating actions must
// hold the exclusive lock for the duration of the adapter invocation.
func (d *Device) LockActions() { d.actionMu.Lock() }

// UnlockActions releases the exclusive action lock.
func (d *Device) UnlockActions() { d.actionMu.Unlock() }

// RLockActions acquires the shared action lock for read-only actions.
func (d *Device) RLockActions() { d.actionMu.RLock() }

// RUnlockActions releases the shared action lock.
func (d *Device) RUnlockActions() { d.actionMu.RUnlock() }
