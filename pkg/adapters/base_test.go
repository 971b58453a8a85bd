package adapters

import (
	"context"
	"sync"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
	"github.com/castellan-home/castellan/pkg/session"
)

// stubSessions is a sessionManager whose token rotates on invalidation,
// so the retry-once path can be observed end to end.
type stubSessions struct {
	mu          sync.Mutex
	ensures     int
	invalidates int
	token       string
	fail        bool
}

func newStubSessions() *stubSessions {
	return &stubSessions{token: "token-0"}
}

func (s *stubSessions) EnsureValid(ctx context.Context, name string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensures++
	if s.fail {
		return session.Session{}, session.ErrAuthExpired
	}
	return session.Session{Kind: session.KindOAuth, AccessToken: s.token}, nil
}

func (s *stubSessions) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidates++
	s.token = "token-1"
}

// stubPTZClient scripts per-call failures for the PTZ transport.
type stubPTZClient struct {
	mu        sync.Mutex
	pos       device.PTZPosition
	moves     int
	stops     int
	positions int

	moveErrs []error // consumed in order; nil entries succeed
	posErr   error
}

func (c *stubPTZClient) nextMoveErr() error {
	if len(c.moveErrs) == 0 {
		return nil
	}
	err := c.moveErrs[0]
	c.moveErrs = c.moveErrs[1:]
	return err
}

func (c *stubPTZClient) MoveTo(ctx context.Context, auth integration.Auth, pos device.PTZPosition, speed float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moves++
	if err := c.nextMoveErr(); err != nil {
		return err
	}
	c.pos = pos
	return nil
}

func (c *stubPTZClient) Position(ctx context.Context, auth integration.Auth) (device.PTZPosition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions++
	if c.posErr != nil {
		return device.PTZPosition{}, c.posErr
	}
	return c.pos, nil
}

func (c *stubPTZClient) Stop(ctx context.Context, auth integration.Auth) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	return nil
}

// stubCameraClient satisfies the camera transport for PTZ adapter tests.
type stubCameraClient struct{}

func (stubCameraClient) Ping(ctx context.Context, auth integration.Auth) error { return nil }

func (stubCameraClient) CaptureStill(ctx context.Context, auth integration.Auth) (device.ImageRef, error) {
	return device.ImageRef{URL: "http://cam/still.jpg", Format: "jpeg"}, nil
}

func (stubCameraClient) StreamDescriptor(ctx context.Context, auth integration.Auth) (device.StreamInfo, error) {
	return device.StreamInfo{URL: "rtsp://cam/live", Protocol: "rtsp"}, nil
}

// stubPlugClient scripts per-call failures for the plug transport.
type stubPlugClient struct {
	mu         sync.Mutex
	on         bool
	setErrs    []error
	stateReads int
	readingErr error
}

func (c *stubPlugClient) Ping(ctx context.Context, auth integration.Auth) error { return nil }

func (c *stubPlugClient) SetPower(ctx context.Context, auth integration.Auth, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.setErrs) > 0 {
		err := c.setErrs[0]
		c.setErrs = c.setErrs[1:]
		if err != nil {
			return err
		}
	}
	c.on = on
	return nil
}

func (c *stubPlugClient) PowerState(ctx context.Context, auth integration.Auth) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateReads++
	return c.on, nil
}

func (c *stubPlugClient) Reading(ctx context.Context, auth integration.Auth) (device.PowerReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readingErr != nil {
		return device.PowerReading{}, c.readingErr
	}
	return device.PowerReading{Watts: 17.2, Volts: 229.8, Amps: 0.07}, nil
}
