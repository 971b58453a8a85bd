package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
	"github.com/castellan-home/castellan/pkg/session"
)

func newTestPlug(client *stubPlugClient) (*PlugAdapter, *stubSessions, *device.Status) {
	sessions := newStubSessions()
	status := device.NewStatus()
	a := NewPlug("plug_kitchen", sessions, status, client)
	return a, sessions, status
}

func TestSetPower_Success(t *testing.T) {
	client := &stubPlugClient{}
	a, _, status := newTestPlug(client)

	state, err := a.SetPower(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}

	if !state.On || !client.on {
		t.Error("expected plug switched on")
	}
	if status.Get() != device.StateReady {
		t.Errorf("expected ready, got %s", status.Get())
	}
	if on, ok := a.LastKnownState(); !ok || !on {
		t.Error("expected last known state recorded as on")
	}
}

func TestSetPower_FailureTriggersReadBack(t *testing.T) {
	client := &stubPlugClient{on: true}
	client.setErrs = []error{errors.New("connection reset")}
	a, _, status := newTestPlug(client)

	_, err := a.SetPower(context.Background(), false)
	if !errors.Is(err, device.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if status.Get() != device.StateDegraded {
		t.Errorf("expected degraded, got %s", status.Get())
	}

	// The read-back captured the device's actual state.
	if client.stateReads != 1 {
		t.Errorf("expected one state read-back, got %d", client.stateReads)
	}
	if on, ok := a.LastKnownState(); !ok || !on {
		t.Error("expected last known state to reflect the device, not the failed request")
	}
}

func TestSetPower_RetriesOnceOnUnauthorized(t *testing.T) {
	client := &stubPlugClient{}
	client.setErrs = []error{integration.ErrUnauthorized}
	a, sessions, _ := newTestPlug(client)

	state, err := a.SetPower(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if !state.On {
		t.Error("expected plug on after retry")
	}
	if sessions.invalidates != 1 {
		t.Errorf("expected one invalidation, got %d", sessions.invalidates)
	}
}

func TestSetPower_SecondUnauthorizedIsTerminal(t *testing.T) {
	client := &stubPlugClient{}
	client.setErrs = []error{integration.ErrUnauthorized, integration.ErrUnauthorized}
	a, _, _ := newTestPlug(client)

	_, err := a.SetPower(context.Background(), true)
	if !errors.Is(err, session.ErrAuthExpired) {
		t.Errorf("expected ErrAuthExpired, got %v", err)
	}
}

func TestSetPower_SessionFailureShortCircuits(t *testing.T) {
	client := &stubPlugClient{}
	a, sessions, _ := newTestPlug(client)
	sessions.fail = true

	_, err := a.SetPower(context.Background(), true)
	if !errors.Is(err, session.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if client.on {
		t.Error("vendor call must not run without a valid session")
	}
}

func TestReadPower_FullyPopulated(t *testing.T) {
	client := &stubPlugClient{}
	a, _, _ := newTestPlug(client)

	reading, err := a.ReadPower(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if reading.Watts == 0 || reading.Volts == 0 || reading.Amps == 0 {
		t.Errorf("expected fully populated reading, got %+v", reading)
	}
}

func TestReadPower_RateLimitPassesThrough(t *testing.T) {
	client := &stubPlugClient{readingErr: &integration.RateLimitError{}}
	a, _, status := newTestPlug(client)

	_, err := a.ReadPower(context.Background())
	var rl *integration.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if status.Get() == device.StateDegraded {
		t.Error("throttling must not mark the device degraded")
	}
}

func TestConnect_PingsDevice(t *testing.T) {
	client := &stubPlugClient{}
	a, _, status := newTestPlug(client)

	if err := a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if status.Get() != device.StateReady {
		t.Errorf("expected ready after connect, got %s", status.Get())
	}
}
