package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
	"github.com/castellan-home/castellan/pkg/session"
)

func newTestPTZ(client *stubPTZClient) (*PTZCameraAdapter, *stubSessions, *device.Status) {
	sessions := newStubSessions()
	status := device.NewStatus()
	a := NewPTZCamera("cam_door", sessions, status, stubCameraClient{}, client)
	return a, sessions, status
}

func TestMove_ClampsTarget(t *testing.T) {
	client := &stubPTZClient{}
	a, _, _ := newTestPTZ(client)

	pos, err := a.Move(context.Background(), 5, -5, 2, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	want := device.PTZPosition{Pan: 1, Tilt: -1, Zoom: 1}
	if pos != want {
		t.Errorf("expected clamped %+v, got %+v", want, pos)
	}
	if client.pos != want {
		t.Error("client must only ever see in-bounds positions")
	}
}

func TestMove_ClampIsIdempotentAtBoundary(t *testing.T) {
	client := &stubPTZClient{}
	a, _, _ := newTestPTZ(client)

	first, err := a.Move(context.Background(), 5, 0, 0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Move(context.Background(), 5, 0, 0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("repeated boundary move changed position: %+v -> %+v", first, second)
	}
}

func TestMove_FailureKeepsRecordedPositionHonest(t *testing.T) {
	client := &stubPTZClient{pos: device.PTZPosition{Pan: 0.3}}
	client.moveErrs = []error{errors.New("connection reset")}
	a, _, status := newTestPTZ(client)

	_, err := a.Move(context.Background(), 0.5, 0, 0, 0.5)
	if !errors.Is(err, device.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if status.Get() != device.StateDegraded {
		t.Errorf("expected degraded after transport failure, got %s", status.Get())
	}

	// The failed move triggered a read-back; the recorded position must
	// reflect the device's actual state, not the attempted target.
	pos, err := a.Position(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pos.Pan != 0.3 {
		t.Errorf("expected read-back position 0.3, got %v", pos.Pan)
	}
}

func TestMove_RetriesOnceOnUnauthorized(t *testing.T) {
	client := &stubPTZClient{}
	client.moveErrs = []error{integration.ErrUnauthorized}
	a, sessions, status := newTestPTZ(client)

	if _, err := a.Move(context.Background(), 0.2, 0, 0, 0.5); err != nil {
		t.Fatal(err)
	}

	if sessions.invalidates != 1 {
		t.Errorf("expected one invalidation, got %d", sessions.invalidates)
	}
	if client.moves != 2 {
		t.Errorf("expected exactly one retry, got %d calls", client.moves)
	}
	if status.Get() != device.StateReady {
		t.Errorf("expected ready after successful retry, got %s", status.Get())
	}
}

func TestMove_SecondUnauthorizedIsTerminal(t *testing.T) {
	client := &stubPTZClient{}
	client.moveErrs = []error{integration.ErrUnauthorized, integration.ErrUnauthorized}
	a, sessions, _ := newTestPTZ(client)

	_, err := a.Move(context.Background(), 0.2, 0, 0, 0.5)
	if !errors.Is(err, session.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if client.moves != 2 {
		t.Errorf("expected exactly two attempts, got %d", client.moves)
	}
	if sessions.invalidates != 1 {
		t.Errorf("expected one invalidation, got %d", sessions.invalidates)
	}
}

func TestMove_RateLimitPassesThrough(t *testing.T) {
	client := &stubPTZClient{}
	client.moveErrs = []error{&integration.RateLimitError{}}
	a, _, status := newTestPTZ(client)

	_, err := a.Move(context.Background(), 0.2, 0, 0, 0.5)
	var rl *integration.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if status.Get() == device.StateDegraded {
		t.Error("throttling must not mark the device degraded")
	}
}

func TestSavePreset_SnapshotsActualPosition(t *testing.T) {
	client := &stubPTZClient{pos: device.PTZPosition{Pan: 0.4, Tilt: 0.2}}
	a, _, _ := newTestPTZ(client)

	preset, err := a.SavePreset(context.Background(), "front_gate")
	if err != nil {
		t.Fatal(err)
	}

	if preset.ID != 1 || preset.Name != "front_gate" {
		t.Errorf("unexpected preset %+v", preset)
	}
	if preset.Position.Pan != 0.4 {
		t.Errorf("preset must snapshot the device's actual position, got %+v", preset.Position)
	}
}

func TestSavePreset_OverwriteKeepsID(t *testing.T) {
	client := &stubPTZClient{}
	a, _, _ := newTestPTZ(client)

	first, err := a.SavePreset(context.Background(), "front_gate")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Move(context.Background(), 0.5, 0, 0, 0.5); err != nil {
		t.Fatal(err)
	}
	second, err := a.SavePreset(context.Background(), "front_gate")
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("overwriting a preset must keep its id: %d != %d", second.ID, first.ID)
	}
	if second.Position.Pan != 0.5 {
		t.Errorf("overwritten preset must carry the new position, got %+v", second.Position)
	}
}

func TestRecallPreset_ByNameAndNumericID(t *testing.T) {
	client := &stubPTZClient{pos: device.PTZPosition{Pan: 0.4}}
	a, _, _ := newTestPTZ(client)

	preset, err := a.SavePreset(context.Background(), "front_gate")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.GoHome(context.Background()); err != nil {
		t.Fatal(err)
	}

	pos, err := a.RecallPreset(context.Background(), "front_gate")
	if err != nil {
		t.Fatal(err)
	}
	if pos.Pan != 0.4 {
		t.Errorf("recall by name: expected pan 0.4, got %v", pos.Pan)
	}

	if _, err := a.GoHome(context.Background()); err != nil {
		t.Fatal(err)
	}
	pos, err = a.RecallPreset(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if pos.Pan != 0.4 {
		t.Errorf("recall by id %d: expected pan 0.4, got %v", preset.ID, pos.Pan)
	}
}

func TestRecallPreset_UnknownIsNotFound(t *testing.T) {
	a, _, _ := newTestPTZ(&stubPTZClient{})

	_, err := a.RecallPreset(context.Background(), "nonexistent")
	if !errors.Is(err, device.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGoHome_MovesToZero(t *testing.T) {
	client := &stubPTZClient{pos: device.PTZPosition{Pan: 0.7, Tilt: -0.3, Zoom: 0.5}}
	a, _, _ := newTestPTZ(client)

	pos, err := a.GoHome(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pos != (device.PTZPosition{}) {
		t.Errorf("expected home position, got %+v", pos)
	}
}

func TestStop_ReadsBackRestingPosition(t *testing.T) {
	client := &stubPTZClient{pos: device.PTZPosition{Pan: 0.33}}
	a, _, _ := newTestPTZ(client)

	pos, err := a.Stop(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if client.stops != 1 {
		t.Errorf("expected one stop call, got %d", client.stops)
	}
	if pos.Pan != 0.33 {
		t.Errorf("expected resting position from device, got %+v", pos)
	}
}

func TestNormalizeSpeed(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, defaultSpeed},
		{-1, defaultSpeed},
		{0.25, 0.25},
		{1, 1},
		{3, 1},
	}
	for _, c := range cases {
		if got := normalizeSpeed(c.in); got != c.want {
			t.Errorf("normalizeSpeed(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
