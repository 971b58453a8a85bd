package device

import "testing"

func TestClamp_InBoundsUnchanged(t *testing.T) {
	p := PTZPosition{Pan: 0.5, Tilt: -0.25, Zoom: 0.75}

	if got := p.Clamp(); got != p {
		t.Errorf("expected in-bounds position unchanged, got %+v", got)
	}
	if !p.InBounds() {
		t.Error("expected position to report in bounds")
	}
}

func TestClamp_ForcesAxesIntoRange(t *testing.T) {
	p := PTZPosition{Pan: 2.0, Tilt: -3.0, Zoom: 1.5}

	got := p.Clamp()
	want := PTZPosition{Pan: 1, Tilt: -1, Zoom: 1}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestClamp_ZoomLowerBoundIsZero(t *testing.T) {
	p := PTZPosition{Zoom: -0.5}

	if got := p.Clamp().Zoom; got != 0 {
		t.Errorf("expected zoom clamped to 0, got %v", got)
	}
}

func TestClamp_Idempotent(t *testing.T) {
	p := PTZPosition{Pan: 99, Tilt: -99, Zoom: 99}

	once := p.Clamp()
	twice := once.Clamp()
	if once != twice {
		t.Errorf("clamp not idempotent: %+v != %+v", once, twice)
	}
}

func TestFamily_Valid(t *testing.T) {
	for _, f := range []Family{FamilyCamera, FamilyPTZCamera, FamilyPlug, FamilyLight, FamilySensor} {
		if !f.Valid() {
			t.Errorf("expected family %q to be valid", f)
		}
	}
	if Family("thermostat").Valid() {
		t.Error("expected unknown family to be invalid")
	}
}

func TestFamily_PTZCameraIncludesCameraCapability(t *testing.T) {
	caps := FamilyPTZCamera.Capabilities()

	found := map[Capability]bool{}
	for _, c := range caps {
		found[c] = true
	}
	if !found[CapabilityCamera] || !found[CapabilityPTZ] {
		t.Errorf("expected ptz_camera to carry camera and ptz capabilities, got %v", caps)
	}
}
