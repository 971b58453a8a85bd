package gateway

import (
	"errors"
	"testing"
)

func TestNormalize_DropsUnknownParameters(t *testing.T) {
	spec, ok := Lookup("ptz_management", "move")
	if !ok {
		t.Fatal("move action missing from table")
	}

	params, dropped, err := spec.normalize(map[string]any{
		"pan_delta":  0.1,
		"tilt_delta": -0.1,
		"wobble":     true,
		"intensity":  11,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := params["wobble"]; ok {
		t.Error("undeclared parameter leaked through normalization")
	}
	if len(dropped) != 2 {
		t.Errorf("expected 2 dropped keys, got %v", dropped)
	}
}

func TestNormalize_AppliesDefaults(t *testing.T) {
	spec, _ := Lookup("ptz_management", "move")

	params, _, err := spec.normalize(map[string]any{
		"pan_delta":  0.1,
		"tilt_delta": 0.0,
	})
	if err != nil {
		t.Fatal(err)
	}

	if params["speed"] != float64(0.5) {
		t.Errorf("expected default speed 0.5, got %v", params["speed"])
	}
	if params["zoom_delta"] != float64(0) {
		t.Errorf("expected default zoom_delta 0, got %v", params["zoom_delta"])
	}
}

func TestNormalize_MissingRequiredParameter(t *testing.T) {
	spec, _ := Lookup("ptz_management", "move")

	_, _, err := spec.normalize(map[string]any{"pan_delta": 0.1})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestNormalize_CallerValueOverridesDefault(t *testing.T) {
	spec, _ := Lookup("ptz_management", "move")

	params, _, err := spec.normalize(map[string]any{
		"pan_delta":  0.1,
		"tilt_delta": 0.0,
		"speed":      0.9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if params["speed"] != 0.9 {
		t.Errorf("expected caller speed 0.9, got %v", params["speed"])
	}
}

func TestLookup_UnknownAction(t *testing.T) {
	if _, ok := Lookup("ptz_management", "barrel_roll"); ok {
		t.Error("expected unknown action to miss")
	}
	if _, ok := Lookup("time_travel", "move"); ok {
		t.Error("expected unknown tool to miss")
	}
}

func TestActions_TableIsComplete(t *testing.T) {
	want := map[[2]string]bool{
		{"camera_management", "capture_still"}:    true,
		{"camera_management", "get_stream"}:       true,
		{"ptz_management", "move"}:                true,
		{"ptz_management", "get_position"}:        true,
		{"ptz_management", "save_preset"}:         true,
		{"ptz_management", "recall_preset"}:       true,
		{"ptz_management", "go_home"}:             true,
		{"ptz_management", "stop"}:                true,
		{"energy_management", "toggle_power"}:     true,
		{"energy_management", "get_current_power"}: true,
		{"light_control", "set_on"}:               true,
		{"light_control", "set_brightness"}:       true,
		{"light_control", "set_color"}:            true,
		{"sensor_reading", "read"}:                true,
	}

	got := Actions()
	if len(got) != len(want) {
		t.Fatalf("expected %d actions, got %d", len(want), len(got))
	}
	for _, s := range got {
		if !want[[2]string{s.Tool, s.Action}] {
			t.Errorf("unexpected action %s/%s", s.Tool, s.Action)
		}
	}
}

func TestValidate_SpeedMustBePositive(t *testing.T) {
	v := NewValidator()
	spec, _ := Lookup("ptz_management", "move")

	err := v.Validate(spec, map[string]any{
		"pan_delta":  0.1,
		"tilt_delta": 0.0,
		"zoom_delta": 0.0,
		"speed":      float64(0),
	})
	if err == nil {
		t.Error("expected validation error for zero speed")
	}
}

func TestValidate_BrightnessRange(t *testing.T) {
	v := NewValidator()
	spec, _ := Lookup("light_control", "set_brightness")

	if err := v.Validate(spec, map[string]any{"brightness": float64(50)}); err != nil {
		t.Errorf("expected 50 to validate, got %v", err)
	}
	if err := v.Validate(spec, map[string]any{"brightness": float64(101)}); err == nil {
		t.Error("expected validation error for brightness 101")
	}
	if err := v.Validate(spec, map[string]any{"brightness": "max"}); err == nil {
		t.Error("expected validation error for non-numeric brightness")
	}
}

func TestValidate_NoSchemaAlwaysPasses(t *testing.T) {
	v := NewValidator()
	spec, _ := Lookup("sensor_reading", "read")

	if err := v.Validate(spec, map[string]any{}); err != nil {
		t.Errorf("schema-less action should always validate, got %v", err)
	}
}

func TestValidate_CachesCompiledSchemas(t *testing.T) {
	v := NewValidator()
	spec, _ := Lookup("energy_management", "toggle_power")

	for i := 0; i < 3; i++ {
		if err := v.Validate(spec, map[string]any{"on": true}); err != nil {
			t.Fatal(err)
		}
	}

	v.mu.RLock()
	size := len(v.cache)
	v.mu.RUnlock()
	if size != 1 {
		t.Errorf("expected 1 cached schema, got %d", size)
	}
}
