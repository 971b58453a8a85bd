package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/castellan-home/castellan/pkg/device"
)

// ErrInvalidParameter marks invoke-time parameter violations the static
// table cannot express (e.g. one-of constraints).
var ErrInvalidParameter = errors.New("invalid parameter")

// ParamSpec declares one parameter of an action. Required parameters
// must be present after normalization; optional parameters receive their
// default when absent. Anything not declared here is silently dropped at
// the dispatch boundary and never reaches an adapter.
type ParamSpec struct {
	Name     string
	Required bool
	Default  any
}

// InvokeFunc executes a validated action against an adapter.
type InvokeFunc func(ctx context.Context, adapter device.Adapter, params map[string]any) (any, error)

// ActionSpec is one row of the static action table: the single source of
// truth for what parameters pass through to the device layer.
type ActionSpec struct {
	Tool       string
	Action     string
	Capability device.Capability

	// Mutating actions are serialized per device; read-only actions
	// share the device lock.
	Mutating bool

	Params []ParamSpec

	// Schema validates declared parameter types and ranges after
	// defaults are applied.
	Schema json.RawMessage

	Invoke InvokeFunc
}

// normalize filters the caller's parameters down to the declared set,
// applies defaults, and enforces required presence. Returns the cleaned
// parameter map and the names of any dropped unknown keys.
func (s *ActionSpec) normalize(params map[string]any) (map[string]any, []string, error) {
	out := make(map[string]any, len(s.Params))
	for _, p := range s.Params {
		if v, ok := params[p.Name]; ok {
			out[p.Name] = v
			continue
		}
		if p.Required {
			return nil, nil, fmt.Errorf("%w: missing required parameter %q", ErrInvalidParameter, p.Name)
		}
		if p.Default != nil {
			out[p.Name] = p.Default
		}
	}

	var dropped []string
	for k := range params {
		if _, ok := out[k]; !ok {
			if !s.declares(k) {
				dropped = append(dropped, k)
			}
		}
	}
	return out, dropped, nil
}

func (s *ActionSpec) declares(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

type actionKey struct {
	tool   string
	action string
}

var actions = buildTable()

// Lookup returns the spec for a (tool, action) pair.
func Lookup(tool, action string) (*ActionSpec, bool) {
	s, ok := actions[actionKey{tool, action}]
	return s, ok
}

// Actions returns every registered action spec.
func Actions() []*ActionSpec {
	out := make([]*ActionSpec, 0, len(actions))
	for _, s := range actions {
		out = append(out, s)
	}
	return out
}

func buildTable() map[actionKey]*ActionSpec {
	table := make(map[actionKey]*ActionSpec)
	add := func(s *ActionSpec) {
		key := actionKey{s.Tool, s.Action}
		if _, dup := table[key]; dup {
			panic(fmt.Sprintf("duplicate action %s/%s", s.Tool, s.Action))
		}
		table[key] = s
	}

	// --- camera_management ---

	add(&ActionSpec{
		Tool:       "camera_management",
		Action:     "capture_still",
		Capability: device.CapabilityCamera,
		Invoke: func(ctx context.Context, adapter device.Adapter, _ map[string]any) (any, error) {
			cam := adapter.(device.Camera)
			ref, err := cam.CaptureStill(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"image": ref}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "camera_management",
		Action:     "get_stream",
		Capability: device.CapabilityCamera,
		Invoke: func(ctx context.Context, adapter device.Adapter, _ map[string]any) (any, error) {
			cam := adapter.(device.Camera)
			info, err := cam.StreamDescriptor(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"stream": info}, nil
		},
	})

	// --- ptz_management ---

	add(&ActionSpec{
		Tool:       "ptz_management",
		Action:     "move",
		Capability: device.CapabilityPTZ,
		Mutating:   true,
		Params: []ParamSpec{
			{Name: "pan_delta", Required: true},
			{Name: "tilt_delta", Required: true},
			{Name: "zoom_delta", Default: float64(0)},
			{Name: "speed", Default: float64(0.5)},
		},
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"pan_delta": {"type": "number"},
				"tilt_delta": {"type": "number"},
				"zoom_delta": {"type": "number"},
				"speed": {"type": "number", "exclusiveMinimum": 0, "maximum": 1}
			}
		}`),
		Invoke: func(ctx context.Context, adapter device.Adapter, params map[string]any) (any, error) {
			ptz := adapter.(device.PTZ)
			pos, err := ptz.Move(ctx,
				floatParam(params, "pan_delta"),
				floatParam(params, "tilt_delta"),
				floatParam(params, "zoom_delta"),
				floatParam(params, "speed"),
			)
			if err != nil {
				return nil, err
			}
			return map[string]any{"position": pos}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "ptz_management",
		Action:     "get_position",
		Capability: device.CapabilityPTZ,
		Invoke: func(ctx context.Context, adapter device.Adapter, _ map[string]any) (any, error) {
			ptz := adapter.(device.PTZ)
			pos, err := ptz.Position(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"position": pos}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "ptz_management",
		Action:     "save_preset",
		Capability: device.CapabilityPTZ,
		Mutating:   true,
		Params: []ParamSpec{
			{Name: "preset_name", Required: true},
		},
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"preset_name": {"type": "string", "minLength": 1}
			}
		}`),
		Invoke: func(ctx context.Context, adapter device.Adapter, params map[string]any) (any, error) {
			ptz := adapter.(device.PTZ)
			preset, err := ptz.SavePreset(ctx, stringParam(params, "preset_name"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"preset": preset}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "ptz_management",
		Action:     "recall_preset",
		Capability: device.CapabilityPTZ,
		Mutating:   true,
		Params: []ParamSpec{
			{Name: "preset_name"},
			{Name: "preset_id"},
		},
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"preset_name": {"type": "string", "minLength": 1},
				"preset_id": {"type": "integer", "minimum": 1}
			}
		}`),
		Invoke: func(ctx context.Context, adapter device.Adapter, params map[string]any) (any, error) {
			ptz := adapter.(device.PTZ)

			ref := stringParam(params, "preset_name")
			if ref == "" {
				if id, ok := params["preset_id"]; ok {
					ref = fmt.Sprintf("%d", int(toFloat(id)))
				}
			}
			if ref == "" {
				return nil, fmt.Errorf("%w: recall_preset needs preset_name or preset_id", ErrInvalidParameter)
			}

			pos, err := ptz.RecallPreset(ctx, ref)
			if err != nil {
				return nil, err
			}
			return map[string]any{"position": pos}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "ptz_management",
		Action:     "go_home",
		Capability: device.CapabilityPTZ,
		Mutating:   true,
		Invoke: func(ctx context.Context, adapter device.Adapter, _ map[string]any) (any, error) {
			ptz := adapter.(device.PTZ)
			pos, err := ptz.GoHome(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"position": pos}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "ptz_management",
		Action:     "stop",
		Capability: device.CapabilityPTZ,
		Mutating:   true,
		Invoke: func(ctx context.Context, adapter device.Adapter, _ map[string]any) (any, error) {
			ptz := adapter.(device.PTZ)
			pos, err := ptz.Stop(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"position": pos}, nil
		},
	})

	// --- energy_management ---

	add(&ActionSpec{
		Tool:       "energy_management",
		Action:     "toggle_power",
		Capability: device.CapabilityPower,
		Mutating:   true,
		Params: []ParamSpec{
			{Name: "on", Required: true},
		},
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"on": {"type": "boolean"}
			}
		}`),
		Invoke: func(ctx context.Context, adapter device.Adapter, params map[string]any) (any, error) {
			power := adapter.(device.Power)
			state, err := power.SetPower(ctx, boolParam(params, "on"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"power_state": state.On}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "energy_management",
		Action:     "get_current_power",
		Capability: device.CapabilityPower,
		Invoke: func(ctx context.Context, adapter device.Adapter, _ map[string]any) (any, error) {
			power := adapter.(device.Power)
			reading, err := power.ReadPower(ctx)
			if err != nil {
				return nil, err
			}
			return reading, nil
		},
	})

	// --- light_control ---

	add(&ActionSpec{
		Tool:       "light_control",
		Action:     "set_on",
		Capability: device.CapabilityLight,
		Mutating:   true,
		Params: []ParamSpec{
			{Name: "on", Required: true},
		},
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"on": {"type": "boolean"}
			}
		}`),
		Invoke: func(ctx context.Context, adapter device.Adapter, params map[string]any) (any, error) {
			light := adapter.(device.Light)
			on := boolParam(params, "on")
			if err := light.SetOn(ctx, on); err != nil {
				return nil, err
			}
			return map[string]any{"on": on}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "light_control",
		Action:     "set_brightness",
		Capability: device.CapabilityLight,
		Mutating:   true,
		Params: []ParamSpec{
			{Name: "brightness", Required: true},
		},
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"brightness": {"type": "integer", "minimum": 0, "maximum": 100}
			}
		}`),
		Invoke: func(ctx context.Context, adapter device.Adapter, params map[string]any) (any, error) {
			light := adapter.(device.Light)
			level := int(toFloat(params["brightness"]))
			if err := light.SetBrightness(ctx, level); err != nil {
				return nil, err
			}
			return map[string]any{"brightness": level}, nil
		},
	})

	add(&ActionSpec{
		Tool:       "light_control",
		Action:     "set_color",
		Capability: device.CapabilityLight,
		Mutating:   true,
		Params: []ParamSpec{
			{Name: "r", Required: true},
			{Name: "g", Required: true},
			{Name: "b", Required: true},
		},
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"r": {"type": "integer", "minimum": 0, "maximum": 255},
				"g": {"type": "integer", "minimum": 0, "maximum": 255},
				"b": {"type": "integer", "minimum": 0, "maximum": 255}
			}
		}`),
		Invoke: func(ctx context.Context, adapter device.Adapter, params map[string]any) (any, error) {
			light := adapter.(device.Light)
			r := uint8(toFloat(params["r"]))
			g := uint8(toFloat(params["g"]))
			b := uint8(toFloat(params["b"]))
			if err := light.SetColor(ctx, r, g, b); err != nil {
				return nil, err
			}
			return map[string]any{"color": map[string]any{"r": r, "g": g, "b": b}}, nil
		},
	})

	// --- sensor_reading ---

	add(&ActionSpec{
		Tool:       "sensor_reading",
		Action:     "read",
		Capability: device.CapabilitySensor,
		Invoke: func(ctx context.Context, adapter device.Adapter, _ map[string]any) (any, error) {
			sensor := adapter.(device.Sensor)
			reading, err := sensor.Read(ctx)
			if err != nil {
				return nil, err
			}
			return reading, nil
		},
	})

	return table
}

// --- typed parameter access ---
// Values arrive as JSON-decoded types (float64/bool/string) or as typed
// defaults from the table; both shapes are accepted.

func floatParam(params map[string]any, name string) float64 {
	return toFloat(params[name])
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func boolParam(params map[string]any, name string) bool {
	b, _ := params[name].(bool)
	return b
}

func stringParam(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}
