package gateway

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates normalized parameters against an action's JSON
// Schema. Compiled schemas are cached per action.
type Validator struct {
	mu    sync.RWMutex
	cache map[actionKey]*jsonschema.Schema
}

// NewValidator creates a Validator with an empty cache.
func NewValidator() *Validator {
	return &Validator{
		cache: make(map[actionKey]*jsonschema.Schema),
	}
}

// Validate checks params against the action's declared schema. Actions
// without a schema carry no typed parameters and always pass.
func (v *Validator) Validate(spec *ActionSpec, params map[string]any) error {
	if len(spec.Schema) == 0 {
		return nil
	}

	compiled, err := v.compile(spec)
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s/%s: %w", spec.Tool, spec.Action, err)
	}

	return compiled.Validate(params)
}

func (v *Validator) compile(spec *ActionSpec) (*jsonschema.Schema, error) {
	key := actionKey{spec.Tool, spec.Action}

	v.mu.RLock()
	if s, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return s, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := v.cache[key]; ok {
		return s, nil
	}

	var schemaMap any
	if err := json.Unmarshal(spec.Schema, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	resource := fmt.Sprintf("%s-%s.json", spec.Tool, spec.Action)
	if err := c.AddResource(resource, schemaMap); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}
