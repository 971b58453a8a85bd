package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
	"github.com/castellan-home/castellan/pkg/session"
)

// Dispatcher routes (tool, action, parameters) calls to device adapters.
// It is the parameter boundary: adapters only ever see the exact
// schema-declared parameter set, with defaults applied and unknown keys
// dropped.
type Dispatcher struct {
	registry  *device.Registry
	validator *Validator
	events    EventSink
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEventSink publishes an ActionEvent after every dispatch.
func WithEventSink(sink EventSink) Option {
	return func(d *Dispatcher) { d.events = sink }
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *device.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		validator: NewValidator(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch validates and executes one action. Every outcome, including
// adapter panics, comes back as a normalized ActionResult.
func (d *Dispatcher) Dispatch(ctx context.Context, req ActionRequest) ActionResult {
	result := d.dispatch(ctx, req)
	d.emit(req, result)
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, req ActionRequest) ActionResult {
	spec, ok := Lookup(req.Tool, req.Action)
	if !ok {
		return Fail(FailureNotFound, "unknown action %q for tool %q", req.Action, req.Tool)
	}

	params, dropped, err := spec.normalize(req.Parameters)
	if err != nil {
		return Fail(FailureInvalidParameter, "%s", err)
	}
	if len(dropped) > 0 {
		log.Debug().
			Str("tool", req.Tool).
			Str("action", req.Action).
			Strs("dropped", dropped).
			Msg("Dropped undeclared parameters")
	}

	if err := d.validator.Validate(spec, params); err != nil {
		return Fail(FailureInvalidParameter, "parameter validation failed: %s", err)
	}

	dev, err := d.registry.Resolve(ctx, req.Device)
	if err != nil {
		return Fail(FailureNotFound, "device %q not found", req.Device)
	}

	if !dev.Supports(spec.Capability) {
		return Fail(FailureUnsupported, "device %q (family %s) does not support %s actions",
			dev.Name(), dev.Family(), spec.Capability)
	}

	out, err := d.invoke(ctx, spec, dev, params)
	if err != nil {
		return failureFrom(err)
	}
	return Succeed(out)
}

// invoke runs the adapter call under the device's action lock. Mutating
// actions hold the exclusive lock, read-only actions the shared lock, and
// only around the invocation itself so validation never contends. The
// lock is released on every exit path, panics included.
func (d *Dispatcher) invoke(ctx context.Context, spec *ActionSpec, dev *device.Device, params map[string]any) (out any, err error) {
	if spec.Mutating {
		dev.LockActions()
		defer dev.UnlockActions()
	} else {
		dev.RLockActions()
		defer dev.RUnlockActions()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("device", dev.Name()).
				Str("tool", spec.Tool).
				Str("action", spec.Action).
				Any("panic", r).
				Msg("Adapter panicked")
			err = fmt.Errorf("%w: adapter panic: %v", device.ErrUnreachable, r)
		}
	}()

	return spec.Invoke(ctx, dev.Adapter(), params)
}

// failureFrom maps adapter and session errors onto the failure taxonomy.
func failureFrom(err error) ActionResult {
	var rl *integration.RateLimitError

	switch {
	case errors.Is(err, ErrInvalidParameter):
		return Fail(FailureInvalidParameter, "%s", err)
	case errors.Is(err, device.ErrNotFound):
		return Fail(FailureNotFound, "%s", err)
	case errors.Is(err, device.ErrUnsupported):
		return Fail(FailureUnsupported, "%s", err)
	case errors.Is(err, session.ErrAuthExpired):
		return Fail(FailureAuthExpired, "%s", err)
	case errors.As(err, &rl):
		return FailRateLimited(rl.RetryAfter, "%s", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Fail(FailureUnreachable, "action cancelled: %s", err)
	default:
		return Fail(FailureUnreachable, "%s", err)
	}
}

func (d *Dispatcher) emit(req ActionRequest, result ActionResult) {
	if d.events == nil {
		return
	}
	evt := ActionEvent{
		Device:  req.Device,
		Tool:    req.Tool,
		Action:  req.Action,
		Success: result.Success,
		At:      time.Now().UTC(),
	}
	if result.Error != nil {
		evt.FailureKind = result.Error.Kind
	}
	d.events.ActionCompleted(evt)
}
