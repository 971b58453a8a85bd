// Package adapters holds the concrete device-family adapters. Each
// adapter validates its session before every vendor call, translates
// integration error shapes into the gateway taxonomy, and records
// connection-state transitions on the shared device status.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/integration"
	"github.com/castellan-home/castellan/pkg/session"
)

// readBackTimeout bounds the best-effort state read after a failed
// mutation, detached from the caller's (possibly cancelled) context.
const readBackTimeout = 3 * time.Second

// sessionManager is the slice of session.Manager the adapters need.
type sessionManager interface {
	EnsureValid(ctx context.Context, name string) (session.Session, error)
	Invalidate(name string)
}

type base struct {
	name     string
	status   *device.Status
	sessions sessionManager
}

func newBase(name string, sessions sessionManager, status *device.Status) base {
	return base{name: name, status: status, sessions: sessions}
}

func authFrom(sess session.Session) integration.Auth {
	return integration.Auth{
		Username:    sess.Username,
		Password:    sess.Password,
		BearerToken: sess.AccessToken,
	}
}

// exec runs one vendor call with a valid session. On an upstream
// unauthorized signal it invalidates the session and retries exactly
// once; a second unauthorized is terminal. Transport failures mark the
// device Degraded, successes mark it Ready. Throttling and caller
// cancellation pass through without touching connection state.
func (b *base) exec(ctx context.Context, fn func(auth integration.Auth) error) error {
	sess, err := b.sessions.EnsureValid(ctx, b.name)
	if err != nil {
		return err
	}

	err = fn(authFrom(sess))
	if errors.Is(err, integration.ErrUnauthorized) {
		b.sessions.Invalidate(b.name)
		sess, err = b.sessions.EnsureValid(ctx, b.name)
		if err != nil {
			return err
		}
		err = fn(authFrom(sess))
		if errors.Is(err, integration.ErrUnauthorized) {
			return fmt.Errorf("%w: upstream still unauthorized after refresh", session.ErrAuthExpired)
		}
	}

	if err == nil {
		b.status.Set(device.StateReady)
		return nil
	}

	var rl *integration.RateLimitError
	if errors.As(err, &rl) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	b.status.Set(device.StateDegraded)
	return fmt.Errorf("%w: %v", device.ErrUnreachable, err)
}

// auth returns a best-effort auth snapshot for read-backs, without the
// unauthorized retry machinery.
func (b *base) auth(ctx context.Context) (integration.Auth, error) {
	sess, err := b.sessions.EnsureValid(ctx, b.name)
	if err != nil {
		return integration.Auth{}, err
	}
	return authFrom(sess), nil
}
