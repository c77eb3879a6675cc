package distlock

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/singleflight"
)

// ErrBusy is returned by Guard.Do when another process holds the key.
var ErrBusy = errors.New("distlock: run already in progress")

// Guard lets at most one run per key execute at a time. Callers in the
// same process that arrive while a run is in flight share its result;
// callers in other processes get ErrBusy.
type Guard struct {
	group   singleflight.Group
	factory Factory
}

// NewGuard returns a Guard taking cross-process locks from factory. A nil
// factory limits the guard to the current process.
func NewGuard(factory Factory) *Guard {
	if factory == nil {
		factory = func(string) DistLock { return noopLock{} }
	}
	return &Guard{factory: factory}
}

// Do runs fn under key. shared reports whether the result came from a run
// started by another caller.
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (v any, shared bool, err error) {
	v, err, shared = g.group.Do(key, func() (any, error) {
		lock := g.factory(key)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBusy
		}
		defer func() {
			if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil {
				log.Printf("[distlock] release %s: %v", key, rerr)
			}
		}()
		return fn(ctx)
	})
	return v, shared, err
}
