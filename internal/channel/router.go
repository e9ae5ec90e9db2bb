package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

// Router is the in-process transport: every execution context attaches an
// endpoint and envelopes are handed over directly. Used by tests and by
// the CLI harness where all three contexts share one process.
type Router struct {
	timeout time.Duration

	mu        sync.RWMutex
	endpoints map[string]*Endpoint
}

// NewRouter builds an empty router. The timeout is inherited by every
// endpoint attached to it.
func NewRouter(timeout time.Duration) *Router {
	return &Router{timeout: timeout, endpoints: make(map[string]*Endpoint)}
}

// Attach creates an endpoint for the named context and registers it.
func (r *Router) Attach(name string) *Endpoint {
	ep := NewEndpoint(name, r, r.timeout)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[name] = ep
	return ep
}

// Detach removes a context, simulating a closed tab or popup. Subsequent
// invocations targeting it fail with ChannelUnreachable.
func (r *Router) Detach(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.endpoints, name)
}

// RoundTrip delivers the envelope to the target endpoint's dispatcher.
// The handler runs on its own goroutine; the caller's context bounds how
// long RoundTrip waits for the reply.
func (r *Router) RoundTrip(ctx context.Context, env Envelope) (Envelope, error) {
	r.mu.RLock()
	target, ok := r.endpoints[env.Target]
	r.mu.RUnlock()
	if !ok {
		return Envelope{}, appErrors.Clone(appErrors.ErrChannelUnreachable,
			fmt.Sprintf("context %s is not attached", env.Target))
	}

	done := make(chan Envelope, 1)
	go func() {
		done <- target.dispatch(ctx, env)
	}()

	select {
	case reply := <-done:
		return reply, nil
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}
