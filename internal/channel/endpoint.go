package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

// Envelope is the wire frame of one invocation or its response.
type Envelope struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Source  string          `json:"source"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *WireError      `json:"error,omitempty"`
}

// WireError carries a typed error across contexts.
type WireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Transport delivers a request envelope to its target context and returns
// exactly one response envelope, or an error when the target is
// unreachable. Transports never mutate domain state.
type Transport interface {
	RoundTrip(ctx context.Context, env Envelope) (Envelope, error)
}

// HandlerFunc serves one channel. The payload arrives already decoded
// into a pointer to the channel's request type.
type HandlerFunc func(ctx context.Context, req interface{}) (interface{}, error)

// Endpoint is one execution context's attachment to the channel: it can
// invoke named operations on other contexts and serve its own.
type Endpoint struct {
	name      string
	transport Transport
	timeout   time.Duration

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewEndpoint attaches a context to a transport. The timeout bounds every
// invocation issued from this endpoint.
func NewEndpoint(name string, transport Transport, timeout time.Duration) *Endpoint {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Endpoint{
		name:      name,
		transport: transport,
		timeout:   timeout,
		handlers:  make(map[string]HandlerFunc),
	}
}

// Name returns the context name this endpoint serves.
func (e *Endpoint) Name() string {
	return e.name
}

// Handle registers the handler for a named channel. Registering a channel
// absent from the protocol map panics: that is a programming error, not a
// runtime condition.
func (e *Endpoint) Handle(name string, h HandlerFunc) {
	if _, ok := protocol[name]; !ok {
		panic(fmt.Sprintf("channel: %q is not part of the protocol", name))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = h
}

// Invoke calls the named channel on the target context, decoding the
// response into resp when it is non-nil. Exactly one of the following
// happens: resp is filled, or an error is returned (ChannelUnreachable,
// ChannelTimeout, ProtocolMismatch, or the handler's own error).
func (e *Endpoint) Invoke(ctx context.Context, target, name string, req, resp interface{}) error {
	if err := checkRequest(name, req); err != nil {
		return err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrProtocolMismatch.Code, appErrors.ErrProtocolMismatch.Status, "encode payload")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reply, err := e.transport.RoundTrip(ctx, Envelope{
		ID:      uuid.NewString(),
		Channel: name,
		Source:  e.name,
		Target:  target,
		Payload: payload,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return appErrors.Clone(appErrors.ErrChannelTimeout, fmt.Sprintf("channel %s to %s timed out", name, target))
		}
		if errors.Is(err, context.Canceled) {
			return appErrors.ErrCancelled
		}
		return err
	}
	// A cancelled or expired invocation rejects even when a reply raced in.
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return appErrors.Clone(appErrors.ErrChannelTimeout, fmt.Sprintf("channel %s to %s timed out", name, target))
		}
		return appErrors.ErrCancelled
	}
	if reply.Error != nil {
		return fromWireError(reply.Error)
	}
	if resp != nil && len(reply.Payload) > 0 {
		if err := json.Unmarshal(reply.Payload, resp); err != nil {
			return appErrors.Wrap(err, appErrors.ErrProtocolMismatch.Code, appErrors.ErrProtocolMismatch.Status, "decode response")
		}
	}
	return nil
}

// dispatch serves one inbound envelope, producing the response envelope.
func (e *Endpoint) dispatch(ctx context.Context, env Envelope) Envelope {
	reply := Envelope{ID: env.ID, Channel: env.Channel, Source: e.name, Target: env.Source}

	e.mu.RLock()
	handler, ok := e.handlers[env.Channel]
	e.mu.RUnlock()
	if !ok {
		reply.Error = toWireError(appErrors.Clone(appErrors.ErrChannelUnreachable,
			fmt.Sprintf("context %s does not serve channel %s", e.name, env.Channel)))
		return reply
	}

	req, ok := newRequest(env.Channel)
	if !ok {
		reply.Error = toWireError(appErrors.Clone(appErrors.ErrProtocolMismatch, "unknown channel "+env.Channel))
		return reply
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, req); err != nil {
			reply.Error = toWireError(appErrors.Wrap(err, appErrors.ErrProtocolMismatch.Code, appErrors.ErrProtocolMismatch.Status, "decode payload"))
			return reply
		}
	}
	if err := checkRequest(env.Channel, req); err != nil {
		reply.Error = toWireError(err)
		return reply
	}

	result, err := handler(ctx, req)
	if err != nil {
		reply.Error = toWireError(err)
		return reply
	}
	payload, err := json.Marshal(result)
	if err != nil {
		reply.Error = toWireError(appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode response"))
		return reply
	}
	reply.Payload = payload
	return reply
}

func toWireError(err error) *WireError {
	appErr := appErrors.FromError(err)
	return &WireError{Code: appErr.Code, Message: appErr.Message}
}

func fromWireError(we *WireError) error {
	for _, known := range []*appErrors.Error{
		appErrors.ErrChannelUnreachable,
		appErrors.ErrChannelTimeout,
		appErrors.ErrProtocolMismatch,
		appErrors.ErrCancelled,
		appErrors.ErrValidation,
		appErrors.ErrAuth,
		appErrors.ErrNotFound,
		appErrors.ErrInconsistentState,
	} {
		if we.Code == known.Code {
			return appErrors.Clone(known, we.Message)
		}
	}
	return appErrors.New(we.Code, appErrors.ErrInternal.Status, we.Message)
}
