package channel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

const (
	requestKeyPrefix = "pagevault:channel:req:"
	replyKeyPrefix   = "pagevault:channel:resp:"
)

// RedisTransport carries envelopes over Redis pub/sub, for deployments
// where the execution contexts live in separate processes. Requests go to
// the target context's request topic; replies come back on a per-envelope
// topic keyed by the envelope id.
type RedisTransport struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTransport wraps an established Redis client.
func NewRedisTransport(client *redis.Client, logger *zap.Logger) *RedisTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTransport{client: client, logger: logger}
}

// RoundTrip publishes the request and waits for its reply. A target with
// no subscribed listener is unreachable; the caller's deadline bounds the
// wait.
func (t *RedisTransport) RoundTrip(ctx context.Context, env Envelope) (Envelope, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, appErrors.Wrap(err, appErrors.ErrProtocolMismatch.Code, appErrors.ErrProtocolMismatch.Status, "encode envelope")
	}

	sub := t.client.Subscribe(ctx, replyKeyPrefix+env.ID)
	defer sub.Close() //nolint:errcheck
	if _, err := sub.Receive(ctx); err != nil {
		return Envelope{}, appErrors.Wrap(err, appErrors.ErrChannelUnreachable.Code, appErrors.ErrChannelUnreachable.Status, "subscribe reply topic")
	}

	receivers, err := t.client.Publish(ctx, requestKeyPrefix+env.Target, payload).Result()
	if err != nil {
		return Envelope{}, appErrors.Wrap(err, appErrors.ErrChannelUnreachable.Code, appErrors.ErrChannelUnreachable.Status, "publish request")
	}
	if receivers == 0 {
		return Envelope{}, appErrors.Clone(appErrors.ErrChannelUnreachable,
			fmt.Sprintf("context %s has no listener", env.Target))
	}

	select {
	case msg := <-sub.Channel():
		var reply Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &reply); err != nil {
			return Envelope{}, appErrors.Wrap(err, appErrors.ErrProtocolMismatch.Code, appErrors.ErrProtocolMismatch.Status, "decode reply envelope")
		}
		return reply, nil
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

// Listen serves inbound requests for the endpoint's context until the
// context is cancelled. Run it on its own goroutine per attached endpoint.
func (t *RedisTransport) Listen(ctx context.Context, ep *Endpoint) error {
	sub := t.client.Subscribe(ctx, requestKeyPrefix+ep.Name())
	defer sub.Close() //nolint:errcheck

	for {
		select {
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				t.logger.Warn("dropping undecodable envelope", zap.Error(err))
				continue
			}
			reply := ep.dispatch(ctx, env)
			payload, err := json.Marshal(reply)
			if err != nil {
				t.logger.Error("encode reply envelope", zap.Error(err), zap.String("channel", env.Channel))
				continue
			}
			if err := t.client.Publish(ctx, replyKeyPrefix+env.ID, payload).Err(); err != nil {
				t.logger.Warn("publish reply", zap.Error(err), zap.String("channel", env.Channel))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
