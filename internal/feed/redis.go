package feed

import (
	"context"
	"fmt"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// RedisFeed fans batches out to every connected service instance through a redis pub/sub channel.
type RedisFeed struct {
	rdb     *redis.Client
	channel string
}

func NewRedisFeed(rdb *redis.Client, channel string) *RedisFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisFeed{
		rdb:     rdb,
		channel: channel,
	}
}

func (f *RedisFeed) Publish(ctx context.Context, batch activities.Batch) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "feed.redis.publish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("changes", len(batch.Changes)))

	payload, err := encodeBatch(batch)
	if err != nil {
		return err
	}

	if err := f.rdb.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan activities.Batch, error) {
	pubsub := f.rdb.Subscribe(ctx, f.channel)
	// wait for the subscription confirmation, so no batch published after this call returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe [%s]: %w", f.channel, err)
	}

	out := make(chan activities.Batch, subscriberBuffer)
	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Warnf("close redis pubsub [%s]: %s", f.channel, err)
			}
		}()

		f.forward(ctx, pubsub.ChannelWithSubscriptions(ctx, subscriberBuffer), out)
	}()

	return out, nil
}

// forward decodes pub/sub messages into out until ctx is done. go-redis reconnects a broken
// pub/sub connection and subscribes again on its own, and whatever was published meanwhile
// is gone. A subscription confirmation after the first one means exactly that, so forward
// returns and the subscriber starts over from a fresh snapshot.
func (f *RedisFeed) forward(ctx context.Context, msgs <-chan interface{}, out chan<- activities.Batch) {
	for {
		var msg interface{}
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			msg = m
		}

		switch m := msg.(type) {
		case *redis.Subscription:
			if m.Kind == "subscribe" {
				log.Warnf("redis feed [%s] resubscribed after a reconnect, batches may be lost", f.channel)
				return
			}
		case *redis.Message:
			batch, err := decodeBatch([]byte(m.Payload))
			if err != nil {
				log.Errorf("redis feed [%s], skipping malformed batch: %s", f.channel, err)
				continue
			}
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close is a no-op, the redis client is owned by the server.
func (f *RedisFeed) Close() error {
	return nil
}
