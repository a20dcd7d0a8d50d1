package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/telemetry/tracing"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaFeed publishes batches to a single-partition topic; every subscriber reads the
// partition from its tail, without a consumer group, so each instance sees every batch.
type KafkaFeed struct {
	topic      string
	writer     kafkaWriter
	tailOffset func(ctx context.Context) (int64, error)
	newReader  func(offset int64) (kafkaReader, error)
}

func NewKafkaFeed(brokers []string, topic string) *KafkaFeed {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		Async:        false,
	}

	return &KafkaFeed{
		topic:  topic,
		writer: writer,
		tailOffset: func(ctx context.Context) (int64, error) {
			return readTailOffset(ctx, brokers, topic)
		},
		newReader: func(offset int64) (kafkaReader, error) {
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers:   brokers,
				Topic:     topic,
				Partition: 0,
				MinBytes:  1,
				MaxBytes:  10e6,
				MaxWait:   250 * time.Millisecond,
			})
			if err := reader.SetOffset(offset); err != nil {
				_ = reader.Close()
				return nil, fmt.Errorf("set offset %d: %w", offset, err)
			}
			return reader, nil
		},
	}
}

// readTailOffset asks the partition leader for the offset the next message will get.
// kafka.LastOffset is only resolved once a reader starts fetching, which is too late
// for a subscriber that reads a snapshot right after subscribing.
func readTailOffset(ctx context.Context, brokers []string, topic string) (int64, error) {
	var errs error
	for _, broker := range brokers {
		conn, err := kafka.DialLeader(ctx, "tcp", broker, topic, 0)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dial leader via %s: %w", broker, err))
			continue
		}
		offset, err := conn.ReadLastOffset()
		_ = conn.Close()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read last offset via %s: %w", broker, err))
			continue
		}
		return offset, nil
	}
	if errs == nil {
		errs = errors.New("no kafka brokers")
	}
	return 0, errs
}

func (f *KafkaFeed) Publish(ctx context.Context, batch activities.Batch) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "feed.kafka.publish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("changes", len(batch.Changes)))

	payload, err := encodeBatch(batch)
	if err != nil {
		return err
	}

	if err := f.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		return fmt.Errorf("kafka write [%s]: %w", f.topic, err)
	}
	return nil
}

func (f *KafkaFeed) Subscribe(ctx context.Context) (<-chan activities.Batch, error) {
	// the tail is fixed here, so a batch published after Subscribe returns is never skipped
	offset, err := f.tailOffset(ctx)
	if err != nil {
		return nil, fmt.Errorf("kafka tail offset [%s]: %w", f.topic, err)
	}
	reader, err := f.newReader(offset)
	if err != nil {
		return nil, fmt.Errorf("kafka reader [%s]: %w", f.topic, err)
	}

	out := make(chan activities.Batch, subscriberBuffer)
	go func() {
		defer close(out)
		defer func() {
			if err := reader.Close(); err != nil {
				log.Warnf("close kafka reader [%s]: %s", f.topic, err)
			}
		}()

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					log.Errorf("kafka feed [%s], read message: %s", f.topic, err)
				}
				return
			}

			batch, err := decodeBatch(msg.Value)
			if err != nil {
				log.Errorf("kafka feed [%s], skipping malformed batch at offset %d: %s", f.topic, msg.Offset, err)
				continue
			}

			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (f *KafkaFeed) Close() error {
	return f.writer.Close()
}
