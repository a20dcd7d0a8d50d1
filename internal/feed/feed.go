// Package feed carries activity change batches between writers and every
// subscribed dashboard, over redis pub/sub, kafka or an in-process broker.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/activitytracker/internal/activities"
)

const (
	BackendRedis  = "redis"
	BackendKafka  = "kafka"
	BackendMemory = "memory"

	DefaultChannel = "activities:changes"
)

// subscriberBuffer is how many batches a subscriber may lag behind before the feed blocks on it.
const subscriberBuffer = 64

type Publisher interface {
	Publish(ctx context.Context, batch activities.Batch) error
}

type Subscriber interface {
	// Subscribe delivers batches in publish order until ctx is done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan activities.Batch, error)
}

type Feed interface {
	Publisher
	Subscriber
	Close() error
}

func encodeBatch(batch activities.Batch) ([]byte, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}
	return payload, nil
}

func decodeBatch(payload []byte) (activities.Batch, error) {
	var batch activities.Batch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return activities.Batch{}, fmt.Errorf("unmarshal batch: %w", err)
	}
	return batch, nil
}
