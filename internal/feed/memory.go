package feed

import (
	"context"
	"sync"

	"github.com/2beens/activitytracker/internal/activities"
)

// MemoryFeed is an in-process broker, for single instance setups and tests.
type MemoryFeed struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]memorySubscriber
	closed      bool
}

type memorySubscriber struct {
	ctx context.Context
	out chan activities.Batch
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{
		subscribers: make(map[int]memorySubscriber),
	}
}

// Publish hands the batch to every subscriber. Holding the lock while sending keeps
// the delivery order identical for all subscribers.
func (f *MemoryFeed) Publish(ctx context.Context, batch activities.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.subscribers {
		select {
		case sub.out <- batch:
		case <-sub.ctx.Done():
			// gone, unsubscribe will drop it
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(ctx context.Context) (<-chan activities.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(chan activities.Batch, subscriberBuffer)
	if f.closed {
		close(out)
		return out, nil
	}

	id := f.nextID
	f.nextID++
	f.subscribers[id] = memorySubscriber{ctx: ctx, out: out}

	go func() {
		<-ctx.Done()
		f.unsubscribe(id)
	}()

	return out, nil
}

func (f *MemoryFeed) unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sub, ok := f.subscribers[id]; ok {
		delete(f.subscribers, id)
		close(sub.out)
	}
}

// SubscribersCount returns the number of subscriptions whose context is not done yet.
func (f *MemoryFeed) SubscribersCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for id, sub := range f.subscribers {
		delete(f.subscribers, id)
		close(sub.out)
	}
	return nil
}
