package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/cache"
	"github.com/2beens/activitytracker/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

const (
	viewerBuffer          = 1
	defaultResubscribeGap = 2 * time.Second
)

type changeSubscriber interface {
	Subscribe(ctx context.Context) (<-chan activities.Batch, error)
}

// Snapshot is an immutable copy of the mirrored records after a batch was applied.
type Snapshot struct {
	Version uint64
	Records []activities.Activity
}

// Viewer receives snapshots from the hub. Only the latest one is kept when the
// viewer falls behind.
type Viewer struct {
	id        uint64
	snapshots chan Snapshot
}

func (v *Viewer) Snapshots() <-chan Snapshot {
	return v.snapshots
}

// Hub owns the local record mirror. It applies change batches one at a time, in
// arrival order, and hands every resulting snapshot to the connected viewers.
type Hub struct {
	subscriber     changeSubscriber
	metricsManager *metrics.Manager
	resubscribeGap time.Duration

	mutex      sync.RWMutex
	latest     Snapshot
	ready      chan struct{}
	readyOnce  sync.Once
	viewers    map[uint64]*Viewer
	nextViewer uint64
	// closed is set once Run has stopped, later viewers get a closed channel
	closed bool
}

func NewHub(subscriber changeSubscriber, metricsManager *metrics.Manager) *Hub {
	return &Hub{
		subscriber:     subscriber,
		metricsManager: metricsManager,
		resubscribeGap: defaultResubscribeGap,
		ready:          make(chan struct{}),
		viewers:        make(map[uint64]*Viewer),
	}
}

// Run follows the change feed until ctx is done. When the subscription ends early the
// mirror is dropped and rebuilt from the next subscription's initial batch.
func (h *Hub) Run(ctx context.Context) error {
	for {
		if err := h.follow(ctx); err != nil {
			log.Errorf("live hub: %s", err)
		}

		select {
		case <-ctx.Done():
			h.closeViewers()
			return ctx.Err()
		case <-time.After(h.resubscribeGap):
			log.Warnln("live hub: resubscribing to activity changes")
		}
	}
}

func (h *Hub) follow(ctx context.Context) error {
	batches, err := h.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	mirror := cache.NewActivities()
	for batch := range batches {
		h.apply(mirror, batch)
	}

	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("change feed closed")
}

func (h *Hub) apply(mirror *cache.Activities, batch activities.Batch) {
	stats := mirror.Apply(batch)
	log.Tracef("live hub: applied batch: %+v", stats)

	h.metricsManager.CounterChangeBatches.Inc()
	h.metricsManager.CounterChanges.WithLabelValues(string(activities.ChangeAdded)).Add(float64(stats.Added))
	h.metricsManager.CounterChanges.WithLabelValues(string(activities.ChangeModified)).Add(float64(stats.Modified))
	h.metricsManager.CounterChanges.WithLabelValues(string(activities.ChangeRemoved)).Add(float64(stats.Removed))
	h.metricsManager.GaugeCachedItems.Set(float64(mirror.Len()))

	h.mutex.Lock()
	h.latest = Snapshot{
		Version: h.latest.Version + 1,
		Records: mirror.Records(),
	}
	snapshot := h.latest
	for _, v := range h.viewers {
		offer(v.snapshots, snapshot)
	}
	h.mutex.Unlock()

	h.readyOnce.Do(func() { close(h.ready) })
}

// offer replaces a pending, unread snapshot instead of blocking the hub on a slow viewer.
func offer(ch chan Snapshot, snapshot Snapshot) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Latest returns the most recent snapshot, the zero snapshot before the first batch.
func (h *Hub) Latest() Snapshot {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.latest
}

// Ready is closed once the initial contents of the store were applied.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

// Register adds a viewer. It is handed the latest snapshot right away, when there is one.
// After the hub stopped the viewer's channel is already closed.
func (h *Hub) Register() *Viewer {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.nextViewer++
	v := &Viewer{
		id:        h.nextViewer,
		snapshots: make(chan Snapshot, viewerBuffer),
	}
	if h.closed {
		close(v.snapshots)
		return v
	}
	if h.latest.Version > 0 {
		v.snapshots <- h.latest
	}
	h.viewers[v.id] = v
	h.metricsManager.GaugeLiveViewers.Inc()
	return v
}

func (h *Hub) Unregister(v *Viewer) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.viewers[v.id]; !ok {
		return
	}
	delete(h.viewers, v.id)
	close(v.snapshots)
	h.metricsManager.GaugeLiveViewers.Dec()
}

func (h *Hub) ViewersCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.viewers)
}

func (h *Hub) closeViewers() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.closed = true
	for id, v := range h.viewers {
		delete(h.viewers, id)
		close(v.snapshots)
		h.metricsManager.GaugeLiveViewers.Dec()
	}
}
