package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=feed

// ActivitiesRepo persists records, activities.Repo and activities.MemoryRepo implement it.
type ActivitiesRepo interface {
	Add(ctx context.Context, activity activities.Activity) (*activities.Activity, error)
	Get(ctx context.Context, id string) (*activities.Activity, error)
	List(ctx context.Context, params activities.ListParams) ([]activities.Activity, error)
	Update(ctx context.Context, activity activities.Activity) error
	Delete(ctx context.Context, id string) error
}

// Store is the activity collection as seen by clients: every successful write is
// followed by a change batch on the feed, and subscribers get the current contents
// first and live changes after.
type Store struct {
	repo  ActivitiesRepo
	feed  Feed
	now   func() time.Time
	newID func() string
}

func NewStore(repo ActivitiesRepo, feed Feed) *Store {
	return &Store{
		repo:  repo,
		feed:  feed,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Add stores a new activity under a fresh id. A zero date is stamped with the current time.
func (s *Store) Add(ctx context.Context, activity activities.Activity) (_ *activities.Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.activities.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	activity.ID = s.newID()
	if activity.Date.IsZero() {
		activity.Date = s.now()
	}
	activity.Date = activity.Date.UTC()
	span.SetAttributes(attribute.String("activity.id", activity.ID))

	added, err := s.repo.Add(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("repo add: %w", err)
	}

	s.publish(ctx, activities.NewBatch(activities.ChangeAdded, *added))
	return added, nil
}

func (s *Store) Get(ctx context.Context, id string) (*activities.Activity, error) {
	return s.repo.Get(ctx, id)
}

func (s *Store) List(ctx context.Context, params activities.ListParams) ([]activities.Activity, error) {
	return s.repo.List(ctx, params)
}

// Update replaces a whole record.
func (s *Store) Update(ctx context.Context, activity activities.Activity) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.activities.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("activity.id", activity.ID))

	activity.Date = activity.Date.UTC()
	if err := s.repo.Update(ctx, activity); err != nil {
		return err
	}

	s.publish(ctx, activities.NewBatch(activities.ChangeModified, activity))
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.activities.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("activity.id", id))

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, activities.NewBatch(activities.ChangeRemoved, *existing))
	return nil
}

// Subscribe returns a channel that first carries the whole collection as one batch of
// "added" changes, followed by every live batch. The live subscription is opened before
// the collection is read, so a record written in between can arrive twice as "added";
// consumers treat an "added" for a known id as a replacement.
func (s *Store) Subscribe(ctx context.Context) (<-chan activities.Batch, error) {
	subCtx, cancel := context.WithCancel(ctx)
	live, err := s.feed.Subscribe(subCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("feed subscribe: %w", err)
	}

	current, err := s.repo.List(ctx, activities.ListParams{})
	if err != nil {
		// release the live subscription, nobody will ever read it
		cancel()
		return nil, fmt.Errorf("list current activities: %w", err)
	}

	out := make(chan activities.Batch, subscriberBuffer)
	go func() {
		defer close(out)
		defer cancel()

		select {
		case out <- activities.NewBatch(activities.ChangeAdded, current...):
		case <-subCtx.Done():
			return
		}

		for {
			select {
			case <-subCtx.Done():
				return
			case batch, ok := <-live:
				if !ok {
					return
				}
				select {
				case out <- batch:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// publish does not fail the write: the record is stored, and the feed is best effort.
func (s *Store) publish(ctx context.Context, batch activities.Batch) {
	if err := s.feed.Publish(ctx, batch); err != nil {
		log.Errorf("publish %d change(s) of type [%s]: %s", len(batch.Changes), batch.Changes[0].Type, err)
	}
}
