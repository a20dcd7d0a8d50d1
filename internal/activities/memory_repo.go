package activities

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryRepo keeps activities in process memory. Used with the "memory" store backend
// and in tests that do not need postgres.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []string
	items map[string]Activity
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		items: make(map[string]Activity),
	}
}

func (r *MemoryRepo) Add(_ context.Context, activity Activity) (*Activity, error) {
	if activity.ID == "" {
		return nil, errors.New("activity id empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[activity.ID]; ok {
		return nil, ErrActivityExists
	}
	r.items[activity.ID] = activity
	r.order = append(r.order, activity.ID)
	return &activity, nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return nil, ErrActivityNotFound
	}
	return &a, nil
}

func (r *MemoryRepo) List(_ context.Context, params ListParams) ([]Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []Activity
	for _, id := range r.order {
		a := r.items[id]
		if params.Activity != "" && a.Activity != params.Activity {
			continue
		}
		if params.From != nil && a.Date.Before(*params.From) {
			continue
		}
		if params.To != nil && a.Date.After(*params.To) {
			continue
		}
		list = append(list, a)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date.Before(list[j].Date)
	})
	return list, nil
}

func (r *MemoryRepo) Update(_ context.Context, activity Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[activity.ID]; !ok {
		return ErrActivityNotFound
	}
	r.items[activity.ID] = activity
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrActivityNotFound
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
