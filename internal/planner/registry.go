package planner

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/example/studybot/pkg/models"
)

// Registry keeps one loaded Planner per profile
type Registry struct {
	mu       sync.Mutex
	store    Store
	opts     Options
	planners map[string]*Planner
	loads    singleflight.Group
}

// NewRegistry creates an empty registry backed by store
func NewRegistry(store Store, opts Options) *Registry {
	return &Registry{
		store:    store,
		opts:     opts,
		planners: make(map[string]*Planner),
	}
}

// Get returns the planner of a profile, loading it on first use. Loads
// run outside the registry lock; concurrent first uses of one profile
// share a single load.
func (r *Registry) Get(ctx context.Context, profile models.UserProfile) *Planner {
	if p, ok := r.loaded(profile.ID); ok {
		return p
	}

	v, _, _ := r.loads.Do(profile.ID, func() (interface{}, error) {
		if p, ok := r.loaded(profile.ID); ok {
			return p, nil
		}
		p := New(profile.ID, r.store, r.opts)
		p.Load(ctx, profile.CareerID)

		r.mu.Lock()
		r.planners[profile.ID] = p
		r.mu.Unlock()
		return p, nil
	})
	return v.(*Planner)
}

func (r *Registry) loaded(userID string) (*Planner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.planners[userID]
	return p, ok
}

// Forget closes and drops the planner of a profile
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	p, ok := r.planners[userID]
	delete(r.planners, userID)
	r.mu.Unlock()

	if ok {
		p.Close()
	}
}

// Each calls fn for every loaded planner, ordered by user id
func (r *Registry) Each(fn func(p *Planner)) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.planners))
	for id := range r.planners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	planners := make([]*Planner, 0, len(ids))
	for _, id := range ids {
		planners = append(planners, r.planners[id])
	}
	r.mu.Unlock()

	for _, p := range planners {
		fn(p)
	}
}

// Close stops every planner
func (r *Registry) Close() {
	r.mu.Lock()
	planners := r.planners
	r.planners = make(map[string]*Planner)
	r.mu.Unlock()

	for _, p := range planners {
		p.Close()
	}
}
