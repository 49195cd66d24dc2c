package activityrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/mergington/activities-api/internal/domain"
	"github.com/mergington/activities-api/internal/ports/out/activityrepo"
)

// Repo is an in-memory implementation of activityrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byName map[domain.ActivityName]*domain.Activity
	order  []domain.ActivityName
}

func NewRepo() *Repo {
	return &Repo{
		byName: make(map[domain.ActivityName]*domain.Activity),
	}
}

// NewSeededRepo returns a Repo holding the standard seed set.
func NewSeededRepo() *Repo {
	r := NewRepo()
	_ = r.Seed(context.Background(), domain.SeedActivities())
	return r
}

func (r *Repo) List(ctx context.Context) ([]domain.Activity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Activity, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Clone())
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, name domain.ActivityName) (domain.Activity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	if !ok {
		return domain.Activity{}, activityrepo.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *Repo) AddParticipant(ctx context.Context, name domain.ActivityName, email string, enforceCapacity bool) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byName[name]
	if !ok {
		return activityrepo.ErrNotFound
	}
	if a.HasParticipant(email) {
		return activityrepo.ErrAlreadyEnrolled
	}
	if enforceCapacity && a.SpotsLeft() <= 0 {
		return activityrepo.ErrFull
	}
	a.Participants = append(a.Participants, email)
	return nil
}

func (r *Repo) RemoveParticipant(ctx context.Context, name domain.ActivityName, email string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byName[name]
	if !ok {
		return activityrepo.ErrNotFound
	}
	for i, p := range a.Participants {
		if p == email {
			a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
			return nil
		}
	}
	return activityrepo.ErrNotEnrolled
}

func (r *Repo) Seed(ctx context.Context, activities []domain.Activity) error {
	_ = ctx

	byName := make(map[domain.ActivityName]*domain.Activity, len(activities))
	order := make([]domain.ActivityName, 0, len(activities))
	for _, a := range activities {
		if a.Name == "" {
			return fmt.Errorf("seed: activity with empty name")
		}
		if _, dup := byName[a.Name]; dup {
			return fmt.Errorf("seed: duplicate activity %q", a.Name)
		}
		c := a.Clone()
		byName[a.Name] = &c
		order = append(order, a.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = byName
	r.order = order
	return nil
}
