package placerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/ports/out/placerepo"
)

// Repo is an in-memory implementation of placerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	nextID domain.PlaceID
	byID   map[domain.PlaceID]placerepo.Place
}

func NewRepo() *Repo {
	return &Repo{
		nextID: 1,
		byID:   make(map[domain.PlaceID]placerepo.Place),
	}
}

func (r *Repo) FetchAll(ctx context.Context) ([]placerepo.Place, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]placerepo.Place, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repo) FetchByID(ctx context.Context, id domain.PlaceID) (placerepo.Place, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return placerepo.Place{}, placerepo.ErrNotFound
	}
	return p, nil
}

func (r *Repo) Create(ctx context.Context, np placerepo.NewPlace) (domain.PlaceID, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.byID[id] = placerepo.Place{
		ID:        id,
		Name:      np.Name,
		Latitude:  np.Latitude,
		Longitude: np.Longitude,
		UserID:    np.UserID,
		CreatedAt: np.CreatedAt,
		UpdatedAt: np.CreatedAt,
	}
	return id, nil
}

func (r *Repo) Update(ctx context.Context, id domain.PlaceID, patch placerepo.Patch) (domain.MutationStatus, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return domain.MutationStatus{}, placerepo.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Latitude != nil {
		p.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		p.Longitude = *patch.Longitude
	}
	p.UpdatedAt = patch.UpdatedAt
	r.byID[id] = p
	return domain.MutationStatus{AffectedRows: 1}, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.PlaceID) (domain.MutationStatus, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return domain.MutationStatus{}, placerepo.ErrNotFound
	}
	delete(r.byID, id)
	return domain.MutationStatus{AffectedRows: 1}, nil
}
