package userrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	nextID   domain.UserID
	byID     map[domain.UserID]userrepo.User
	idByName map[string]domain.UserID
}

func NewRepo() *Repo {
	return &Repo{
		nextID:   1,
		byID:     make(map[domain.UserID]userrepo.User),
		idByName: make(map[string]domain.UserID),
	}
}

func (r *Repo) FetchAll(ctx context.Context) ([]userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]userrepo.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repo) FetchByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return u, nil
}

func (r *Repo) FetchByName(ctx context.Context, name string) (userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByName[name]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *Repo) Create(ctx context.Context, nu userrepo.NewUser) (domain.UserID, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.idByName[nu.Name]; taken {
		return 0, userrepo.ErrNameTaken
	}
	id := r.nextID
	r.nextID++
	r.byID[id] = userrepo.User{
		ID:           id,
		Name:         nu.Name,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    nu.CreatedAt,
		UpdatedAt:    nu.CreatedAt,
	}
	r.idByName[nu.Name] = id
	return id, nil
}

func (r *Repo) Update(ctx context.Context, id domain.UserID, patch userrepo.Patch) (domain.MutationStatus, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.MutationStatus{}, userrepo.ErrNotFound
	}
	if patch.Name != nil && *patch.Name != u.Name {
		if _, taken := r.idByName[*patch.Name]; taken {
			return domain.MutationStatus{}, userrepo.ErrNameTaken
		}
		delete(r.idByName, u.Name)
		u.Name = *patch.Name
		r.idByName[u.Name] = id
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	u.UpdatedAt = patch.UpdatedAt
	r.byID[id] = u
	return domain.MutationStatus{AffectedRows: 1}, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.UserID) (domain.MutationStatus, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.MutationStatus{}, userrepo.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.idByName, u.Name)
	return domain.MutationStatus{AffectedRows: 1}, nil
}
