package placerepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/ports/out/placerepo"
)

// Repo is a Postgres implementation of placerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectPlace = `SELECT id, name, latitude, longitude, user_id, created_at, updated_at FROM places`

func (r *Repo) FetchAll(ctx context.Context) ([]placerepo.Place, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectPlace+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanPlace)
	if err != nil {
		return nil, fmt.Errorf("scan places: %w", err)
	}
	return out, nil
}

func (r *Repo) FetchByID(ctx context.Context, id domain.PlaceID) (placerepo.Place, error) {
	if r.pool == nil {
		return placerepo.Place{}, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectPlace+` WHERE id = $1`, int64(id))
	if err != nil {
		return placerepo.Place{}, fmt.Errorf("query place: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPlace)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return placerepo.Place{}, placerepo.ErrNotFound
		}
		return placerepo.Place{}, fmt.Errorf("scan place: %w", err)
	}
	return p, nil
}

func (r *Repo) Create(ctx context.Context, np placerepo.NewPlace) (domain.PlaceID, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO places (name, latitude, longitude, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`,
		np.Name,
		np.Latitude,
		np.Longitude,
		string(np.UserID),
		np.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert place: %w", err)
	}
	return domain.PlaceID(id), nil
}

func (r *Repo) Update(ctx context.Context, id domain.PlaceID, patch placerepo.Patch) (domain.MutationStatus, error) {
	if r.pool == nil {
		return domain.MutationStatus{}, errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE places
		SET name = COALESCE($2, name),
		    latitude = COALESCE($3, latitude),
		    longitude = COALESCE($4, longitude),
		    updated_at = $5
		WHERE id = $1
	`,
		int64(id),
		patch.Name,
		patch.Latitude,
		patch.Longitude,
		patch.UpdatedAt.UTC(),
	)
	if err != nil {
		return domain.MutationStatus{}, fmt.Errorf("update place: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.MutationStatus{}, placerepo.ErrNotFound
	}
	return domain.MutationStatus{AffectedRows: ct.RowsAffected()}, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.PlaceID) (domain.MutationStatus, error) {
	if r.pool == nil {
		return domain.MutationStatus{}, errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, int64(id))
	if err != nil {
		return domain.MutationStatus{}, fmt.Errorf("delete place: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.MutationStatus{}, placerepo.ErrNotFound
	}
	return domain.MutationStatus{AffectedRows: ct.RowsAffected()}, nil
}

func scanPlace(row pgx.CollectableRow) (placerepo.Place, error) {
	var (
		p      placerepo.Place
		id     int64
		userID string
	)
	if err := row.Scan(&id, &p.Name, &p.Latitude, &p.Longitude, &userID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return placerepo.Place{}, err
	}
	p.ID = domain.PlaceID(id)
	p.UserID = domain.SubjectID(userID)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
