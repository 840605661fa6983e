package userrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/placesapp/places-api/internal/adapters/postgres"
	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectUser = `SELECT id, name, password_hash, created_at, updated_at FROM users`

func (r *Repo) FetchAll(ctx context.Context) ([]userrepo.User, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, selectUser+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return out, nil
}

func (r *Repo) FetchByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	return r.fetchOne(ctx, selectUser+` WHERE id = $1`, int64(id))
}

func (r *Repo) FetchByName(ctx context.Context, name string) (userrepo.User, error) {
	return r.fetchOne(ctx, selectUser+` WHERE name = $1`, name)
}

func (r *Repo) fetchOne(ctx context.Context, query string, arg any) (userrepo.User, error) {
	if r.pool == nil {
		return userrepo.User{}, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return userrepo.User{}, fmt.Errorf("query user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userrepo.User{}, userrepo.ErrNotFound
		}
		return userrepo.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *Repo) Create(ctx context.Context, nu userrepo.NewUser) (domain.UserID, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`,
		nu.Name,
		nu.PasswordHash,
		nu.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError("insert user", err)
	}
	return domain.UserID(id), nil
}

func (r *Repo) Update(ctx context.Context, id domain.UserID, patch userrepo.Patch) (domain.MutationStatus, error) {
	if r.pool == nil {
		return domain.MutationStatus{}, errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = COALESCE($2, name),
		    password_hash = COALESCE($3, password_hash),
		    updated_at = $4
		WHERE id = $1
	`,
		int64(id),
		patch.Name,
		patch.PasswordHash,
		patch.UpdatedAt.UTC(),
	)
	if err != nil {
		return domain.MutationStatus{}, mapWriteError("update user", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.MutationStatus{}, userrepo.ErrNotFound
	}
	return domain.MutationStatus{AffectedRows: ct.RowsAffected()}, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.UserID) (domain.MutationStatus, error) {
	if r.pool == nil {
		return domain.MutationStatus{}, errors.New("nil postgres pool")
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, int64(id))
	if err != nil {
		return domain.MutationStatus{}, fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.MutationStatus{}, userrepo.ErrNotFound
	}
	return domain.MutationStatus{AffectedRows: ct.RowsAffected()}, nil
}

func mapWriteError(op string, err error) error {
	if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "users_name_unique" {
		return userrepo.ErrNameTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanUser(row pgx.CollectableRow) (userrepo.User, error) {
	var (
		u  userrepo.User
		id int64
	)
	if err := row.Scan(&id, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return userrepo.User{}, err
	}
	u.ID = domain.UserID(id)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
