package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/placesapp/places-api/internal/app/ownership"
	"github.com/placesapp/places-api/internal/app/proximity"
	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
	clockport "github.com/placesapp/places-api/internal/ports/out/clock"
	"github.com/placesapp/places-api/internal/ports/out/placerepo"
)

type Service struct {
	repo placerepo.Repository
	clk  clockport.Clock
	flow *ownership.Flow
	log  *slog.Logger
}

func NewService(repo placerepo.Repository, clk clockport.Clock, log *slog.Logger, obs ownership.Observer) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo: repo,
		clk:  clk,
		flow: ownership.New("place", isNotFound, log, obs),
		log:  log,
	}
}

func isNotFound(err error) bool { return errors.Is(err, placerepo.ErrNotFound) }

func (s *Service) List(ctx context.Context) ([]domain.Place, error) {
	ps, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, s.readFailure(ctx, err)
	}
	out := make([]domain.Place, 0, len(ps))
	for _, p := range ps {
		out = append(out, toDomain(p))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.PlaceID) (domain.Place, error) {
	p, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return domain.Place{}, &ownership.Error{
				Kind:    ownership.KindNotFound,
				Status:  http.StatusNotFound,
				Code:    ownership.CodeNotFound,
				Message: fmt.Sprintf("no place with id %d", id),
			}
		}
		return domain.Place{}, s.readFailure(ctx, err)
	}
	return toDomain(p), nil
}

// Nearby returns the places within maxKm of ref, each paired with its distance. No authorization applies.
func (s *Service) Nearby(ctx context.Context, ref domain.GeoPoint, maxKm float64) ([]proximity.Nearby[domain.Place], error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return proximity.FilterNearby(all, ref, maxKm, domain.Place.Point), nil
}

func (s *Service) Create(ctx context.Context, v credential.Verification, in CreatePlaceInput) (domain.Place, error) {
	name := domain.NormalizeHumanName(in.Name)
	return ownership.Create(ctx, s.flow, v, ownership.CreateSteps[domain.PlaceID, domain.Place]{
		Owner: in.UserID,
		Validate: func() error {
			if !in.Latitude.IsSpecified() || in.Latitude.IsNull() || !in.Longitude.IsSpecified() || in.Longitude.IsNull() {
				return ownership.NewValidationError("missing coordinates", map[string]any{
					"Latitude":  "required",
					"Longitude": "required",
				})
			}
			return validatePlace(name, domain.GeoPoint{Lat: in.Latitude.Value(), Lon: in.Longitude.Value()})
		},
		Persist: func(ctx context.Context) (domain.PlaceID, error) {
			return s.repo.Create(ctx, placerepo.NewPlace{
				Name:      name,
				Latitude:  in.Latitude.Value(),
				Longitude: in.Longitude.Value(),
				UserID:    in.UserID,
				CreatedAt: s.clk.Now(),
			})
		},
		Refetch: s.fetch,
	})
}

func (s *Service) Update(ctx context.Context, v credential.Verification, id domain.PlaceID, in UpdatePlaceInput) (domain.Place, error) {
	var patch placerepo.Patch
	return ownership.Update(ctx, s.flow, v, ownership.UpdateSteps[domain.Place]{
		ID:      id,
		Valid:   id.Valid(),
		Fetch:   func(ctx context.Context) (domain.Place, error) { return s.fetch(ctx, id) },
		OwnerOf: func(p domain.Place) domain.SubjectID { return p.UserID },
		Validate: func(existing domain.Place) error {
			var err error
			patch, err = buildPatch(existing, in)
			return err
		},
		Persist: func(ctx context.Context) (domain.MutationStatus, error) {
			patch.UpdatedAt = s.clk.Now()
			return s.repo.Update(ctx, id, patch)
		},
		Refetch: func(ctx context.Context) (domain.Place, error) { return s.fetch(ctx, id) },
	})
}

func (s *Service) Delete(ctx context.Context, v credential.Verification, id domain.PlaceID) (ownership.Deleted[domain.Place], error) {
	return ownership.Delete(ctx, s.flow, v, ownership.DeleteSteps[domain.Place]{
		ID:      id,
		Valid:   id.Valid(),
		Fetch:   func(ctx context.Context) (domain.Place, error) { return s.fetch(ctx, id) },
		OwnerOf: func(p domain.Place) domain.SubjectID { return p.UserID },
		Persist: func(ctx context.Context) (domain.MutationStatus, error) { return s.repo.Delete(ctx, id) },
	})
}

func (s *Service) fetch(ctx context.Context, id domain.PlaceID) (domain.Place, error) {
	p, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return domain.Place{}, err
	}
	return toDomain(p), nil
}

func (s *Service) readFailure(ctx context.Context, err error) error {
	s.log.ErrorContext(ctx, "place read failed", "error", err)
	return &ownership.Error{
		Kind:    ownership.KindStoreError,
		Status:  http.StatusNotFound,
		Code:    ownership.CodeStoreError,
		Message: "storage operation failed",
		Err:     err,
	}
}

func buildPatch(existing domain.Place, in UpdatePlaceInput) (placerepo.Patch, error) {
	var patch placerepo.Patch
	name := existing.Name
	pt := existing.Point()

	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			return patch, ownership.NewValidationError("invalid Name", map[string]any{"Name": "cannot be null"})
		}
		name = domain.NormalizeHumanName(in.Name.Value())
		patch.Name = &name
	}
	if in.Latitude.IsSpecified() {
		if in.Latitude.IsNull() {
			return patch, ownership.NewValidationError("invalid Latitude", map[string]any{"Latitude": "cannot be null"})
		}
		pt.Lat = in.Latitude.Value()
		patch.Latitude = &pt.Lat
	}
	if in.Longitude.IsSpecified() {
		if in.Longitude.IsNull() {
			return patch, ownership.NewValidationError("invalid Longitude", map[string]any{"Longitude": "cannot be null"})
		}
		pt.Lon = in.Longitude.Value()
		patch.Longitude = &pt.Lon
	}
	return patch, validatePlace(name, pt)
}

func validatePlace(name string, pt domain.GeoPoint) error {
	if name == "" {
		return ownership.NewValidationError("invalid Name", map[string]any{"Name": "must be non-empty"})
	}
	if !pt.Valid() {
		return ownership.NewValidationError("invalid coordinates", map[string]any{
			"Latitude":  "must be within [-90, 90]",
			"Longitude": "must be within [-180, 180]",
		})
	}
	return nil
}

func toDomain(p placerepo.Place) domain.Place {
	return domain.Place{
		ID:        p.ID,
		Name:      p.Name,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
