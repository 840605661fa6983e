package httpapi

import (
	"encoding/json"
	"strconv"

	"github.com/placesapp/places-api/internal/app/places"
	"github.com/placesapp/places-api/internal/app/users"
	"github.com/placesapp/places-api/internal/domain"
)

// Wire names follow the established client contract (capitalized column names).

type placeDTO struct {
	ID        int64            `json:"ID"`
	Name      string           `json:"Name"`
	Latitude  float64          `json:"Latitude"`
	Longitude float64          `json:"Longitude"`
	UserID    domain.SubjectID `json:"UserId"`
}

type nearbyPlaceDTO struct {
	placeDTO
	Distance float64 `json:"Distance"`
}

type deletedPlaceDTO struct {
	AffectedRows int64 `json:"affectedRows"`
	placeDTO
}

type userDTO struct {
	ID   int64  `json:"ID"`
	Name string `json:"Name"`
}

type sessionDTO struct {
	userDTO
	Token string `json:"Token"`
}

type deletedUserDTO struct {
	AffectedRows int64 `json:"affectedRows"`
	userDTO
}

// createPlaceRequest carries both the canonical fields and the legacy lowercase ones.
// JSON decoding prefers exact key matches, so "name" lands in LegacyName and "Name" in Name.
type createPlaceRequest struct {
	Name      *string           `json:"Name"`
	Latitude  *float64          `json:"Latitude"`
	Longitude *float64          `json:"Longitude"`
	UserID    *domain.SubjectID `json:"UserId"`

	LegacyName   *string           `json:"name"`
	LegacyLat    *float64          `json:"lat"`
	LegacyLon    *float64          `json:"lon"`
	LegacyUserID *domain.SubjectID `json:"userId"`
}

type updatePlaceRequest struct {
	Name      json.RawMessage `json:"Name"`
	Latitude  json.RawMessage `json:"Latitude"`
	Longitude json.RawMessage `json:"Longitude"`
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Name     json.RawMessage `json:"name"`
	Password json.RawMessage `json:"password"`
}

func placeFromDomain(p domain.Place) placeDTO {
	return placeDTO{
		ID:        int64(p.ID),
		Name:      p.Name,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		UserID:    p.UserID,
	}
}

func userFromDomain(u domain.User) userDTO {
	return userDTO{ID: int64(u.ID), Name: u.Name}
}

// toInput applies the legacy shim: when Latitude is absent, the lowercase fields stand in for all four.
func (req createPlaceRequest) toInput(legacy bool) places.CreatePlaceInput {
	if legacy && req.Latitude == nil {
		req.Name, req.Latitude, req.Longitude, req.UserID = req.LegacyName, req.LegacyLat, req.LegacyLon, req.LegacyUserID
	}
	var in places.CreatePlaceInput
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Latitude != nil {
		in.Latitude = places.Some(*req.Latitude)
	}
	if req.Longitude != nil {
		in.Longitude = places.Some(*req.Longitude)
	}
	if req.UserID != nil {
		in.UserID = *req.UserID
	}
	return in
}

func (req updatePlaceRequest) toInput() (places.UpdatePlaceInput, error) {
	var (
		in  places.UpdatePlaceInput
		err error
	)
	if in.Name, err = decodePlaceField[string](req.Name); err != nil {
		return in, err
	}
	if in.Latitude, err = decodePlaceField[float64](req.Latitude); err != nil {
		return in, err
	}
	if in.Longitude, err = decodePlaceField[float64](req.Longitude); err != nil {
		return in, err
	}
	return in, nil
}

func (req updateUserRequest) toInput() (users.UpdateUserInput, error) {
	var (
		in  users.UpdateUserInput
		err error
	)
	if in.Name, err = decodeUserField[string](req.Name); err != nil {
		return in, err
	}
	if in.Password, err = decodeUserField[string](req.Password); err != nil {
		return in, err
	}
	return in, nil
}

func decodePlaceField[T any](raw json.RawMessage) (places.Optional[T], error) {
	if raw == nil {
		return places.Unspecified[T](), nil
	}
	if string(raw) == "null" {
		return places.Null[T](), nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return places.Optional[T]{}, err
	}
	return places.Some(v), nil
}

func decodeUserField[T any](raw json.RawMessage) (users.Optional[T], error) {
	if raw == nil {
		return users.Unspecified[T](), nil
	}
	if string(raw) == "null" {
		return users.Null[T](), nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return users.Optional[T]{}, err
	}
	return users.Some(v), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
