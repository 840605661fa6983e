package domain

import "time"

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point lies within lat [-90,90] and lon [-180,180].
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Place is the domain representation of a stored place.
type Place struct {
	ID        PlaceID
	Name      string
	Latitude  float64
	Longitude float64

	// UserID is the owning subject. It is set at creation and never reassigned.
	UserID SubjectID

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Place) Point() GeoPoint {
	return GeoPoint{Lat: p.Latitude, Lon: p.Longitude}
}

// MutationStatus is what a store reports after an update or delete.
type MutationStatus struct {
	AffectedRows int64
}
