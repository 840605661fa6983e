package httpapi

import (
	"log/slog"

	"github.com/placesapp/places-api/internal/app/places"
	"github.com/placesapp/places-api/internal/app/users"
	platformclock "github.com/placesapp/places-api/internal/platform/clock"
	clockport "github.com/placesapp/places-api/internal/ports/out/clock"
	"github.com/placesapp/places-api/internal/ports/out/idempotency"
)

type ServerOptions struct {
	// LegacyPlacePayload accepts lat/lon/name/userId on place creation when Latitude is absent.
	LegacyPlacePayload bool

	// Clock stamps idempotency records. Defaults to the system clock.
	Clock  clockport.Clock
	Logger *slog.Logger
}

// Server implements the HTTP handlers on top of the application services.
type Server struct {
	Places *places.Service
	Users  *users.Service
	Idem   idempotency.Store

	legacyPlacePayload bool
	clock              clockport.Clock
	log                *slog.Logger
}

func NewServer(placesSvc *places.Service, usersSvc *users.Service, idem idempotency.Store, opts ServerOptions) *Server {
	clk := opts.Clock
	if clk == nil {
		clk = platformclock.SystemClock{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		Places:             placesSvc,
		Users:              usersSvc,
		Idem:               idem,
		legacyPlacePayload: opts.LegacyPlacePayload,
		clock:              clk,
		log:                log,
	}
}
