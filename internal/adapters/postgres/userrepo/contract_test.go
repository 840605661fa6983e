package userrepo

import (
	"testing"

	"github.com/placesapp/places-api/internal/adapters/contracttest"
	"github.com/placesapp/places-api/internal/adapters/postgres/testutil"
	userrepoport "github.com/placesapp/places-api/internal/ports/out/userrepo"
)

func TestContract_PostgresUserRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunUserRepo(t, func(t *testing.T) (userrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
