package activityrepo

import (
	"testing"

	"github.com/mergington/activities-api/internal/adapters/contracttest"
	activityrepoport "github.com/mergington/activities-api/internal/ports/out/activityrepo"
)

func TestContract_ActivityRepo(t *testing.T) {
	contracttest.RunActivityRepo(t, func(t *testing.T) (activityrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
