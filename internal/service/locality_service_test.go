package service

import (
	"testing"

	"github.com/localmart-next/internal/constants"
	"github.com/localmart-next/internal/models"
)

func TestStatusForOwnerLocalUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createLocalUser(t, "inside@example.com")

	status, err := env.locality.StatusForOwner(models.UserOwner(user.ID))
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !status.IsLocal {
		t.Fatalf("midtown user should be local")
	}
	if status.DistanceMiles == nil || *status.DistanceMiles > 1 {
		t.Fatalf("distance should be under a mile: %+v", status.DistanceMiles)
	}
}

func TestStatusForOwnerRemoteUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createRemoteUser(t, "boston@example.com")

	status, err := env.locality.StatusForOwner(models.UserOwner(user.ID))
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.IsLocal {
		t.Fatalf("boston user should not be local")
	}
	if status.DistanceMiles == nil || *status.DistanceMiles < 150 || *status.DistanceMiles > 250 {
		t.Fatalf("nyc-boston distance out of range: %+v", status.DistanceMiles)
	}
}

func TestStatusForOwnerNeverLocalWithoutCoordinates(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "nocoords@example.com", nil, nil)

	status, err := env.locality.StatusForOwner(models.UserOwner(user.ID))
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.IsLocal || status.DistanceMiles != nil {
		t.Fatalf("user without coordinates must not be local: %+v", status)
	}

	// 匿名会话同理
	status, err = env.locality.StatusForOwner(models.SessionOwner("66666666-6666-6666-6666-666666666666"))
	if err != nil {
		t.Fatalf("anonymous status failed: %v", err)
	}
	if status.IsLocal {
		t.Fatalf("anonymous owner must not be local")
	}
}

func TestIsEligibleOnlyGatesLocalOnly(t *testing.T) {
	env := newTestEnv(t)
	localOnly := &models.Product{ID: 1, FulfillmentMode: constants.FulfillmentModeLocalOnly}
	shipOnly := &models.Product{ID: 2, FulfillmentMode: constants.FulfillmentModeShipOnly}
	both := &models.Product{ID: 3, FulfillmentMode: constants.FulfillmentModeBoth}

	outside := LocalityStatus{}
	inside := LocalityStatus{IsLocal: true}

	if env.locality.IsEligible(outside, localOnly) {
		t.Fatalf("outside buyer must not purchase local_only")
	}
	if !env.locality.IsEligible(inside, localOnly) {
		t.Fatalf("inside buyer should purchase local_only")
	}
	if !env.locality.IsEligible(outside, shipOnly) || !env.locality.IsEligible(outside, both) {
		t.Fatalf("ship_only and both must not be gated")
	}
}
