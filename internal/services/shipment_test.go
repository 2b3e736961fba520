package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/services"
)

func TestCreateShipmentRequiresCurrentOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sold, o := e.soldBatch(t)

	in := services.CreateShipmentInput{
		BatchID: sold.ID, OfferID: o.ID, Shipper: shipperAddr,
		TrackingID: "TRK-1", FromLocation: "Narok", ToLocation: "Nairobi",
	}

	// the seller lost custody at the sale
	_, err := e.shipments.CreateShipment(ctx, farmerAddr, in)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// a shipper role alone opens nothing
	_, err = e.shipments.CreateShipment(ctx, shipperAddr, in)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	ship, err := e.shipments.CreateShipment(ctx, distributorAddr, in)
	require.NoError(t, err)
	require.Equal(t, distributorAddr, ship.Sender)
}

func TestCreateShipmentRequiresSoldBatch(t *testing.T) {
	e := newEnv(t)
	b := e.createBatch(t)

	_, err := e.shipments.CreateShipment(context.Background(), farmerAddr, services.CreateShipmentInput{
		BatchID:    b.ID,
		TrackingID: "TRK-2", FromLocation: "Narok", ToLocation: "Nairobi",
	})
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCreateShipmentRejectsDuplicateTracking(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sold, o := e.soldBatch(t)

	in := services.CreateShipmentInput{
		BatchID: sold.ID, OfferID: o.ID, Shipper: shipperAddr,
		TrackingID: "TRK-DUP", FromLocation: "Narok", ToLocation: "Nairobi",
	}
	_, err := e.shipments.CreateShipment(ctx, distributorAddr, in)
	require.NoError(t, err)

	sold2, o2 := e.soldBatch(t)
	in.BatchID = sold2.ID
	in.OfferID = o2.ID
	_, err = e.shipments.CreateShipment(ctx, distributorAddr, in)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestShipmentParties(t *testing.T) {
	e := newEnv(t)
	_, ship := e.shippedBatch(t)

	require.Equal(t, distributorAddr, ship.Receiver)
	require.Equal(t, distributorAddr, ship.Sender)
	require.Equal(t, shipperAddr, ship.Shipper)
	require.Equal(t, domain.ShipmentCreated, ship.Status)
}

func TestShipperDefaultsToSender(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sold, o := e.soldBatch(t)

	ship, err := e.shipments.CreateShipment(ctx, distributorAddr, services.CreateShipmentInput{
		BatchID: sold.ID, OfferID: o.ID,
		TrackingID: "TRK-SELF", FromLocation: "Narok", ToLocation: "Nairobi",
	})
	require.NoError(t, err)
	require.Equal(t, distributorAddr, ship.Shipper)
}

func TestShipmentCustodyFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, ship := e.shippedBatch(t)

	// delivery before pickup is not a thing
	_, err := e.shipments.MarkDelivered(ctx, shipperAddr, ship.ID, "")
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	picked, err := e.shipments.ConfirmPickup(ctx, shipperAddr, ship.ID, "Narok depot")
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentPickedUp, picked.Status)

	_, err = e.shipments.ConfirmPickup(ctx, shipperAddr, ship.ID, "again")
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	moved, err := e.shipments.UpdateLocation(ctx, shipperAddr, ship.ID, "Nakuru", "rest stop")
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentInTransit, moved.Status)

	delivered, err := e.shipments.MarkDelivered(ctx, shipperAddr, ship.ID, "")
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentDelivered, delivered.Status)

	// only the receiver acknowledges
	_, err = e.shipments.ConfirmDelivery(ctx, shipperAddr, ship.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	confirmed, err := e.shipments.ConfirmDelivery(ctx, distributorAddr, ship.ID)
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentConfirmed, confirmed.Status)

	cps, err := e.shipments.GetCheckpoints(ctx, ship.ID)
	require.NoError(t, err)
	require.Len(t, cps, 5)
	require.Equal(t, "Narok", cps[0].Location)
	require.Equal(t, "Nakuru", cps[2].Location)
	require.Equal(t, "Nairobi", cps[4].Location)
}

func TestDeliverDirectlyFromPickup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, ship := e.shippedBatch(t)

	_, err := e.shipments.ConfirmPickup(ctx, shipperAddr, ship.ID, "depot")
	require.NoError(t, err)
	delivered, err := e.shipments.MarkDelivered(ctx, shipperAddr, ship.ID, "Nairobi east")
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentDelivered, delivered.Status)
}

func TestOnlyAssignedShipperDrivesShipment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, ship := e.shippedBatch(t)

	secondShipper := "0xshipper2"
	_, err := e.access.RegisterStakeholder(ctx, adminAddr, services.RegisterStakeholderInput{
		Address: secondShipper, Role: domain.RoleShipper, Name: "Second",
	})
	require.NoError(t, err)

	_, err = e.shipments.ConfirmPickup(ctx, secondShipper, ship.ID, "depot")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestGetShipmentByTrackingID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, ship := e.shippedBatch(t)

	found, err := e.shipments.GetShipmentByTrackingID(ctx, ship.TrackingID)
	require.NoError(t, err)
	require.Equal(t, ship.ID, found.ID)

	_, err = e.shipments.GetShipmentByTrackingID(ctx, "TRK-MISSING")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetUserShipmentsByStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, ship := e.shippedBatch(t)

	created, err := e.shipments.GetUserShipmentsByStatus(ctx, shipperAddr, domain.ShipmentCreated)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, ship.ID, created[0].ID)

	delivered, err := e.shipments.GetUserShipmentsByStatus(ctx, shipperAddr, domain.ShipmentDelivered)
	require.NoError(t, err)
	require.Empty(t, delivered)
}
