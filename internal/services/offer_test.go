package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/services"
)

func listedBatch(t *testing.T, e *env) *domain.Batch {
	t.Helper()
	b := e.createBatch(t)
	listed, err := e.batches.ListForSale(context.Background(), farmerAddr, b.ID, 600, domain.TradeSpot)
	require.NoError(t, err)
	return listed
}

func TestSellOfferRequiresListedBatch(t *testing.T) {
	e := newEnv(t)
	b := e.createBatch(t)

	_, err := e.offers.CreateSellOffer(context.Background(), farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1000,
	})
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestSellOfferMarksBatchOffered(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 500,
	})
	require.NoError(t, err)
	require.Equal(t, domain.OfferOpen, o.Status)

	reloaded, err := e.batches.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BatchOffered, reloaded.Status)
	require.Equal(t, []uint64{o.ID}, reloaded.OfferIDList())
}

func TestOfferQuantityBounds(t *testing.T) {
	e := newEnv(t)
	b := listedBatch(t, e)

	_, err := e.offers.CreateSellOffer(context.Background(), farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1001,
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.offers.CreateSellOffer(context.Background(), farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 0,
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAcceptOfferExactlyOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1000,
	})
	require.NoError(t, err)

	accepted, err := e.offers.AcceptOffer(ctx, distributorAddr, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferAccepted, accepted.Status)
	require.Equal(t, distributorAddr, accepted.Acceptor)

	// the second taker loses, whoever they are
	_, err = e.offers.AcceptOffer(ctx, retailerAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	sold, err := e.batches.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BatchSold, sold.Status)
	require.Equal(t, distributorAddr, sold.CurrentOwner)
	require.False(t, sold.Available)
}

func TestAcceptSellOfferRequiresBuyerRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1000,
	})
	require.NoError(t, err)

	_, err = e.offers.AcceptOffer(ctx, shipperAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAcceptSellOfferHonorsAuthorizedBuyers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.createBatch(t)
	require.NoError(t, e.batches.AuthorizeBuyer(ctx, farmerAddr, b.ID, retailerAddr))
	_, err := e.batches.ListForSale(ctx, farmerAddr, b.ID, 600, domain.TradeSpot)
	require.NoError(t, err)

	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1000,
	})
	require.NoError(t, err)

	_, err = e.offers.AcceptOffer(ctx, distributorAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	accepted, err := e.offers.AcceptOffer(ctx, retailerAddr, o.ID)
	require.NoError(t, err)
	require.Equal(t, retailerAddr, accepted.Acceptor)
}

func TestBuyOfferAcceptedByOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateBuyOffer(ctx, retailerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 550, Quantity: 1000,
	})
	require.NoError(t, err)

	// only the batch owner settles a buy offer
	_, err = e.offers.AcceptOffer(ctx, distributorAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = e.offers.AcceptOffer(ctx, farmerAddr, o.ID)
	require.NoError(t, err)

	sold, err := e.batches.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, retailerAddr, sold.CurrentOwner)
	require.Equal(t, int64(550), sold.BasePrice)
}

func TestBuyOfferRequiresBuyerRole(t *testing.T) {
	e := newEnv(t)
	b := listedBatch(t, e)

	_, err := e.offers.CreateBuyOffer(context.Background(), shipperAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 550, Quantity: 1000,
	})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestContractOfferProcessorToFarmer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// the crop does not exist yet; batch id 0 is the sentinel
	o, err := e.offers.CreateContractOffer(ctx, processorAddr, services.CreateOfferInput{
		Counterparty: farmerAddr, Price: 650, Quantity: 500,
	})
	require.NoError(t, err)
	require.Equal(t, domain.OfferContract, o.Type)
	require.Zero(t, o.BatchID)

	// reserved for the named farmer
	_, err = e.offers.AcceptOffer(ctx, retailerAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	accepted, err := e.offers.AcceptOffer(ctx, farmerAddr, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferAccepted, accepted.Status)
	require.Equal(t, farmerAddr, accepted.Acceptor)
}

func TestContractOfferRoleChecks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.offers.CreateContractOffer(ctx, farmerAddr, services.CreateOfferInput{
		Counterparty: farmerAddr, Price: 650, Quantity: 500,
	})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = e.offers.CreateContractOffer(ctx, processorAddr, services.CreateOfferInput{
		Counterparty: distributorAddr, Price: 650, Quantity: 500,
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestContractOfferOnExistingBatchSettlesSale(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateContractOffer(ctx, processorAddr, services.CreateOfferInput{
		BatchID: b.ID, Counterparty: farmerAddr, Price: 650, Quantity: 1000,
	})
	require.NoError(t, err)

	_, err = e.offers.AcceptOffer(ctx, farmerAddr, o.ID)
	require.NoError(t, err)

	sold, err := e.batches.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BatchSold, sold.Status)
	require.Equal(t, processorAddr, sold.CurrentOwner)
}

func TestBoundSellOfferReservedForCounterparty(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1000, Counterparty: retailerAddr,
	})
	require.NoError(t, err)

	// the distributor is buyer-eligible but the offer is not theirs
	_, err = e.offers.AcceptOffer(ctx, distributorAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	accepted, err := e.offers.AcceptOffer(ctx, retailerAddr, o.ID)
	require.NoError(t, err)
	require.Equal(t, retailerAddr, accepted.Acceptor)
}

func TestAvailableOffersPerUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	own, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 500,
	})
	require.NoError(t, err)
	bound, err := e.offers.CreateContractOffer(ctx, processorAddr, services.CreateOfferInput{
		Counterparty: farmerAddr, Price: 650, Quantity: 500,
	})
	require.NoError(t, err)

	// the farmer sees the contract reserved for them, not their own sell
	forFarmer, err := e.offers.GetAvailableOffers(ctx, farmerAddr)
	require.NoError(t, err)
	require.Len(t, forFarmer, 1)
	require.Equal(t, bound.ID, forFarmer[0].ID)

	// the distributor sees the open sell, not a contract bound elsewhere
	forDistributor, err := e.offers.GetAvailableOffers(ctx, distributorAddr)
	require.NoError(t, err)
	require.Len(t, forDistributor, 1)
	require.Equal(t, own.ID, forDistributor[0].ID)
}

func TestExpiredOfferCannotBeAccepted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1000, TTLSeconds: 1,
	})
	require.NoError(t, err)

	// push the row past its expiry instead of sleeping
	require.NoError(t, e.db.Model(&domain.Offer{}).
		Where("id = ?", o.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err = e.offers.AcceptOffer(ctx, distributorAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	// read paths exclude it even though the stored status is still open
	open, err := e.offers.GetAvailableOffers(ctx, distributorAddr)
	require.NoError(t, err)
	require.Empty(t, open)

	stored, err := e.offers.GetOffer(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OfferOpen, stored.Status)
}

func TestCancelOfferCreatorOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1000,
	})
	require.NoError(t, err)

	require.ErrorIs(t, e.offers.CancelOffer(ctx, distributorAddr, o.ID), apperr.ErrUnauthorized)
	require.NoError(t, e.offers.CancelOffer(ctx, farmerAddr, o.ID))

	_, err = e.offers.AcceptOffer(ctx, distributorAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCannotAcceptOwnOffer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := listedBatch(t, e)

	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID: b.ID, Price: 600, Quantity: 1000,
	})
	require.NoError(t, err)

	_, err = e.offers.AcceptOffer(ctx, farmerAddr, o.ID)
	require.ErrorIs(t, err, apperr.ErrValidation)
}
