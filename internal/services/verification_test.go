package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agritrace/agritrace-backend/internal/data/repos/testutil"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
)

func TestGenerateQRCodeOwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.createBatch(t)

	_, err := e.verifier.GenerateQRCode(ctx, distributorAddr, b.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)
	require.True(t, qr.Active)
	require.Equal(t, b.ID, qr.BatchID)
	require.Equal(t, "Maize", qr.ProductName)
	require.Len(t, qr.Code, 66)
}

func TestRepeatedGenerationLastWriteWins(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.createBatch(t)

	first, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)
	// the canonical index orders by creation time
	time.Sleep(5 * time.Millisecond)
	second, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Code, second.Code)

	canonical, err := e.verifier.GetCanonicalQRCode(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, second.Code, canonical.Code)

	// both codes still verify; old codes are not revoked by minting
	res, err := e.verifier.VerifyProduct(ctx, first.Code)
	require.NoError(t, err)
	require.True(t, res.Valid)
}

func TestVerifyProductFullPayload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b, _ := e.shippedBatch(t)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)

	res, err := e.verifier.VerifyProduct(ctx, qr.Code)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.False(t, res.Degraded)
	require.NotNil(t, res.Batch)
	require.NotNil(t, res.Provenance)
	require.Len(t, res.Shipments, 1)
	require.Equal(t, int64(4), res.Provenance.RecordCount)

	// the scan was counted
	reloaded, err := e.verifier.GetQRCode(ctx, qr.Code)
	require.NoError(t, err)
	require.Equal(t, int64(1), reloaded.ScanCount)
}

func TestVerifyUnknownCode(t *testing.T) {
	e := newEnv(t)
	_, err := e.verifier.VerifyProduct(context.Background(), "0xdeadbeef")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeactivatedCodeScansInvalid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.createBatch(t)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)

	require.ErrorIs(t, e.verifier.DeactivateQRCode(ctx, distributorAddr, qr.Code), apperr.ErrUnauthorized)
	require.NoError(t, e.verifier.DeactivateQRCode(ctx, farmerAddr, qr.Code))
	// idempotent
	require.NoError(t, e.verifier.DeactivateQRCode(ctx, farmerAddr, qr.Code))

	res, err := e.verifier.VerifyProduct(ctx, qr.Code)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, "code has been deactivated", res.Reason)
}

// A code can point at a batch that never accumulated provenance, e.g.
// rows imported from a legacy system. The scan must degrade, not fail.
func TestVerifyDegradesWithoutProvenance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	b := testutil.SeedBatch(t, ctx, e.db, farmerAddr, 500, 100)
	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)

	res, err := e.verifier.VerifyProduct(ctx, qr.Code)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.True(t, res.Degraded)
	require.Contains(t, res.Warnings, "provenance chain unavailable")
	require.NotNil(t, res.Batch)
	require.Nil(t, res.Provenance)

	// a summary falls back to the origin when the chain is missing
	summary, err := e.public.GetConsumerSummary(ctx, qr.Code)
	require.NoError(t, err)
	require.True(t, summary.Valid)
	require.Equal(t, int64(0), summary.RecordCount)
	require.Equal(t, "Narok", summary.LastLocation)
}

func TestConsumerSummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b, _ := e.shippedBatch(t)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)

	summary, err := e.public.GetConsumerSummary(ctx, qr.Code)
	require.NoError(t, err)
	require.True(t, summary.Valid)
	require.Equal(t, "Maize", summary.ProductName)
	require.Equal(t, "Narok", summary.Origin)
	require.Equal(t, domain.BatchShipped, summary.Status)
	require.Equal(t, int64(4), summary.RecordCount)
	require.Equal(t, "SHIPPED", summary.LastAction)
	require.False(t, summary.QualityKnown)
}

func TestQuickVerify(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.createBatch(t)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)

	res, err := e.public.QuickVerify(ctx, qr.Code)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, b.ID, res.BatchID)
	require.Equal(t, "Maize", res.ProductName)
	require.Equal(t, "Narok", res.Origin)

	require.NoError(t, e.verifier.DeactivateQRCode(ctx, farmerAddr, qr.Code))
	res, err = e.public.QuickVerify(ctx, qr.Code)
	require.NoError(t, err)
	require.False(t, res.Valid)
}

func TestSupplyChainHistoryThroughCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b, _ := e.shippedBatch(t)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)

	records, err := e.public.GetSupplyChainHistory(ctx, qr.Code)
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, "CREATED", records[0].Action)
	require.Equal(t, "SHIPPED", records[3].Action)
}

func TestVerificationStatsDayBucket(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.createBatch(t)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := e.verifier.VerifyProduct(ctx, qr.Code)
		require.NoError(t, err)
	}

	stats, err := e.public.GetVerificationStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.DayCount)
	require.Equal(t, int64(3), stats.TotalVerifications)

	// simulate the bucket rolling over to yesterday
	stats.DayIndex--
	require.NoError(t, e.statsRepo.Update(ctx, nil, stats))

	_, err = e.verifier.VerifyProduct(ctx, qr.Code)
	require.NoError(t, err)

	stats, err = e.public.GetVerificationStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.DayCount)
	require.Equal(t, int64(4), stats.TotalVerifications)
}

// Only a counted scan moves the counters; the consumer read paths are
// pure.
func TestPureReadsDoNotCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b, _ := e.shippedBatch(t)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)

	_, err = e.public.QuickVerify(ctx, qr.Code)
	require.NoError(t, err)
	_, err = e.public.GetConsumerSummary(ctx, qr.Code)
	require.NoError(t, err)
	_, err = e.public.GetSupplyChainHistory(ctx, qr.Code)
	require.NoError(t, err)

	stats, err := e.public.GetVerificationStats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.TotalVerifications)
	require.Zero(t, stats.DayCount)

	reloaded, err := e.verifier.GetQRCode(ctx, qr.Code)
	require.NoError(t, err)
	require.Zero(t, reloaded.ScanCount)

	_, err = e.verifier.VerifyProduct(ctx, qr.Code)
	require.NoError(t, err)
	stats, err = e.public.GetVerificationStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalVerifications)
}

func TestRegistryCounters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b, _ := e.shippedBatch(t)

	qr, err := e.verifier.GenerateQRCode(ctx, farmerAddr, b.ID)
	require.NoError(t, err)
	_, err = e.verifier.VerifyProduct(ctx, qr.Code)
	require.NoError(t, err)

	stats, err := e.registry.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalBatches)
	require.Equal(t, int64(1), stats.TotalTrades)
	require.Equal(t, int64(1), stats.TotalShipments)
	require.Equal(t, int64(1), stats.TotalVerifications)
}
