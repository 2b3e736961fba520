package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
)

func SeedStakeholder(tb testing.TB, ctx context.Context, tx *gorm.DB, address string, role domain.Role) *domain.Stakeholder {
	tb.Helper()
	now := time.Now().UTC()
	s := &domain.Stakeholder{
		Address:      domain.NormalizeAddress(address),
		Role:         role,
		Name:         string(role) + " " + address,
		Location:     "Narok",
		Active:       true,
		RegisteredAt: now,
		LastActiveAt: now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed stakeholder: %v", err)
	}
	return s
}

func SeedBatch(tb testing.TB, ctx context.Context, tx *gorm.DB, farmer string, quantity, basePrice int64) *domain.Batch {
	tb.Helper()
	now := time.Now().UTC()
	b := &domain.Batch{
		Farmer:         domain.NormalizeAddress(farmer),
		CurrentOwner:   domain.NormalizeAddress(farmer),
		Name:           "Maize",
		Quantity:       quantity,
		BasePrice:      basePrice,
		MarketPrice:    basePrice,
		OriginLocation: "Narok",
		Status:         domain.BatchCreated,
		TradingMode:    domain.TradeSpot,
		Available:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed batch: %v", err)
	}
	return b
}

func SeedOffer(tb testing.TB, ctx context.Context, tx *gorm.DB, creator string, batchID uint64, typ domain.OfferType, ttl time.Duration) *domain.Offer {
	tb.Helper()
	now := time.Now().UTC()
	o := &domain.Offer{
		Creator:   domain.NormalizeAddress(creator),
		BatchID:   batchID,
		Price:     550,
		Quantity:  100,
		Type:      typ,
		Status:    domain.OfferOpen,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed offer: %v", err)
	}
	return o
}
