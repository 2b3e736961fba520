package oracle

import (
	"context"

	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// PriceFeed converts a local-currency amount through a configured feed.
// An unconfigured feed is NOT an error: conversion is the identity
// function, and no implicit default exchange rate ever applies.
type PriceFeed interface {
	Convert(ctx context.Context, amount int64, feedRef string) (int64, error)
	Configured() bool
}

type identityFeed struct{}

func (identityFeed) Convert(_ context.Context, amount int64, _ string) (int64, error) {
	return amount, nil
}

func (identityFeed) Configured() bool { return false }

// NewIdentityPriceFeed is the fallback when no price feed is configured.
func NewIdentityPriceFeed() PriceFeed { return identityFeed{} }

// fixedRateFeed converts using per-feed rates expressed in basis points
// (10000 = 1.0). Unknown feed refs fall back to identity.
type fixedRateFeed struct {
	log   *logger.Logger
	rates map[string]int64
}

func NewFixedRatePriceFeed(rates map[string]int64, baseLog *logger.Logger) PriceFeed {
	return &fixedRateFeed{log: baseLog.With("service", "PriceFeed"), rates: rates}
}

func (f *fixedRateFeed) Convert(_ context.Context, amount int64, feedRef string) (int64, error) {
	rate, ok := f.rates[feedRef]
	if !ok || rate <= 0 {
		f.log.Debug("No rate for feed, using identity conversion", "feed_ref", feedRef)
		return amount, nil
	}
	return amount * rate / 10000, nil
}

func (f *fixedRateFeed) Configured() bool { return len(f.rates) > 0 }
