package oracle

import (
	"context"
	"testing"

	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestIdentityPriceFeed(t *testing.T) {
	feed := NewIdentityPriceFeed()
	if feed.Configured() {
		t.Fatal("identity feed reports configured")
	}
	got, err := feed.Convert(context.Background(), 500, "KES-USD")
	if err != nil || got != 500 {
		t.Fatalf("Convert = (%d, %v), want identity", got, err)
	}
}

func TestFixedRatePriceFeed(t *testing.T) {
	feed := NewFixedRatePriceFeed(map[string]int64{"KES-USD": 77}, testLogger(t))
	if !feed.Configured() {
		t.Fatal("fixed rate feed reports unconfigured")
	}
	got, err := feed.Convert(context.Background(), 10000, "KES-USD")
	if err != nil || got != 77 {
		t.Fatalf("Convert = (%d, %v), want 77", got, err)
	}
	// unknown feed ref falls back to identity, never a default rate
	got, err = feed.Convert(context.Background(), 10000, "UNKNOWN")
	if err != nil || got != 10000 {
		t.Fatalf("Convert unknown ref = (%d, %v), want identity", got, err)
	}
}

func TestSyntheticWeatherFeedRanges(t *testing.T) {
	feed := NewSyntheticWeatherFeed(testLogger(t))
	if !feed.Configured() {
		t.Fatal("synthetic feed reports unconfigured")
	}
	snap, err := feed.Current(context.Background(), "Narok")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Temperature < 1500 || snap.Temperature >= 3500 {
		t.Fatalf("temperature out of range: %d", snap.Temperature)
	}
	if snap.Humidity < 3000 || snap.Humidity >= 8000 {
		t.Fatalf("humidity out of range: %d", snap.Humidity)
	}
	if snap.Timestamp == 0 {
		t.Fatal("timestamp not set")
	}

	other, err := feed.Current(context.Background(), "Nairobi")
	if err != nil {
		t.Fatalf("Current other location: %v", err)
	}
	if other.Temperature < 1500 || other.Temperature >= 3500 {
		t.Fatalf("temperature out of range: %d", other.Temperature)
	}
}

func TestUnconfiguredWeatherFeed(t *testing.T) {
	feed := NewUnconfiguredWeatherFeed()
	if feed.Configured() {
		t.Fatal("unconfigured feed reports configured")
	}
	if _, err := feed.Current(context.Background(), "Narok"); err == nil {
		t.Fatal("unconfigured feed returned a reading")
	}
}
