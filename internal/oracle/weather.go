package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/hashing"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// WeatherFeed reflects the off-chain weather feeder. Readings are scaled
// by 100 for integer-only storage. When no feed is configured at all, the
// ledger short-circuits every weather-dependent check to "suitable", so
// callers must consult Configured() before trusting Current.
type WeatherFeed interface {
	Current(ctx context.Context, location string) (domain.WeatherSnapshot, error)
	Configured() bool
}

type unconfiguredFeed struct{}

func (unconfiguredFeed) Current(context.Context, string) (domain.WeatherSnapshot, error) {
	return domain.WeatherSnapshot{}, fmt.Errorf("no weather feed configured")
}

func (unconfiguredFeed) Configured() bool { return false }

func NewUnconfiguredWeatherFeed() WeatherFeed { return unconfiguredFeed{} }

// syntheticFeed produces deterministic mock readings when a feed is
// enabled but no provider credential is set, mirroring the feeder's
// fallback behavior. Values derive from the location so repeated reads
// for one origin stay stable within an hour bucket.
type syntheticFeed struct {
	log *logger.Logger
	now func() time.Time
}

func NewSyntheticWeatherFeed(baseLog *logger.Logger) WeatherFeed {
	return &syntheticFeed{log: baseLog.With("service", "SyntheticWeatherFeed"), now: time.Now}
}

func (f *syntheticFeed) Current(_ context.Context, location string) (domain.WeatherSnapshot, error) {
	now := f.now().UTC()
	seed := hashing.Keccak([]byte(location), hashing.Int64Bytes(now.Unix()/3600))
	// keep readings in plausible agronomic ranges
	temp := 1500 + int64(seed[0])%2000     // 15.00 .. 34.99 C
	humidity := 3000 + int64(seed[1])%5000 // 30.00 .. 79.99 %
	rainfall := int64(seed[2]) % 1200      // 0 .. 11.99 mm
	wind := int64(seed[3]) % 3000          // 0 .. 29.99 km/h
	return domain.WeatherSnapshot{
		Temperature: temp,
		Humidity:    humidity,
		Rainfall:    rainfall,
		WindSpeed:   wind,
		Timestamp:   now.Unix(),
	}, nil
}

func (f *syntheticFeed) Configured() bool { return true }

// httpFeed polls a third-party weather provider and rescales its float
// readings by 100.
type httpFeed struct {
	log     *logger.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPWeatherFeed(baseURL, apiKey string, baseLog *logger.Logger) WeatherFeed {
	return &httpFeed{
		log:     baseLog.With("service", "HTTPWeatherFeed"),
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (f *httpFeed) Configured() bool { return true }

func (f *httpFeed) Current(ctx context.Context, location string) (domain.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", f.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.WeatherSnapshot{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather provider: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather provider status %d", resp.StatusCode)
	}

	var payload struct {
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Rain struct {
			OneHour float64 `json:"1h"`
		} `json:"rain"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("decode weather payload: %w", err)
	}

	return domain.WeatherSnapshot{
		Temperature: int64(payload.Main.Temp * 100),
		Humidity:    int64(payload.Main.Humidity * 100),
		Rainfall:    int64(payload.Rain.OneHour * 100),
		WindSpeed:   int64(payload.Wind.Speed * 100),
		Timestamp:   time.Now().UTC().Unix(),
	}, nil
}
