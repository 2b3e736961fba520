package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type BatchStatus string

const (
	BatchCreated        BatchStatus = "CREATED"
	BatchListed         BatchStatus = "LISTED"
	BatchOffered        BatchStatus = "OFFERED"
	BatchSold           BatchStatus = "SOLD"
	BatchShipped        BatchStatus = "SHIPPED"
	BatchReceived       BatchStatus = "RECEIVED"
	BatchProcessed      BatchStatus = "PROCESSED"
	BatchQualityChecked BatchStatus = "QUALITY_CHECKED"
	BatchFinalized      BatchStatus = "FINALIZED"
)

type TradingMode string

const (
	TradeSpot     TradingMode = "spot"
	TradeContract TradingMode = "contract"
	TradeAuction  TradingMode = "auction"
)

func (m TradingMode) Valid() bool {
	switch m {
	case TradeSpot, TradeContract, TradeAuction:
		return true
	}
	return false
}

// WeatherSnapshot stores oracle readings as integers scaled by 100
// (2534 = 25.34 °C), matching the feeder's integer-only rescaling.
type WeatherSnapshot struct {
	Temperature int64 `gorm:"column:temperature" json:"temperature"`
	Humidity    int64 `gorm:"column:humidity" json:"humidity"`
	Rainfall    int64 `gorm:"column:rainfall" json:"rainfall"`
	WindSpeed   int64 `gorm:"column:wind_speed" json:"wind_speed"`
	Timestamp   int64 `gorm:"column:timestamp" json:"timestamp"`
}

// Batch is the unit of product tracked from creation through sale and
// processing. IDs are 1-based and monotonic; 0 means "does not exist"
// everywhere a batch id travels.
type Batch struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Farmer       string `gorm:"column:farmer;not null;index" json:"farmer"`
	CurrentOwner string `gorm:"column:current_owner;not null;index" json:"current_owner"`

	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description" json:"description,omitempty"`
	Quantity    int64  `gorm:"column:quantity;not null" json:"quantity"`

	BasePrice    int64  `gorm:"column:base_price;not null" json:"base_price"`
	MarketPrice  int64  `gorm:"column:market_price;not null" json:"market_price"`
	PriceFeedRef string `gorm:"column:price_feed_ref" json:"price_feed_ref,omitempty"`

	OriginLocation string `gorm:"column:origin_location;not null" json:"origin_location"`
	MetadataRef    string `gorm:"column:metadata_ref" json:"metadata_ref,omitempty"`

	Status      BatchStatus `gorm:"column:status;not null;index" json:"status"`
	TradingMode TradingMode `gorm:"column:trading_mode;not null;index" json:"trading_mode"`
	Available   bool        `gorm:"column:available;not null" json:"available"`

	RequiresWeather bool            `gorm:"column:requires_weather;not null" json:"requires_weather"`
	WeatherCaptured bool            `gorm:"column:weather_captured;not null" json:"weather_captured"`
	Weather         WeatherSnapshot `gorm:"embedded;embeddedPrefix:weather_" json:"weather"`

	AuthorizedBuyers datatypes.JSON `gorm:"column:authorized_buyers" json:"authorized_buyers,omitempty"`
	OfferIDs         datatypes.JSON `gorm:"column:offer_ids" json:"offer_ids,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Batch) TableName() string { return "batch" }

func (b *Batch) AuthorizedBuyerList() []string {
	return decodeStringList(b.AuthorizedBuyers)
}

func (b *Batch) SetAuthorizedBuyers(addrs []string) {
	b.AuthorizedBuyers = encodeList(addrs)
}

func (b *Batch) OfferIDList() []uint64 {
	var out []uint64
	if len(b.OfferIDs) == 0 {
		return out
	}
	_ = json.Unmarshal(b.OfferIDs, &out)
	return out
}

func (b *Batch) AppendOfferID(id uint64) {
	b.OfferIDs = encodeList(append(b.OfferIDList(), id))
}

func decodeStringList(raw datatypes.JSON) []string {
	var out []string
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func encodeList(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}
