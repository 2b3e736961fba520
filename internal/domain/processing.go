package domain

import "time"

// ProcessingRecord is a write-once snapshot of one processing event. The
// input/output quantities here are the only record of yield loss; the
// batch itself keeps just the output quantity.
type ProcessingRecord struct {
	ID             uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BatchID        uint64          `gorm:"column:batch_id;not null;index" json:"batch_id"`
	Processor      string          `gorm:"column:processor;not null" json:"processor"`
	Method         string          `gorm:"column:method;not null" json:"method"`
	InputQuantity  int64           `gorm:"column:input_quantity;not null" json:"input_quantity"`
	OutputQuantity int64           `gorm:"column:output_quantity;not null" json:"output_quantity"`
	Notes          string          `gorm:"column:notes" json:"notes,omitempty"`
	Weather        WeatherSnapshot `gorm:"embedded;embeddedPrefix:weather_" json:"weather"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null" json:"created_at"`
}

func (ProcessingRecord) TableName() string { return "processing_record" }

// QualityRecord is a write-once snapshot of one quality inspection.
// Passed is informational only: it never blocks the batch lifecycle.
type QualityRecord struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BatchID   uint64          `gorm:"column:batch_id;not null;index" json:"batch_id"`
	Inspector string          `gorm:"column:inspector;not null" json:"inspector"`
	Purity    int64           `gorm:"column:purity;not null" json:"purity"`
	Moisture  int64           `gorm:"column:moisture;not null" json:"moisture"`
	Passed    bool            `gorm:"column:passed;not null" json:"passed"`
	Notes     string          `gorm:"column:notes" json:"notes,omitempty"`
	Weather   WeatherSnapshot `gorm:"embedded;embeddedPrefix:weather_" json:"weather"`
	CreatedAt time.Time       `gorm:"column:created_at;not null" json:"created_at"`
}

func (QualityRecord) TableName() string { return "quality_record" }
