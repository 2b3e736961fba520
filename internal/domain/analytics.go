package domain

import "time"

// RegistryStats backs the cross-cutting analytics index. One row, global.
type RegistryStats struct {
	ID                 uint64    `gorm:"column:id;primaryKey" json:"id"`
	TotalBatches       int64     `gorm:"column:total_batches;not null" json:"total_batches"`
	TotalTrades        int64     `gorm:"column:total_trades;not null" json:"total_trades"`
	TotalShipments     int64     `gorm:"column:total_shipments;not null" json:"total_shipments"`
	TotalVerifications int64     `gorm:"column:total_verifications;not null" json:"total_verifications"`
	UpdatedAt          time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (RegistryStats) TableName() string { return "registry_stats" }
