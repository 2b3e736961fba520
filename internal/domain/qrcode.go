package domain

import "time"

// QRCode binds an opaque scannable code string to a batch. A batch can
// accumulate codes through repeated generation; the newest active row is
// the canonical one (last-write-wins).
type QRCode struct {
	Code             string    `gorm:"column:code;primaryKey" json:"code"`
	BatchID          uint64    `gorm:"column:batch_id;not null;index" json:"batch_id"`
	VerificationHash string    `gorm:"column:verification_hash;not null" json:"verification_hash"`
	ProductName      string    `gorm:"column:product_name" json:"product_name,omitempty"`
	FarmerName       string    `gorm:"column:farmer_name" json:"farmer_name,omitempty"`
	Origin           string    `gorm:"column:origin" json:"origin,omitempty"`
	Active           bool      `gorm:"column:active;not null" json:"active"`
	ScanCount        int64     `gorm:"column:scan_count;not null" json:"scan_count"`
	CreatedAt        time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (QRCode) TableName() string { return "qr_code" }

// VerificationStats is pure observability state: a day-bucketed call
// counter plus a monotonic total. Never consulted for access control.
type VerificationStats struct {
	ID                 uint64    `gorm:"column:id;primaryKey" json:"id"`
	DayIndex           int64     `gorm:"column:day_index;not null" json:"day_index"`
	DayCount           int64     `gorm:"column:day_count;not null" json:"day_count"`
	TotalVerifications int64     `gorm:"column:total_verifications;not null" json:"total_verifications"`
	UpdatedAt          time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (VerificationStats) TableName() string { return "verification_stats" }
