package domain

import "time"

type ShipmentStatus string

const (
	ShipmentCreated   ShipmentStatus = "created"
	ShipmentPickedUp  ShipmentStatus = "picked_up"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentConfirmed ShipmentStatus = "confirmed"
)

// Shipment ties physical custody of a batch to an accepted offer. The
// tracking id is globally unique and immutable once assigned.
type Shipment struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BatchID      uint64         `gorm:"column:batch_id;not null;index" json:"batch_id"`
	OfferID      uint64         `gorm:"column:offer_id;not null" json:"offer_id"`
	Sender       string         `gorm:"column:sender;not null;index" json:"sender"`
	Receiver     string         `gorm:"column:receiver;not null;index" json:"receiver"`
	Shipper      string         `gorm:"column:shipper;not null;index" json:"shipper"`
	TrackingID   string         `gorm:"column:tracking_id;not null;uniqueIndex" json:"tracking_id"`
	FromLocation string         `gorm:"column:from_location;not null" json:"from_location"`
	ToLocation   string         `gorm:"column:to_location;not null" json:"to_location"`
	Status       ShipmentStatus `gorm:"column:status;not null;index" json:"status"`
	CreatedAt    time.Time      `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Shipment) TableName() string { return "shipment" }

// ShipmentCheckpoint is one entry of the append-only tracking log. The
// log is uncapped and is the authoritative history returned publicly.
type ShipmentCheckpoint struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ShipmentID uint64    `gorm:"column:shipment_id;not null;index" json:"shipment_id"`
	Location   string    `gorm:"column:location;not null" json:"location"`
	Note       string    `gorm:"column:note" json:"note,omitempty"`
	Timestamp  time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
}

func (ShipmentCheckpoint) TableName() string { return "shipment_checkpoint" }
