package domain

import "time"

type OfferType string

const (
	OfferBuy      OfferType = "buy"
	OfferSell     OfferType = "sell"
	OfferContract OfferType = "contract"
)

func (t OfferType) Valid() bool {
	switch t {
	case OfferBuy, OfferSell, OfferContract:
		return true
	}
	return false
}

type OfferStatus string

const (
	OfferOpen      OfferStatus = "open"
	OfferAccepted  OfferStatus = "accepted"
	OfferCancelled OfferStatus = "cancelled"
)

// Offer is a proposed trade. Expiry is never written back to the row:
// an offer past ExpiresAt stays "open" in storage and is filtered out at
// read time and rejected at accept time.
type Offer struct {
	ID           uint64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Creator      string      `gorm:"column:creator;not null;index" json:"creator"`
	Counterparty string      `gorm:"column:counterparty;index" json:"counterparty,omitempty"`
	BatchID      uint64      `gorm:"column:batch_id;not null;index" json:"batch_id"`
	Price        int64       `gorm:"column:price;not null" json:"price"`
	Quantity     int64       `gorm:"column:quantity;not null" json:"quantity"`
	Type         OfferType   `gorm:"column:type;not null;index" json:"type"`
	Status       OfferStatus `gorm:"column:status;not null;index" json:"status"`
	TermsRef     string      `gorm:"column:terms_ref" json:"terms_ref,omitempty"`
	CreatedAt    time.Time   `gorm:"column:created_at;not null" json:"created_at"`
	ExpiresAt    time.Time   `gorm:"column:expires_at;not null" json:"expires_at"`
	Acceptor     string      `gorm:"column:acceptor" json:"acceptor,omitempty"`
	AcceptedAt   *time.Time  `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
}

func (Offer) TableName() string { return "offer" }

// ExpiredAt reports read-time expiry against the ledger clock.
func (o *Offer) ExpiredAt(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
