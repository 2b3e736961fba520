package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleFarmer      Role = "farmer"
	RoleProcessor   Role = "processor"
	RoleDistributor Role = "distributor"
	RoleShipper     Role = "shipper"
	RoleRetailer    Role = "retailer"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleProcessor, RoleDistributor, RoleShipper, RoleRetailer, RoleAdmin:
		return true
	}
	return false
}

// BuyerRoles are eligible to create buy offers and to accept sell offers.
var BuyerRoles = []Role{RoleProcessor, RoleDistributor, RoleRetailer}

func IsBuyerRole(r Role) bool {
	for _, b := range BuyerRoles {
		if r == b {
			return true
		}
	}
	return false
}

// NormalizeAddress canonicalizes ledger addresses so equality checks and
// primary keys never depend on caller-supplied casing.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Stakeholder is a registered, role-bearing participant. Rows are never
// deleted; deactivation flips Active. Role changes only through the
// dedicated admin reassignment operation.
type Stakeholder struct {
	Address      string    `gorm:"column:address;primaryKey" json:"address"`
	Role         Role      `gorm:"column:role;not null;index" json:"role"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Location     string    `gorm:"column:location" json:"location,omitempty"`
	Contact      string    `gorm:"column:contact" json:"contact,omitempty"`
	Active       bool      `gorm:"column:active;not null" json:"active"`
	RegisteredAt time.Time `gorm:"column:registered_at;not null" json:"registered_at"`
	LastActiveAt time.Time `gorm:"column:last_active_at;not null" json:"last_active_at"`
}

func (Stakeholder) TableName() string { return "stakeholder" }
