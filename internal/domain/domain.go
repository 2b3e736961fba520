// Package domain holds the gorm models for the supply-chain ledger. All
// mutation goes through the service layer inside one transaction per
// operation; rows here are never updated outside that path.
package domain

// AllModels lists every table for migration, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Stakeholder{},
		&Batch{},
		&ProcessingRecord{},
		&QualityRecord{},
		&Offer{},
		&Shipment{},
		&ShipmentCheckpoint{},
		&ProvenanceChain{},
		&ProvenanceRecord{},
		&QRCode{},
		&VerificationStats{},
		&RegistryStats{},
	}
}
