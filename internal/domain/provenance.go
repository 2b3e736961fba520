package domain

import "time"

// ProvenanceChain is the per-batch aggregate header: record count, the
// Merkle root over all record hashes, and the one-way finalized flag.
type ProvenanceChain struct {
	BatchID     uint64    `gorm:"column:batch_id;primaryKey" json:"batch_id"`
	RecordCount int64     `gorm:"column:record_count;not null" json:"record_count"`
	MerkleRoot  string    `gorm:"column:merkle_root;not null" json:"merkle_root"`
	Finalized   bool      `gorm:"column:finalized;not null" json:"finalized"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (ProvenanceChain) TableName() string { return "provenance_chain" }

// ProvenanceRecord is one immutable hash-linked entry. RecordHash commits
// to all other fields including PreviousHash, and is unique across ALL
// batches: a cross-batch content collision is rejected as a replay.
type ProvenanceRecord struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	BatchID      uint64    `gorm:"column:batch_id;not null;uniqueIndex:idx_provenance_batch_seq,priority:1" json:"batch_id"`
	Seq          int64     `gorm:"column:seq;not null;uniqueIndex:idx_provenance_batch_seq,priority:2" json:"seq"`
	Actor        string    `gorm:"column:actor;not null" json:"actor"`
	Action       string    `gorm:"column:action;not null" json:"action"`
	Location     string    `gorm:"column:location" json:"location,omitempty"`
	Timestamp    int64     `gorm:"column:timestamp;not null" json:"timestamp"`
	MetadataRef  string    `gorm:"column:metadata_ref" json:"metadata_ref,omitempty"`
	PreviousHash string    `gorm:"column:previous_hash;not null" json:"previous_hash"`
	RecordHash   string    `gorm:"column:record_hash;not null;uniqueIndex" json:"record_hash"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (ProvenanceRecord) TableName() string { return "provenance_record" }
