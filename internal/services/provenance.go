package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	provrepo "github.com/agritrace/agritrace-backend/internal/data/repos/provenance"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/pkg/hashing"
	"github.com/agritrace/agritrace-backend/internal/pkg/merkle"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// ProvenanceService maintains the per-batch hash chain and its Merkle
// commitment. Records link through PreviousHash (zero sentinel for the
// first record) and record hashes are globally unique, which doubles as
// replay protection.
type ProvenanceService interface {
	AddRecord(ctx context.Context, caller string, in AppendRecordInput) (*domain.ProvenanceRecord, error)
	FinalizeChain(ctx context.Context, admin string, batchID uint64) error
	GetChainSummary(ctx context.Context, batchID uint64) (*ChainSummary, error)
	GetRecords(ctx context.Context, batchID uint64) ([]*domain.ProvenanceRecord, error)
	GenerateProof(ctx context.Context, batchID uint64, index int) (*MerkleProof, error)
	VerifyProof(leafHex string, proofHex []string, rootHex string) (bool, error)
}

// ProvenanceAppender is the capability handed to sibling services so
// their state transitions append records inside their own transaction.
type ProvenanceAppender interface {
	Append(ctx context.Context, tx *gorm.DB, in AppendRecordInput) (*domain.ProvenanceRecord, error)
}

type AppendRecordInput struct {
	BatchID     uint64 `json:"batch_id"`
	Actor       string `json:"actor"`
	Action      string `json:"action"`
	Location    string `json:"location"`
	MetadataRef string `json:"metadata_ref"`
}

type ChainSummary struct {
	BatchID      uint64 `json:"batch_id"`
	RecordCount  int64  `json:"record_count"`
	MerkleRoot   string `json:"merkle_root"`
	Finalized    bool   `json:"finalized"`
	LastAction   string `json:"last_action,omitempty"`
	LastLocation string `json:"last_location,omitempty"`
	LastActor    string `json:"last_actor,omitempty"`
	LastTime     int64  `json:"last_time,omitempty"`
}

type MerkleProof struct {
	BatchID    uint64   `json:"batch_id"`
	Index      int      `json:"index"`
	LeafHash   string   `json:"leaf_hash"`
	MerkleRoot string   `json:"merkle_root"`
	// Siblings holds one entry per tree level; a zero hash marks a
	// level where the walked node had no sibling (carry levels).
	Siblings []string `json:"siblings"`
}

type provenanceService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  provrepo.ProvenanceRepo
	gate  AccessControlService
	now   func() time.Time
}

func NewProvenanceService(db *gorm.DB, baseLog *logger.Logger, repo provrepo.ProvenanceRepo, gate AccessControlService) (ProvenanceService, ProvenanceAppender) {
	s := &provenanceService{
		db:   db,
		log:  baseLog.With("service", "ProvenanceService"),
		repo: repo,
		gate: gate,
		now:  time.Now,
	}
	return s, s
}

func (s *provenanceService) AddRecord(ctx context.Context, caller string, in AppendRecordInput) (*domain.ProvenanceRecord, error) {
	var rec *domain.ProvenanceRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.gate.RequireActive(ctx, tx, caller); err != nil {
			return err
		}
		in.Actor = domain.NormalizeAddress(caller)
		var err error
		rec, err = s.Append(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Append performs the whole chain step: finalization guard, previous-hash
// link, content hash, cross-batch dedup, insert, root recompute.
func (s *provenanceService) Append(ctx context.Context, tx *gorm.DB, in AppendRecordInput) (*domain.ProvenanceRecord, error) {
	if in.BatchID == 0 {
		return nil, apperr.Validationf("batch id 0 cannot carry provenance")
	}
	if in.Action == "" {
		return nil, apperr.Validationf("provenance action must not be empty")
	}

	chain, err := s.repo.GetChain(ctx, tx, in.BatchID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if chain == nil {
		chain = &domain.ProvenanceChain{
			BatchID:    in.BatchID,
			MerkleRoot: hashing.Zero.Hex(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.CreateChain(ctx, tx, chain); err != nil {
			return nil, err
		}
	}
	if chain.Finalized {
		return nil, apperr.InvalidStatef("provenance chain for batch %d is finalized", in.BatchID)
	}

	previous := hashing.Zero
	last, err := s.repo.GetLastRecord(ctx, tx, in.BatchID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		previous, err = hashing.FromHex(last.RecordHash)
		if err != nil {
			return nil, err
		}
	}

	actor := domain.NormalizeAddress(in.Actor)
	ts := now.Unix()
	contentHash := hashing.RecordContent(in.BatchID, actor, in.Action, in.Location, ts, in.MetadataRef, previous)

	exists, err := s.repo.RecordHashExists(ctx, tx, contentHash.Hex())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Validationf("duplicate provenance record %s", contentHash.Hex())
	}

	rec := &domain.ProvenanceRecord{
		BatchID:      in.BatchID,
		Seq:          chain.RecordCount,
		Actor:        actor,
		Action:       in.Action,
		Location:     in.Location,
		Timestamp:    ts,
		MetadataRef:  in.MetadataRef,
		PreviousHash: previous.Hex(),
		RecordHash:   contentHash.Hex(),
		CreatedAt:    now,
	}
	if err := s.repo.CreateRecord(ctx, tx, rec); err != nil {
		return nil, err
	}

	leaves, err := s.leafHashes(ctx, tx, in.BatchID)
	if err != nil {
		return nil, err
	}
	chain.RecordCount++
	chain.MerkleRoot = merkle.Root(leaves).Hex()
	chain.UpdatedAt = now
	if err := s.repo.UpdateChain(ctx, tx, chain); err != nil {
		return nil, err
	}

	s.log.Debug("Provenance record appended",
		"batch_id", in.BatchID, "seq", rec.Seq, "action", in.Action, "hash", rec.RecordHash)
	return rec, nil
}

func (s *provenanceService) leafHashes(ctx context.Context, tx *gorm.DB, batchID uint64) ([]hashing.Hash, error) {
	records, err := s.repo.GetRecords(ctx, tx, batchID)
	if err != nil {
		return nil, err
	}
	leaves := make([]hashing.Hash, 0, len(records))
	for _, rec := range records {
		h, err := hashing.FromHex(rec.RecordHash)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, h)
	}
	return leaves, nil
}

// FinalizeChain is one-way; there is no un-finalize operation.
func (s *provenanceService) FinalizeChain(ctx context.Context, admin string, batchID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.gate.RequireActiveRole(ctx, tx, admin, domain.RoleAdmin); err != nil {
			return err
		}
		chain, err := s.repo.GetChain(ctx, tx, batchID)
		if err != nil {
			return err
		}
		if chain == nil {
			return apperr.NotFoundf("provenance chain for batch %d", batchID)
		}
		if chain.Finalized {
			return apperr.InvalidStatef("provenance chain for batch %d already finalized", batchID)
		}
		if chain.RecordCount == 0 {
			return apperr.InvalidStatef("cannot finalize empty chain for batch %d", batchID)
		}
		chain.Finalized = true
		chain.UpdatedAt = s.now().UTC()
		return s.repo.UpdateChain(ctx, tx, chain)
	})
}

func (s *provenanceService) GetChainSummary(ctx context.Context, batchID uint64) (*ChainSummary, error) {
	chain, err := s.repo.GetChain(ctx, nil, batchID)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, apperr.NotFoundf("provenance chain for batch %d", batchID)
	}
	summary := &ChainSummary{
		BatchID:     chain.BatchID,
		RecordCount: chain.RecordCount,
		MerkleRoot:  chain.MerkleRoot,
		Finalized:   chain.Finalized,
	}
	last, err := s.repo.GetLastRecord(ctx, nil, batchID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		summary.LastAction = last.Action
		summary.LastLocation = last.Location
		summary.LastActor = last.Actor
		summary.LastTime = last.Timestamp
	}
	return summary, nil
}

func (s *provenanceService) GetRecords(ctx context.Context, batchID uint64) ([]*domain.ProvenanceRecord, error) {
	records, err := s.repo.GetRecords(ctx, nil, batchID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.NotFoundf("no provenance records for batch %d", batchID)
	}
	return records, nil
}

func (s *provenanceService) GenerateProof(ctx context.Context, batchID uint64, index int) (*MerkleProof, error) {
	chain, err := s.repo.GetChain(ctx, nil, batchID)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, apperr.NotFoundf("provenance chain for batch %d", batchID)
	}
	leaves, err := s.leafHashes(ctx, nil, batchID)
	if err != nil {
		return nil, err
	}
	proof, ok := merkle.GenerateProof(leaves, index)
	if !ok {
		return nil, apperr.Validationf("record index %d out of range for batch %d", index, batchID)
	}
	siblings := make([]string, len(proof))
	for i, h := range proof {
		siblings[i] = h.Hex()
	}
	return &MerkleProof{
		BatchID:    batchID,
		Index:      index,
		LeafHash:   leaves[index].Hex(),
		MerkleRoot: merkle.Root(leaves).Hex(),
		Siblings:   siblings,
	}, nil
}

func (s *provenanceService) VerifyProof(leafHex string, proofHex []string, rootHex string) (bool, error) {
	leaf, err := hashing.FromHex(leafHex)
	if err != nil {
		return false, apperr.Validationf("bad leaf hash: %v", err)
	}
	root, err := hashing.FromHex(rootHex)
	if err != nil {
		return false, apperr.Validationf("bad root hash: %v", err)
	}
	proof := make(merkle.Proof, 0, len(proofHex))
	for _, p := range proofHex {
		h, err := hashing.FromHex(p)
		if err != nil {
			return false, apperr.Validationf("bad proof element: %v", err)
		}
		proof = append(proof, h)
	}
	return merkle.Verify(leaf, proof, root), nil
}
