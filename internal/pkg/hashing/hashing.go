package hashing

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Hash is a keccak-256 digest. Keccak (the pre-NIST padding variant) keeps
// record commitments bit-compatible with EVM-style keccak256 over packed
// arguments, so proofs survive reimplementation on either side.
type Hash [32]byte

// Zero is the sentinel previous-hash for the first record of a chain.
var Zero Hash

func (h Hash) IsZero() bool {
	return h == Zero
}

func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	b := make([]byte, 32)
	copy(b, h[:])
	return b
}

func FromHex(s string) (Hash, error) {
	var h Hash
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash hex: %w", err)
	}
	if len(raw) != 32 {
		return h, fmt.Errorf("hash must be 32 bytes, got %d", len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// Keccak hashes the concatenation of parts with legacy keccak-256.
func Keccak(parts ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		d.Write(p)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}

func Uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func Int64Bytes(v int64) []byte {
	return Uint64Bytes(uint64(v))
}

// RecordContent commits to every field of a provenance record, including
// the previous-hash link. Two records with identical tuples therefore
// collide on purpose; the ledger treats that as a replay and rejects it.
func RecordContent(batchID uint64, actor, action, location string, timestamp int64, metadataRef string, previous Hash) Hash {
	return Keccak(
		Uint64Bytes(batchID),
		[]byte(actor),
		[]byte(action),
		[]byte(location),
		Int64Bytes(timestamp),
		[]byte(metadataRef),
		previous[:],
	)
}
