package merkle

import (
	"bytes"

	"github.com/agritrace/agritrace-backend/internal/pkg/hashing"
)

// The tree uses a carry scheme for odd levels: a leaf (or intermediate
// node) without a sibling is promoted unchanged to the next level. This is
// NOT the common duplicate-odd-leaf scheme and produces a different root;
// both sides of a proof exchange must agree on it.
//
// Pair hashing is canonical: the numerically smaller hash is concatenated
// first. Proof verification relies on this to avoid shipping left/right
// direction bits alongside each sibling.

// PairHash combines two nodes in canonical (smaller-first) order.
func PairHash(a, b hashing.Hash) hashing.Hash {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return hashing.Keccak(a[:], b[:])
	}
	return hashing.Keccak(b[:], a[:])
}

// Root computes the Merkle root over the ordered leaf hashes. An empty
// set yields the zero hash; a single leaf is its own root.
func Root(leaves []hashing.Hash) hashing.Hash {
	if len(leaves) == 0 {
		return hashing.Zero
	}
	level := make([]hashing.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		next := make([]hashing.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, PairHash(level[i], level[i+1]))
			} else {
				// odd node carries up unchanged
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}

// Proof is a sibling path from a leaf to the root. Levels where the
// walked node had no sibling hold the zero hash; Verify skips those slots
// rather than hashing against padding.
type Proof []hashing.Hash

// GenerateProof builds the sibling path for the leaf at index, walking
// the same pairwise reduction Root performs.
func GenerateProof(leaves []hashing.Hash, index int) (Proof, bool) {
	if index < 0 || index >= len(leaves) {
		return nil, false
	}
	level := make([]hashing.Hash, len(leaves))
	copy(level, leaves)

	var proof Proof
	idx := index
	for len(level) > 1 {
		var sibling hashing.Hash
		if idx%2 == 0 {
			if idx+1 < len(level) {
				sibling = level[idx+1]
			}
			// else: no sibling at this boundary, slot stays zero
		} else {
			sibling = level[idx-1]
		}
		proof = append(proof, sibling)

		next := make([]hashing.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, PairHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
		idx /= 2
	}
	return proof, true
}

// Verify re-hashes leaf against each proof element in canonical order and
// compares the result to root.
func Verify(leaf hashing.Hash, proof Proof, root hashing.Hash) bool {
	current := leaf
	for _, sibling := range proof {
		if sibling.IsZero() {
			// carried level, nothing to combine
			continue
		}
		current = PairHash(current, sibling)
	}
	return current == root
}
