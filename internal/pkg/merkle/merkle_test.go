package merkle

import (
	"fmt"
	"testing"

	"github.com/agritrace/agritrace-backend/internal/pkg/hashing"
)

func leaves(n int) []hashing.Hash {
	out := make([]hashing.Hash, n)
	for i := range out {
		out[i] = hashing.Keccak([]byte(fmt.Sprintf("leaf-%d", i)))
	}
	return out
}

func TestRootEmptyAndSingle(t *testing.T) {
	if got := Root(nil); !got.IsZero() {
		t.Fatalf("empty root = %s, want zero", got.Hex())
	}
	ls := leaves(1)
	if got := Root(ls); got != ls[0] {
		t.Fatalf("single-leaf root = %s, want the leaf itself", got.Hex())
	}
}

func TestOddLeafCarriesUnchanged(t *testing.T) {
	ls := leaves(3)
	p := PairHash(ls[0], ls[1])
	want := PairHash(p, ls[2])
	if got := Root(ls); got != want {
		t.Fatalf("3-leaf root = %s, want carry scheme root %s", got.Hex(), want.Hex())
	}
	// duplicate-odd-leaf convention must NOT match
	dup := PairHash(p, PairHash(ls[2], ls[2]))
	if got := Root(ls); got == dup {
		t.Fatal("root matches duplicate-odd-leaf scheme; carry scheme expected")
	}
}

func TestProofRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 6, 7, 8, 13} {
		ls := leaves(n)
		root := Root(ls)
		for i := 0; i < n; i++ {
			proof, ok := GenerateProof(ls, i)
			if !ok {
				t.Fatalf("n=%d i=%d: proof generation failed", n, i)
			}
			if !Verify(ls[i], proof, root) {
				t.Fatalf("n=%d i=%d: proof did not verify", n, i)
			}
		}
	}
}

func TestProofRejectsTamperedLeaf(t *testing.T) {
	ls := leaves(7)
	root := Root(ls)
	for i := range ls {
		proof, _ := GenerateProof(ls, i)
		bad := ls[i]
		bad[0] ^= 0xff
		if Verify(bad, proof, root) {
			t.Fatalf("i=%d: tampered leaf verified against old proof", i)
		}
	}
}

func TestProofOutOfRange(t *testing.T) {
	ls := leaves(4)
	if _, ok := GenerateProof(ls, -1); ok {
		t.Fatal("negative index accepted")
	}
	if _, ok := GenerateProof(ls, 4); ok {
		t.Fatal("index past end accepted")
	}
}

func TestPairHashCanonicalOrder(t *testing.T) {
	a := hashing.Keccak([]byte("a"))
	b := hashing.Keccak([]byte("b"))
	if PairHash(a, b) != PairHash(b, a) {
		t.Fatal("pair hash is order dependent")
	}
}
