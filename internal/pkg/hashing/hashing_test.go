package hashing

import (
	"strings"
	"testing"
)

func TestKeccakKnownVector(t *testing.T) {
	// keccak256("") from the EVM world, distinct from SHA3-256("").
	got := Keccak(nil).Hex()
	want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got != want {
		t.Fatalf("keccak256(\"\") = %s, want %s", got, want)
	}
}

func TestHexRoundTrip(t *testing.T) {
	h := Keccak([]byte("batch"))
	parsed, err := FromHex(h.Hex())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if parsed != h {
		t.Fatalf("round trip mismatch: %s vs %s", parsed.Hex(), h.Hex())
	}
	if !strings.HasPrefix(h.Hex(), "0x") || len(h.Hex()) != 66 {
		t.Fatalf("unexpected hex form %q", h.Hex())
	}
}

func TestFromHexRejectsBadInput(t *testing.T) {
	if _, err := FromHex("0x1234"); err == nil {
		t.Fatal("short hash accepted")
	}
	if _, err := FromHex("zz"); err == nil {
		t.Fatal("non-hex accepted")
	}
}

func TestRecordContentSensitivity(t *testing.T) {
	base := RecordContent(1, "0xfarmer", "CREATED", "Narok", 1700000000, "ipfs://meta", Zero)
	cases := map[string]Hash{
		"batch":    RecordContent(2, "0xfarmer", "CREATED", "Narok", 1700000000, "ipfs://meta", Zero),
		"actor":    RecordContent(1, "0xother", "CREATED", "Narok", 1700000000, "ipfs://meta", Zero),
		"action":   RecordContent(1, "0xfarmer", "LISTED", "Narok", 1700000000, "ipfs://meta", Zero),
		"time":     RecordContent(1, "0xfarmer", "CREATED", "Narok", 1700000001, "ipfs://meta", Zero),
		"previous": RecordContent(1, "0xfarmer", "CREATED", "Narok", 1700000000, "ipfs://meta", Keccak([]byte("x"))),
	}
	for name, h := range cases {
		if h == base {
			t.Fatalf("changing %s did not change the content hash", name)
		}
	}
	if again := RecordContent(1, "0xfarmer", "CREATED", "Narok", 1700000000, "ipfs://meta", Zero); again != base {
		t.Fatal("content hash is not deterministic")
	}
}

func TestZeroSentinel(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatal("Zero sentinel is not zero")
	}
	if Keccak([]byte("a")).IsZero() {
		t.Fatal("real hash reported as zero")
	}
}
