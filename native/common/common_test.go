package common

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"stellarguard/crypto"
)

func addr(seed byte) crypto.Address {
	raw := make([]byte, crypto.AddressLen)
	for i := range raw {
		raw[i] = seed
	}
	return crypto.MustNewAddress(raw)
}

func TestCheckedAdds(t *testing.T) {
	if got, err := AddUint64(math.MaxUint64-1, 1); err != nil || got != math.MaxUint64 {
		t.Fatalf("AddUint64 boundary = (%d, %v)", got, err)
	}
	if _, err := AddUint64(math.MaxUint64, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("AddUint64 overflow: got %v", err)
	}
	if got, err := AddUint32(1, 2); err != nil || got != 3 {
		t.Fatalf("AddUint32 = (%d, %v)", got, err)
	}
	if _, err := AddUint32(math.MaxUint32, 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("AddUint32 overflow: got %v", err)
	}
}

func TestI128Bounds(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	if !WithinI128(max) {
		t.Fatalf("i128 max rejected")
	}
	if WithinI128(new(big.Int).Add(max, big.NewInt(1))) {
		t.Fatalf("i128 max + 1 accepted")
	}
	if WithinI128(nil) {
		t.Fatalf("nil accepted")
	}

	if _, err := AddI128(max, big.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("AddI128 overflow: got %v", err)
	}
	sum, err := AddI128(big.NewInt(40), big.NewInt(2))
	if err != nil || sum.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("AddI128 = (%v, %v)", sum, err)
	}
	diff, err := SubI128(big.NewInt(40), big.NewInt(2))
	if err != nil || diff.Cmp(big.NewInt(38)) != 0 {
		t.Fatalf("SubI128 = (%v, %v)", diff, err)
	}
	min := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	if _, err := SubI128(min, big.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("SubI128 underflow: got %v", err)
	}
}

func TestOrderedAddressSet(t *testing.T) {
	a, b, c := addr(1), addr(2), addr(3)

	set, changed := AppendAddress(nil, a)
	if !changed || len(set) != 1 {
		t.Fatalf("append to empty = (%v, %d)", changed, len(set))
	}
	set, _ = AppendAddress(set, b)
	set, _ = AppendAddress(set, c)
	if set, changed = AppendAddress(set, b); changed || len(set) != 3 {
		t.Fatalf("duplicate append = (%v, %d)", changed, len(set))
	}
	if !ContainsAddress(set, b) || ContainsAddress(set, addr(9)) {
		t.Fatalf("contains broken")
	}

	set, changed = RemoveAddress(set, b)
	if !changed || len(set) != 2 {
		t.Fatalf("remove = (%v, %d)", changed, len(set))
	}
	// Removal preserves the relative order of survivors.
	if set[0] != a || set[1] != c {
		t.Fatalf("order not preserved: %v", set)
	}
	if _, changed = RemoveAddress(set, b); changed {
		t.Fatalf("removing absent element reported change")
	}
}
