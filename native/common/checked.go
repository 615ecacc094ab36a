package common

import (
	"errors"
	"math"
	"math/big"
)

// ErrOverflow is returned when a checked arithmetic operation would leave the
// representable range. Governance and treasury translate it into their tagged
// Overflow code; access control returns it as-is. It is never silently
// wrapped.
var ErrOverflow = errors.New("checked arithmetic overflow")

var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// AddUint64 returns a+b or ErrOverflow.
func AddUint64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// AddUint32 returns a+b or ErrOverflow.
func AddUint32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// WithinI128 reports whether v fits the host's signed 128-bit amount type.
func WithinI128(v *big.Int) bool {
	if v == nil {
		return false
	}
	return v.Cmp(minI128) >= 0 && v.Cmp(maxI128) <= 0
}

// AddI128 returns a+b constrained to the i128 range.
func AddI128(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if !WithinI128(sum) {
		return nil, ErrOverflow
	}
	return sum, nil
}

// SubI128 returns a-b constrained to the i128 range.
func SubI128(a, b *big.Int) (*big.Int, error) {
	diff := new(big.Int).Sub(a, b)
	if !WithinI128(diff) {
		return nil, ErrOverflow
	}
	return diff, nil
}
