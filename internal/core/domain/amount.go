package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the precision of SOL (1 SOL = 10^9 lamports).
const NativeDecimals uint8 = 9

// ErrInvalidAmount is returned for amount strings that are not positive decimals.
var ErrInvalidAmount = errors.New("invalid amount")

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// ParseAmount parses a positive decimal amount string such as "1.5".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q must be positive", ErrInvalidAmount, s)
	}
	return d, nil
}

// ToBaseUnits converts a UI amount to integer base units, rounding toward zero.
// Amounts that floor to zero or overflow uint64 are rejected.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	units := amount.Shift(int32(decimals)).Floor().BigInt()
	if units.Sign() <= 0 {
		return 0, fmt.Errorf("%w: %s is below the smallest unit at %d decimals", ErrInvalidAmount, amount, decimals)
	}
	if units.Cmp(maxUint64) > 0 {
		return 0, fmt.Errorf("%w: %s overflows base units at %d decimals", ErrInvalidAmount, amount, decimals)
	}
	return units.Uint64(), nil
}

// FromBaseUnits converts integer base units back to a UI amount.
func FromBaseUnits(units uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
}
