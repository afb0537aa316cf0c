package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the precision of ether (1 ETH = 10^18 wei).
const NativeDecimals uint8 = 18

// ParseAmount parses a human-readable decimal amount such as "0.25".
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

// ToBaseUnits returns floor(amount * 10^decimals).
func ToBaseUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Floor().BigInt()
}

// FromBaseUnits converts an integer number of base units back to a decimal value.
func FromBaseUnits(value *big.Int, decimals uint8) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -int32(decimals))
}

// EtherToWei converts ether to wei, truncating anything below one wei.
func EtherToWei(amount decimal.Decimal) *big.Int {
	return ToBaseUnits(amount, NativeDecimals)
}

// WeiToEther converts wei to ether
func WeiToEther(wei *big.Int) decimal.Decimal {
	return FromBaseUnits(wei, NativeDecimals)
}

// FormatUnits renders base units with at most `places` fractional digits.
func FormatUnits(value *big.Int, decimals uint8, places int32) string {
	return FromBaseUnits(value, decimals).Truncate(places).String()
}
