package transfer

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// InvalidKeyError is returned when the private key is not exactly 64 hex
// characters or is not a usable secp256k1 key.
type InvalidKeyError struct {
	Err error
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid private key: %v", e.Err)
}

func (e *InvalidKeyError) Unwrap() error { return e.Err }

// InvalidAddressError is returned for a recipient that is not a checksummed
// address, or a contract address that is not hex.
type InvalidAddressError struct {
	Address string
	Err     error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Address, e.Err)
}

func (e *InvalidAddressError) Unwrap() error { return e.Err }

// InvalidAmountError is returned for negative transfer amounts.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: must not be negative", e.Amount.String())
}

// InsufficientBalanceError reports a transfer amount larger than the balance
// observed at check time. Both values are in base units.
type InsufficientBalanceError struct {
	Required  *big.Int
	Available *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("amount exceeds balance: need %s, have %s", e.Required, e.Available)
}

// ConfirmationTimeoutError means the transaction was broadcast but no receipt
// arrived in time. The transfer may still be mined later.
type ConfirmationTimeoutError struct {
	Hash    common.Hash
	Timeout time.Duration
	Err     error
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed within %s", e.Hash.Hex(), e.Timeout)
}

func (e *ConfirmationTimeoutError) Unwrap() error { return e.Err }
