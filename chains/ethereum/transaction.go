package ethereum

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// NewTransaction creates an unsigned legacy (pre-EIP-1559) transaction
func NewTransaction(nonce uint64, to common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *types.Transaction {
	if value == nil {
		value = new(big.Int)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
}

// ValidateTransaction checks the fields that would make a node reject the
// transaction outright.
func ValidateTransaction(tx *types.Transaction) error {
	if tx.To() == nil {
		return fmt.Errorf("transaction has no recipient")
	}
	if tx.Gas() == 0 {
		return fmt.Errorf("gas limit must be greater than zero")
	}
	if tx.GasPrice() == nil || tx.GasPrice().Sign() < 0 {
		return fmt.Errorf("gas price must not be negative")
	}
	if tx.Value().Sign() < 0 {
		return fmt.Errorf("value must not be negative")
	}
	return nil
}

// SignTransaction signs tx with EIP-155 replay protection and returns the
// signed transaction together with its RLP encoding.
func SignTransaction(tx *types.Transaction, key *ecdsa.PrivateKey, chainID *big.Int) (*types.Transaction, []byte, error) {
	if chainID == nil {
		return nil, nil, fmt.Errorf("chain id is required")
	}

	signer := types.NewEIP155Signer(chainID)
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	return signed, raw, nil
}

// MaxFee is the most the sender can pay in fees: gas * gasPrice.
func MaxFee(gas uint64, gasPrice *big.Int) *big.Int {
	if gasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)
}
