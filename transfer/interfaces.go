package transfer

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the subset of node RPC the engine needs.
type ChainClient interface {
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	// WaitForReceipt blocks until the receipt is available or timeout elapses.
	// A timeout is reported as an error wrapping context.DeadlineExceeded.
	WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error)
}

// TokenContract is an ERC-20 token the engine can read from and encode
// transfers for.
type TokenContract interface {
	Address() common.Address
	Decimals(ctx context.Context) (uint8, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	PackTransfer(to common.Address, amount *big.Int) ([]byte, error)
	PackTransferFrom(from, to common.Address, amount *big.Int) ([]byte, error)
}
