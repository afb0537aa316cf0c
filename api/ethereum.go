package api

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultPollInterval is how often WaitForReceipt asks the node for a receipt.
const DefaultPollInterval = 2 * time.Second

// EthereumClient talks JSON-RPC to an EVM node
type EthereumClient struct {
	rpc          *rpc.Client
	eth          *ethclient.Client
	pollInterval time.Duration
}

// ClientOption configures an EthereumClient.
type ClientOption func(*EthereumClient)

// WithPollInterval sets the receipt polling interval.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *EthereumClient) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// Dial connects to an HTTP, WebSocket or IPC endpoint.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*EthereumClient, error) {
	if url == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s: %w", url, err)
	}

	c := &EthereumClient{
		rpc:          rpcClient,
		eth:          ethclient.NewClient(rpcClient),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close closes the underlying RPC connection.
func (c *EthereumClient) Close() {
	c.rpc.Close()
}

// NonceAt returns the account's transaction count at the latest block.
func (c *EthereumClient) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.eth.NonceAt(ctx, account, nil)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	return nonce, nil
}

func (c *EthereumClient) ChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	return chainID, nil
}

func (c *EthereumClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_gasPrice: %w", err)
	}
	return price, nil
}

// BalanceAt returns the native balance in wei at the latest block.
func (c *EthereumClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}
	return balance, nil
}

// CallContract executes a read-only contract call. It lets the client act as
// the caller for ERC20.
func (c *EthereumClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, blockNumber)
}

// SendRawTransaction broadcasts an RLP-encoded signed transaction and returns
// the hash reported by the node.
func (c *EthereumClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendRawTransaction: %w", err)
	}
	return hash, nil
}

// WaitForReceipt polls for the receipt of hash until it is mined or timeout
// elapses.
func (c *EthereumClient) WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	return waitMined(ctx, c.eth.TransactionReceipt, hash, timeout, c.pollInterval)
}

// Receipt fetches the receipt of hash once. A transaction that is unknown or
// not yet mined yields an error matching ethereum.NotFound.
func (c *EthereumClient) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: %w", err)
	}
	return receipt, nil
}

// IsPending reports whether the node knows hash but has not mined it.
func (c *EthereumClient) IsPending(ctx context.Context, hash common.Hash) (bool, error) {
	_, pending, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("eth_getTransactionByHash: %w", err)
	}
	return pending, nil
}

// ParseHash parses a 0x-prefixed 32-byte transaction hash.
func ParseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q: want %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}
