// Package transfer builds, signs and submits a single native-coin or ERC-20
// transfer and waits for its receipt.
package transfer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chinmay1088/tokentransfer/chains/ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultGas is the gas limit used when a request does not set one.
	DefaultGas uint64 = 21000

	// DefaultTimeout bounds the receipt wait when a request does not set one.
	DefaultTimeout = 120 * time.Second
)

// Request describes one transfer.
type Request struct {
	To        string          // checksummed recipient address
	Amount    decimal.Decimal // human-readable amount, e.g. 1.5
	Gas       uint64          // 0 means DefaultGas
	Timeout   time.Duration   // 0 means DefaultTimeout
	UseMaxGas bool            // spend the whole spare native balance on fees
}

// Plan is a fully built, still unsigned transfer.
type Plan struct {
	Recipient common.Address
	Decimals  uint8
	Amount    *big.Int // base units
	Balance   *big.Int // balance seen during the check, base units
	Nonce     uint64
	ChainID   *big.Int
	Gas       uint64
	GasPrice  *big.Int
	Timeout   time.Duration
	Tx        *types.Transaction
}

// MaxFee returns gas * gasPrice in wei.
func (p *Plan) MaxFee() *big.Int {
	return ethereum.MaxFee(p.Gas, p.GasPrice)
}

// Result is the outcome of a confirmed transfer.
type Result struct {
	Hash    common.Hash
	Receipt *types.Receipt
}

func (r *Result) String() string {
	return fmt.Sprintf("Transaction Hash: %s", r.Hash.Hex())
}

// Reverted reports whether the transaction was mined but failed.
func (r *Result) Reverted() bool {
	return r.Receipt != nil && r.Receipt.Status == types.ReceiptStatusFailed
}

// Engine holds the sender identity and, in token mode, the token binding.
// It keeps no other state between calls.
type Engine struct {
	client  ChainClient
	token   TokenContract
	key     *ecdsa.PrivateKey
	address common.Address
	log     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithToken switches the engine to token mode.
func WithToken(token TokenContract) Option {
	return func(e *Engine) {
		e.token = token
	}
}

// WithLogger sets the logger used for pipeline tracing.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine validates privateKeyHex and derives the sender address. It makes
// no network calls.
func NewEngine(client ChainClient, privateKeyHex string, opts ...Option) (*Engine, error) {
	key, err := ethereum.ParsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, &InvalidKeyError{Err: err}
	}
	if client == nil {
		return nil, fmt.Errorf("chain client is required")
	}

	e := &Engine{
		client:  client,
		key:     key,
		address: ethereum.AddressFromKey(key),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.log = e.log.With(zap.String("sender", e.address.Hex()))
	if e.token != nil {
		e.log = e.log.With(zap.String("token", e.token.Address().Hex()))
	}

	return e, nil
}

// Address returns the checksummed sender address.
func (e *Engine) Address() common.Address {
	return e.address
}

// Token returns the bound token contract, or nil in native mode.
func (e *Engine) Token() TokenContract {
	return e.token
}

// Close releases the chain client if it holds resources.
func (e *Engine) Close() {
	if closer, ok := e.client.(interface{ Close() }); ok {
		closer.Close()
	}
}

// TokenDecimals returns the token's decimals, or 18 in native mode. The value
// is fetched on every call.
func (e *Engine) TokenDecimals(ctx context.Context) (uint8, error) {
	if e.token == nil {
		return ethereum.NativeDecimals, nil
	}

	decimals, err := e.token.Decimals(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch token decimals: %w", err)
	}
	return decimals, nil
}

// Balance returns the sender's token balance in token mode and native
// balance otherwise, in base units.
func (e *Engine) Balance(ctx context.Context) (*big.Int, error) {
	if e.token == nil {
		return e.nativeBalance(ctx)
	}

	balance, err := e.token.BalanceOf(ctx, e.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token balance: %w", err)
	}
	return balance, nil
}

func (e *Engine) nativeBalance(ctx context.Context) (*big.Int, error) {
	balance, err := e.client.BalanceAt(ctx, e.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return balance, nil
}

// TransferTokens runs the whole pipeline: Prepare then Submit.
//
// The balance check and the broadcast are not atomic. Another transaction
// from the same key between the two can make the node reject this one or
// reuse its nonce, so an Engine must not run concurrent transfers.
func (e *Engine) TransferTokens(ctx context.Context, req Request) (*Result, error) {
	plan, err := e.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, plan)
}

// Prepare validates the request and builds the unsigned transaction. Local
// validation failures are returned before any call to the chain.
func (e *Engine) Prepare(ctx context.Context, req Request) (*Plan, error) {
	recipient, err := ethereum.ParseAddress(req.To)
	if err != nil {
		return nil, &InvalidAddressError{Address: req.To, Err: err}
	}
	if req.Amount.IsNegative() {
		return nil, &InvalidAmountError{Amount: req.Amount}
	}

	gas := req.Gas
	if gas == 0 {
		gas = DefaultGas
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	nonce, err := e.client.NonceAt(ctx, e.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	decimals, err := e.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	amount := ethereum.ToBaseUnits(req.Amount, decimals)

	balance, err := e.Balance(ctx)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(balance) > 0 {
		return nil, &InsufficientBalanceError{Required: amount, Available: balance}
	}

	gasPrice, err := e.gasPrice(ctx, req.UseMaxGas, gas, amount, balance)
	if err != nil {
		return nil, err
	}

	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}

	var tx *types.Transaction
	if e.token != nil {
		data, err := e.token.PackTransfer(recipient, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to encode token transfer: %w", err)
		}
		tx = ethereum.NewTransaction(nonce, e.token.Address(), nil, gas, gasPrice, data)
	} else {
		tx = ethereum.NewTransaction(nonce, recipient, amount, gas, gasPrice, nil)
	}

	if err := ethereum.ValidateTransaction(tx); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}

	e.log.Debug("transfer prepared",
		zap.String("to", recipient.Hex()),
		zap.Stringer("amount", amount),
		zap.Uint8("decimals", decimals),
		zap.Uint64("nonce", nonce),
		zap.Stringer("chain_id", chainID),
		zap.Uint64("gas", gas),
		zap.Stringer("gas_price", gasPrice),
		zap.Bool("max_gas", req.UseMaxGas),
	)

	return &Plan{
		Recipient: recipient,
		Decimals:  decimals,
		Amount:    amount,
		Balance:   balance,
		Nonce:     nonce,
		ChainID:   chainID,
		Gas:       gas,
		GasPrice:  gasPrice,
		Timeout:   timeout,
		Tx:        tx,
	}, nil
}

// gasPrice picks the fee per gas unit. Without useMaxGas it is the node's
// suggestion. With useMaxGas the whole spare native balance goes to fees:
// in token mode that is the native balance, in native mode the balance minus
// the amount being sent.
func (e *Engine) gasPrice(ctx context.Context, useMaxGas bool, gas uint64, amount, balance *big.Int) (*big.Int, error) {
	if !useMaxGas {
		price, err := e.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch gas price: %w", err)
		}
		return price, nil
	}

	spare := new(big.Int)
	if e.token != nil {
		native, err := e.nativeBalance(ctx)
		if err != nil {
			return nil, err
		}
		spare.Set(native)
	} else {
		spare.Sub(balance, amount)
	}

	return spare.Div(spare, new(big.Int).SetUint64(gas)), nil
}

// Submit signs the planned transaction, broadcasts it and waits for the
// receipt. Once the broadcast succeeds the transfer cannot be recalled.
func (e *Engine) Submit(ctx context.Context, plan *Plan) (*Result, error) {
	signed, raw, err := ethereum.SignTransaction(plan.Tx, e.key, plan.ChainID)
	if err != nil {
		return nil, err
	}

	hash, err := e.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	if hash != signed.Hash() {
		e.log.Warn("node returned unexpected transaction hash",
			zap.String("expected", signed.Hash().Hex()),
			zap.String("got", hash.Hex()),
		)
	}
	e.log.Info("transaction sent", zap.String("hash", hash.Hex()), zap.Duration("timeout", plan.Timeout))

	timeout := plan.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	receipt, err := e.client.WaitForReceipt(ctx, hash, timeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ConfirmationTimeoutError{Hash: hash, Timeout: timeout, Err: err}
		}
		return nil, fmt.Errorf("failed to wait for receipt of %s: %w", hash.Hex(), err)
	}

	result := &Result{Hash: receipt.TxHash, Receipt: receipt}
	if result.Reverted() {
		e.log.Warn("transaction reverted", zap.String("hash", hash.Hex()), zap.Stringer("block", receipt.BlockNumber))
	} else {
		e.log.Info("transaction confirmed", zap.String("hash", hash.Hex()), zap.Stringer("block", receipt.BlockNumber))
	}

	return result, nil
}
