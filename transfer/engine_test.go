package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/chinmay1088/tokentransfer/chains/ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testSender    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testRecipient = common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8").Hex()
	testContract  = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
)

// fakeChain is an in-memory ChainClient that counts every call.
type fakeChain struct {
	nonce    uint64
	chainID  int64
	gasPrice int64
	balance  *big.Int

	sendErr error
	waitErr error
	status  uint64

	calls       map[string]int
	raw         [][]byte
	waitTimeout time.Duration
	closed      bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		nonce:    5,
		chainID:  1,
		gasPrice: 7,
		balance:  new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18)),
		status:   types.ReceiptStatusSuccessful,
		calls:    map[string]int{},
	}
}

func (f *fakeChain) total() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeChain) NonceAt(context.Context, common.Address) (uint64, error) {
	f.calls["NonceAt"]++
	return f.nonce, nil
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	f.calls["ChainID"]++
	return big.NewInt(f.chainID), nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.calls["SuggestGasPrice"]++
	return big.NewInt(f.gasPrice), nil
}

func (f *fakeChain) BalanceAt(_ context.Context, account common.Address) (*big.Int, error) {
	f.calls["BalanceAt"]++
	if account != testSender {
		return nil, fmt.Errorf("unexpected account %s", account.Hex())
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeChain) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	f.calls["SendRawTransaction"]++
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.raw = append(f.raw, raw)

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

func (f *fakeChain) WaitForReceipt(_ context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	f.calls["WaitForReceipt"]++
	f.waitTimeout = timeout
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &types.Receipt{TxHash: hash, Status: f.status, BlockNumber: big.NewInt(100)}, nil
}

func (f *fakeChain) Close() { f.closed = true }

func (f *fakeChain) lastTx(t *testing.T) *types.Transaction {
	t.Helper()
	require.NotEmpty(t, f.raw)
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(f.raw[len(f.raw)-1]))
	return tx
}

// fakeToken is an in-memory TokenContract.
type fakeToken struct {
	decimals uint8
	balance  *big.Int
	calls    map[string]int
}

func newFakeToken(decimals uint8, balance int64) *fakeToken {
	return &fakeToken{decimals: decimals, balance: big.NewInt(balance), calls: map[string]int{}}
}

func (f *fakeToken) Address() common.Address { return testContract }

func (f *fakeToken) Decimals(context.Context) (uint8, error) {
	f.calls["Decimals"]++
	return f.decimals, nil
}

func (f *fakeToken) BalanceOf(context.Context, common.Address) (*big.Int, error) {
	f.calls["BalanceOf"]++
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeToken) PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	f.calls["PackTransfer"]++
	return append(append([]byte{0xa9, 0x05, 0x9c, 0xbb}, common.LeftPadBytes(to.Bytes(), 32)...), common.LeftPadBytes(amount.Bytes(), 32)...), nil
}

func (f *fakeToken) PackTransferFrom(from, to common.Address, amount *big.Int) ([]byte, error) {
	f.calls["PackTransferFrom"]++
	return nil, errors.New("not used")
}

func newTestEngine(t *testing.T, chain *fakeChain, opts ...Option) *Engine {
	t.Helper()
	engine, err := NewEngine(chain, testKey, opts...)
	require.NoError(t, err)
	return engine
}

func TestNewEngineInvalidKey(t *testing.T) {
	for _, key := range []string{
		"",
		"0x" + testKey,
		testKey[:63],
		testKey + "0",
		"zz" + testKey[2:],
	} {
		chain := newFakeChain()
		_, err := NewEngine(chain, key)

		var keyErr *InvalidKeyError
		assert.ErrorAs(t, err, &keyErr, "key %q", key)
		assert.Zero(t, chain.total())
	}
}

func TestNewEngineDerivesAddress(t *testing.T) {
	engine := newTestEngine(t, newFakeChain())
	assert.Equal(t, testSender, engine.Address())
	assert.Nil(t, engine.Token())
}

func TestNewEngineRequiresClient(t *testing.T) {
	_, err := NewEngine(nil, testKey)
	assert.Error(t, err)
}

func TestTransferInvalidRecipientMakesNoCalls(t *testing.T) {
	for _, to := range []string{
		"",
		"not-an-address",
		"0x70997970c51812dc3a010c7d01b50e0d17dc79c8", // all lower case, no checksum
		"0x70997970C51812dc3A010C7d01b50e0d17dc79c9", // bad checksum
		"70997970C51812dc3A010C7d01b50e0d17dc79C8",   // missing 0x
	} {
		chain := newFakeChain()
		token := newFakeToken(6, 1000)
		engine := newTestEngine(t, chain, WithToken(token))

		_, err := engine.TransferTokens(context.Background(), Request{To: to, Amount: decimal.NewFromInt(1)})

		var addrErr *InvalidAddressError
		require.ErrorAs(t, err, &addrErr, "address %q", to)
		assert.Equal(t, to, addrErr.Address)
		assert.Zero(t, chain.total())
		assert.Empty(t, token.calls)
	}
}

func TestTransferNegativeAmount(t *testing.T) {
	chain := newFakeChain()
	engine := newTestEngine(t, chain)

	_, err := engine.TransferTokens(context.Background(), Request{To: testRecipient, Amount: decimal.NewFromInt(-1)})

	var amountErr *InvalidAmountError
	assert.ErrorAs(t, err, &amountErr)
	assert.Zero(t, chain.total())
}

func TestTransferNativeEndToEnd(t *testing.T) {
	chain := newFakeChain()
	engine := newTestEngine(t, chain)

	result, err := engine.TransferTokens(context.Background(), Request{To: testRecipient, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^Transaction Hash: 0x[0-9a-f]{64}$`), result.String())
	assert.False(t, result.Reverted())

	tx := chain.lastTx(t)
	assert.Equal(t, "1000000000000000000", tx.Value().String())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, "7", tx.GasPrice().String())
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, "1", tx.ChainId().String())
	assert.Equal(t, testRecipient, tx.To().Hex())
	assert.Empty(t, tx.Data())
	assert.Equal(t, result.Hash, tx.Hash())

	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(1)), tx)
	require.NoError(t, err)
	assert.Equal(t, testSender, sender)

	assert.Equal(t, DefaultTimeout, chain.waitTimeout)
	assert.Equal(t, 1, chain.calls["SendRawTransaction"])
	assert.Equal(t, 1, chain.calls["WaitForReceipt"])
}

func TestTransferTokenEndToEnd(t *testing.T) {
	chain := newFakeChain()
	token := newFakeToken(6, 5_000_000)
	engine := newTestEngine(t, chain, WithToken(token))

	_, err := engine.TransferTokens(context.Background(), Request{
		To:     testRecipient,
		Amount: decimal.RequireFromString("2.5"),
		Gas:    60000,
	})
	require.NoError(t, err)

	tx := chain.lastTx(t)
	assert.Equal(t, testContract, *tx.To())
	assert.Zero(t, tx.Value().Sign())
	assert.Equal(t, uint64(60000), tx.Gas())

	data := tx.Data()
	require.Len(t, data, 4+64)
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
	assert.Equal(t, testRecipient, common.BytesToAddress(data[4:36]).Hex())
	assert.Equal(t, "2500000", new(big.Int).SetBytes(data[36:]).String())

	// token balance is checked, native balance is not
	assert.Equal(t, 1, token.calls["BalanceOf"])
	assert.Zero(t, chain.calls["BalanceAt"])
}

func TestTransferFloorsAmount(t *testing.T) {
	chain := newFakeChain()
	token := newFakeToken(2, 1000)
	engine := newTestEngine(t, chain, WithToken(token))

	plan, err := engine.Prepare(context.Background(), Request{To: testRecipient, Amount: decimal.RequireFromString("1.239")})
	require.NoError(t, err)
	assert.Equal(t, "123", plan.Amount.String())
	assert.Equal(t, uint8(2), plan.Decimals)
}

func TestTransferInsufficientBalanceDoesNotBroadcast(t *testing.T) {
	chain := newFakeChain()
	token := newFakeToken(6, 999_999)
	engine := newTestEngine(t, chain, WithToken(token))

	_, err := engine.TransferTokens(context.Background(), Request{To: testRecipient, Amount: decimal.NewFromInt(1)})

	var balErr *InsufficientBalanceError
	require.ErrorAs(t, err, &balErr)
	assert.Equal(t, "1000000", balErr.Required.String())
	assert.Equal(t, "999999", balErr.Available.String())
	assert.Zero(t, chain.calls["SendRawTransaction"])
	assert.Zero(t, chain.calls["WaitForReceipt"])
}

func TestTransferExactBalanceAllowed(t *testing.T) {
	chain := newFakeChain()
	token := newFakeToken(6, 1_000_000)
	engine := newTestEngine(t, chain, WithToken(token))

	_, err := engine.TransferTokens(context.Background(), Request{To: testRecipient, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
}

func TestTransferZeroAmount(t *testing.T) {
	chain := newFakeChain()
	engine := newTestEngine(t, chain)

	_, err := engine.TransferTokens(context.Background(), Request{To: testRecipient, Amount: decimal.Zero})
	require.NoError(t, err)
	assert.Zero(t, chain.lastTx(t).Value().Sign())
}

func TestNativeModeUsesEighteenDecimals(t *testing.T) {
	engine := newTestEngine(t, newFakeChain())

	decimals, err := engine.TokenDecimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)
}

func TestTokenDecimalsFetchedEveryCall(t *testing.T) {
	token := newFakeToken(6, 0)
	engine := newTestEngine(t, newFakeChain(), WithToken(token))

	for i := 0; i < 3; i++ {
		_, err := engine.TokenDecimals(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, token.calls["Decimals"])
}

func TestMaxGasNativeMode(t *testing.T) {
	chain := newFakeChain()
	chain.balance = big.NewInt(1_000_000)
	engine := newTestEngine(t, chain)

	plan, err := engine.Prepare(context.Background(), Request{
		To:        testRecipient,
		Amount:    decimal.RequireFromString("0.0000000000001"), // 100000 wei
		UseMaxGas: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "100000", plan.Amount.String())
	// (1000000 - 100000) / 21000 = 42.857...
	assert.Equal(t, "42", plan.GasPrice.String())
	assert.Zero(t, chain.calls["SuggestGasPrice"])
	assert.LessOrEqual(t, new(big.Int).Add(plan.MaxFee(), plan.Amount).Cmp(chain.balance), 0)
}

func TestMaxGasTokenMode(t *testing.T) {
	chain := newFakeChain()
	chain.balance = big.NewInt(630_000)
	token := newFakeToken(6, 1_000_000)
	engine := newTestEngine(t, chain, WithToken(token))

	plan, err := engine.Prepare(context.Background(), Request{
		To:        testRecipient,
		Amount:    decimal.NewFromInt(1),
		UseMaxGas: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "30", plan.GasPrice.String())
	assert.Equal(t, 1, chain.calls["BalanceAt"])
	assert.Zero(t, chain.calls["SuggestGasPrice"])
}

func TestTransferConfirmationTimeout(t *testing.T) {
	chain := newFakeChain()
	chain.waitErr = fmt.Errorf("waiting for receipt: %w", context.DeadlineExceeded)
	engine := newTestEngine(t, chain)

	_, err := engine.TransferTokens(context.Background(), Request{
		To:      testRecipient,
		Amount:  decimal.NewFromInt(1),
		Timeout: 5 * time.Second,
	})

	var timeoutErr *ConfirmationTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 5*time.Second, timeoutErr.Timeout)
	assert.Equal(t, chain.lastTx(t).Hash(), timeoutErr.Hash)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 5*time.Second, chain.waitTimeout)
}

func TestTransferWaitFailureIsNotTimeout(t *testing.T) {
	chain := newFakeChain()
	chain.waitErr = errors.New("connection reset")
	engine := newTestEngine(t, chain)

	_, err := engine.TransferTokens(context.Background(), Request{To: testRecipient, Amount: decimal.NewFromInt(1)})
	require.Error(t, err)

	var timeoutErr *ConfirmationTimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestTransferBroadcastRejected(t *testing.T) {
	chain := newFakeChain()
	chain.sendErr = errors.New("nonce too low")
	engine := newTestEngine(t, chain)

	_, err := engine.TransferTokens(context.Background(), Request{To: testRecipient, Amount: decimal.NewFromInt(1)})
	assert.ErrorContains(t, err, "nonce too low")
	assert.Zero(t, chain.calls["WaitForReceipt"])
}

func TestTransferRevertedReceipt(t *testing.T) {
	chain := newFakeChain()
	chain.status = types.ReceiptStatusFailed
	core, logs := observer.New(zap.InfoLevel)
	engine := newTestEngine(t, chain, WithLogger(zap.New(core)))

	result, err := engine.TransferTokens(context.Background(), Request{To: testRecipient, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.True(t, result.Reverted())
	assert.Equal(t, 1, logs.FilterMessage("transaction reverted").Len())
}

func TestPrepareThenSubmit(t *testing.T) {
	chain := newFakeChain()
	engine := newTestEngine(t, chain)

	plan, err := engine.Prepare(context.Background(), Request{To: testRecipient, Amount: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.Zero(t, chain.calls["SendRawTransaction"])
	assert.Equal(t, "147000", plan.MaxFee().String())

	result, err := engine.Submit(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, plan.Tx.To(), chain.lastTx(t).To())
	assert.NotEqual(t, common.Hash{}, result.Hash)
}

func TestCloseReleasesClient(t *testing.T) {
	chain := newFakeChain()
	engine := newTestEngine(t, chain)
	engine.Close()
	assert.True(t, chain.closed)
}

func TestToBaseUnitsMatchesPlan(t *testing.T) {
	chain := newFakeChain()
	engine := newTestEngine(t, chain)

	amount := decimal.RequireFromString("0.123456789012345678")
	plan, err := engine.Prepare(context.Background(), Request{To: testRecipient, Amount: amount})
	require.NoError(t, err)
	assert.Equal(t, ethereum.ToBaseUnits(amount, 18).String(), plan.Amount.String())
}
