package api

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ERC20ABI covers the token methods the transfer flow uses, plus transferFrom.
const ERC20ABI = `[
	{"constant":false,"inputs":[{"internalType":"address","name":"sender","type":"address"},{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transferFrom","outputs":[{"internalType":"bool","name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

// ERC20 is a read/encode binding for an ERC-20 token contract.
type ERC20 struct {
	address common.Address
	abi     abi.ABI
	caller  ethereum.ContractCaller
}

// NewERC20 binds the token at address. Reads go through caller.
func NewERC20(address common.Address, caller ethereum.ContractCaller) (*ERC20, error) {
	parsed, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}

	return &ERC20{
		address: address,
		abi:     parsed,
		caller:  caller,
	}, nil
}

func (t *ERC20) Address() common.Address {
	return t.address
}

// Decimals calls decimals() on the contract.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}

	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected result type %T", out[0])
	}
	return decimals, nil
}

// BalanceOf calls balanceOf(account) on the contract.
func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := t.call(ctx, "balanceOf", account)
	if err != nil {
		return nil, err
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected result type %T", out[0])
	}
	return balance, nil
}

// PackTransfer encodes transfer(to, amount) call data.
func (t *ERC20) PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return t.abi.Pack("transfer", to, amount)
}

// PackTransferFrom encodes transferFrom(from, to, amount) call data.
func (t *ERC20) PackTransferFrom(from, to common.Address, amount *big.Int) ([]byte, error) {
	return t.abi.Pack("transferFrom", from, to, amount)
}

func (t *ERC20) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := t.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to pack call: %w", method, err)
	}

	raw, err := t.caller.CallContract(ctx, ethereum.CallMsg{To: &t.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: empty result, is %s a token contract?", method, t.address.Hex())
	}

	out, err := t.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to unpack result: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no return values", method)
	}
	return out, nil
}
