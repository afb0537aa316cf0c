package transfer

import (
	"context"

	"github.com/chinmay1088/tokentransfer/api"
	"github.com/chinmay1088/tokentransfer/chains/ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Dial connects to rpcURL and builds an engine. An empty contractAddress
// selects native mode; otherwise the address is normalised to checksum form
// and bound as an ERC-20 token. The key and contract address are validated
// before dialing.
func Dial(ctx context.Context, rpcURL, privateKeyHex, contractAddress string, clientOpts []api.ClientOption, opts ...Option) (*Engine, error) {
	if _, err := ethereum.ParsePrivateKey(privateKeyHex); err != nil {
		return nil, &InvalidKeyError{Err: err}
	}

	var contract common.Address
	if contractAddress != "" {
		address, err := ethereum.NormalizeAddress(contractAddress)
		if err != nil {
			return nil, &InvalidAddressError{Address: contractAddress, Err: err}
		}
		contract = address
	}

	client, err := api.Dial(ctx, rpcURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	if contractAddress != "" {
		token, err := api.NewERC20(contract, client)
		if err != nil {
			client.Close()
			return nil, err
		}
		opts = append([]Option{WithToken(token)}, opts...)
	}

	engine, err := NewEngine(client, privateKeyHex, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	return engine, nil
}
