package config

import (
	"fmt"
	"strings"
)

// network names
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Network is a preset RPC endpoint and block explorer.
type Network struct {
	Name        string
	DisplayName string
	ChainID     int64
	RPCURL      string
	ExplorerURL string
}

var networks = map[string]Network{
	NetworkMainnet: {
		Name:        NetworkMainnet,
		DisplayName: "Ethereum Mainnet",
		ChainID:     1,
		RPCURL:      "https://ethereum-rpc.publicnode.com",
		ExplorerURL: "https://etherscan.io",
	},
	NetworkTestnet: {
		Name:        NetworkTestnet,
		DisplayName: "Sepolia Testnet",
		ChainID:     11155111,
		RPCURL:      "https://ethereum-sepolia.publicnode.com",
		ExplorerURL: "https://sepolia.etherscan.io",
	},
}

// LookupNetwork returns the preset for name (case-insensitive).
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("invalid network: %s. Use 'mainnet' or 'testnet'", name)
	}
	return n, nil
}

// TxURL links to a transaction on the network's explorer.
func (n Network) TxURL(hash string) string {
	return fmt.Sprintf("%s/tx/%s", n.ExplorerURL, hash)
}

// AddressURL links to an account on the network's explorer.
func (n Network) AddressURL(address string) string {
	return fmt.Sprintf("%s/address/%s", n.ExplorerURL, address)
}

// IsTestnet reports whether funds on this network have no value.
func (n Network) IsTestnet() bool {
	return n.Name == NetworkTestnet
}
