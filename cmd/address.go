package cmd

import (
	"fmt"

	"github.com/chinmay1088/tokentransfer/chains/ethereum"
	"github.com/chinmay1088/tokentransfer/crypto"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the sender address",
	Long: `Show the checksummed address derived from the configured private key, or
stored in the key vault. No network access is needed.

Examples:
  tokentransfer address
  TRANSFER_PRIVATE_KEY=... tokentransfer address`,
	Args: cobra.NoArgs,
	RunE: runAddress,
}

func runAddress(cmd *cobra.Command, args []string) error {
	address, err := senderAddress()
	if err != nil {
		return err
	}

	network := cfg.NetworkPreset()

	fmt.Println("🔑 Your sender address:")
	fmt.Printf("🌐 Network: %s\n", network.DisplayName)
	fmt.Println()
	fmt.Printf("   %s\n", address)
	fmt.Printf("🔗 Explorer: %s\n", network.AddressURL(address))
	return nil
}

// senderAddress avoids a password prompt when the vault already records the
// address.
func senderAddress() (string, error) {
	if cfg.PrivateKey == "" {
		if path, err := cfg.Vault(); err == nil {
			if vault, err := crypto.LoadVault(path); err == nil && vault.Address != "" {
				return vault.Address, nil
			}
		}
	}

	key, err := privateKey()
	if err != nil {
		return "", err
	}

	parsed, err := ethereum.ParsePrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return ethereum.AddressFromKey(parsed).Hex(), nil
}
