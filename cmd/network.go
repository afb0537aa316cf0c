package cmd

import (
	"fmt"
	"strings"

	"github.com/chinmay1088/tokentransfer/api"
	"github.com/chinmay1088/tokentransfer/chains/ethereum"
	"github.com/chinmay1088/tokentransfer/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network [mainnet|testnet]",
	Short: "Show or change network",
	Long: `Show the configured network and query the node for its chain id and gas
price, or save a different network to the config file.

Examples:
  tokentransfer network            # Show current network
  tokentransfer network mainnet    # Switch to mainnet
  tokentransfer network testnet    # Switch to Sepolia`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNetwork,
}

func runNetwork(cmd *cobra.Command, args []string) error {
	// If no arguments provided, show current network
	if len(args) == 0 {
		return showCurrentNetwork(cmd)
	}

	network := strings.ToLower(args[0])
	path, err := config.SaveNetwork(cfgFile, network)
	if err != nil {
		return err
	}

	fmt.Printf("🌐 Switched to %s network\n", strings.ToUpper(network))
	fmt.Printf("   Saved to %s\n", path)
	if network == config.NetworkTestnet {
		fmt.Println()
		fmt.Println("⚠️  You are now on TESTNET mode (Ethereum Sepolia)")
	} else {
		fmt.Println()
		fmt.Println("✅ You are now on MAINNET mode. Transfers move real funds")
	}
	return nil
}

func showCurrentNetwork(cmd *cobra.Command) error {
	ctx := cmd.Context()
	network := cfg.NetworkPreset()

	if network.IsTestnet() {
		fmt.Printf("🌐 Current network: %s\n", color.YellowString(network.DisplayName))
	} else {
		fmt.Printf("🌐 Current network: %s\n", color.GreenString(network.DisplayName))
	}
	fmt.Printf("   RPC:      %s\n", cfg.Endpoint())
	fmt.Printf("   Explorer: %s\n", network.ExplorerURL)

	client, err := api.Dial(ctx, cfg.Endpoint())
	if err != nil {
		return err
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to query node: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to query node: %w", err)
	}

	fmt.Printf("   Chain ID: %s\n", chainID)
	fmt.Printf("   Gas:      %s Gwei\n", ethereum.FormatUnits(gasPrice, 9, 2))

	if chainID.Int64() != network.ChainID {
		fmt.Println()
		fmt.Printf("⚠️  %s\n", color.RedString("The node reports chain %s but %s is chain %d", chainID, network.DisplayName, network.ChainID))
	}
	return nil
}
