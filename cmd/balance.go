package cmd

import (
	"fmt"

	"github.com/chinmay1088/tokentransfer/api"
	"github.com/chinmay1088/tokentransfer/chains/ethereum"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check the sender's balance",
	Long: `Check the sender's ETH balance, or its token balance when --contract is set.

Examples:
  tokentransfer balance
  tokentransfer balance --usd
  tokentransfer balance --contract 0xdAC17F958D2ee523a2206206994597C13D831ec7`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	network := cfg.NetworkPreset()
	usdFlag, _ := cmd.Flags().GetBool("usd")

	engine, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	decimals, err := engine.TokenDecimals(ctx)
	if err != nil {
		return err
	}
	balance, err := engine.Balance(ctx)
	if err != nil {
		return err
	}

	fmt.Println("💰 Wallet Balance")
	fmt.Printf("🌐 Network: %s\n", network.DisplayName)
	fmt.Println()
	fmt.Printf("   Address:    %s\n", engine.Address().Hex())
	if token := engine.Token(); token != nil {
		fmt.Printf("   Token:      %s (%d decimals)\n", token.Address().Hex(), decimals)
	}
	fmt.Printf("   Base units: %s\n", balance.String())

	human := ethereum.FormatUnits(balance, decimals, 8)
	symbol := unitSymbol(engine)

	if usdFlag && engine.Token() == nil {
		price, err := api.NewPriceClient(cfg.PriceURL).GetPrice(ctx, "ethereum")
		if err != nil {
			fmt.Printf("   Balance:    %s %s\n", color.GreenString(human), symbol)
			fmt.Printf("   %s\n", color.YellowString("USD price unavailable: %v", err))
			return nil
		}
		usd := ethereum.WeiToEther(balance).Mul(price.USD)
		fmt.Printf("   Balance:    %s %s (~$%s)\n", color.GreenString(human), symbol, usd.StringFixed(2))
		return nil
	}

	fmt.Printf("   Balance:    %s %s\n", color.GreenString(human), symbol)
	return nil
}

func init() {
	balanceCmd.Flags().Bool("usd", false, "Show USD value (ETH only)")
}
