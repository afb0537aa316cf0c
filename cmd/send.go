package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chinmay1088/tokentransfer/api"
	"github.com/chinmay1088/tokentransfer/chains/ethereum"
	"github.com/chinmay1088/tokentransfer/config"
	"github.com/chinmay1088/tokentransfer/logger"
	"github.com/chinmay1088/tokentransfer/transfer"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sendCmd = &cobra.Command{
	Use:   "send [amount] [address]",
	Short: "Send ETH or an ERC-20 token",
	Long: `Send ETH, or an ERC-20 token when --contract is set, and wait for the
transaction to be mined.

The recipient must be an EIP-55 checksummed address. Amounts are rounded
down to the token's precision.

Examples:
  tokentransfer send 0.1 0x742d35Cc6634C0532925a3b844Bc454e4438f44e
  tokentransfer send 25 0x742d35Cc6634C0532925a3b844Bc454e4438f44e --contract 0xdAC17F958D2ee523a2206206994597C13D831ec7
  tokentransfer send 50 0x742d35Cc6634C0532925a3b844Bc454e4438f44e --usd
  tokentransfer send 0.01 0x742d35Cc6634C0532925a3b844Bc454e4438f44e --max-gas --yes`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	network := cfg.NetworkPreset()

	amount, err := ethereum.ParseAmount(args[0])
	if err != nil {
		return err
	}

	usdFlag, _ := cmd.Flags().GetBool("usd")
	if usdFlag {
		if cfg.TokenMode() {
			return fmt.Errorf("--usd is only supported for ETH transfers")
		}
		amount, err = usdToEther(ctx, amount)
		if err != nil {
			return err
		}
	}

	engine, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	maxGas, _ := cmd.Flags().GetBool("max-gas")
	plan, err := engine.Prepare(ctx, transfer.Request{
		To:        args[1],
		Amount:    amount,
		Gas:       cfg.Gas,
		Timeout:   cfg.Timeout,
		UseMaxGas: maxGas,
	})
	if err != nil {
		return describeError(ctx, err, engine)
	}

	printPlan(ctx, engine, plan, network)

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirmTransfer(os.Stdin, os.Stdout, network) {
		fmt.Println("❌ Transaction cancelled by user")
		return nil
	}

	spinner := startSpinner("Waiting for confirmation...")
	result, err := engine.Submit(ctx, plan)
	spinner()

	if err != nil {
		var timeoutErr *transfer.ConfirmationTimeoutError
		if errors.As(err, &timeoutErr) {
			fmt.Printf("⏳ Transaction sent but not confirmed within %s\n", timeoutErr.Timeout)
			fmt.Printf("📝 Transaction Hash: %s\n", timeoutErr.Hash.Hex())
			fmt.Printf("🔗 Explorer: %s\n", network.TxURL(timeoutErr.Hash.Hex()))
		}
		return err
	}

	if result.Reverted() {
		fmt.Printf("%s\n", color.RedString("❌ Transaction was mined but reverted"))
	} else {
		fmt.Printf("✅ Transaction confirmed in block %s\n", color.GreenString(result.Receipt.BlockNumber.String()))
	}
	fmt.Printf("📝 %s\n", result)
	fmt.Printf("🔗 Explorer: %s\n", network.TxURL(result.Hash.Hex()))

	return nil
}

// newEngine dials the configured endpoint and binds the configured token.
func newEngine(ctx context.Context) (*transfer.Engine, error) {
	key, err := privateKey()
	if err != nil {
		return nil, err
	}

	logger.Debug("dialing node")
	clientOpts := []api.ClientOption{api.WithPollInterval(cfg.PollInterval)}
	return transfer.Dial(ctx, cfg.Endpoint(), key, cfg.Contract, clientOpts, transfer.WithLogger(logger.Log))
}

func usdToEther(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error) {
	price, err := api.NewPriceClient(cfg.PriceURL).GetPrice(ctx, "ethereum")
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get ETH price: %w", err)
	}

	amount, err := api.FiatToCoin(usd, price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to convert USD amount: %w", err)
	}

	fmt.Printf("💵 $%s at $%s/ETH = %s ETH\n", usd.StringFixed(2), price.USD.StringFixed(2), amount.Truncate(8).String())
	return amount, nil
}

func unitSymbol(engine *transfer.Engine) string {
	if engine.Token() != nil {
		return "tokens"
	}
	return "ETH"
}

func printPlan(ctx context.Context, engine *transfer.Engine, plan *transfer.Plan, network config.Network) {
	symbol := unitSymbol(engine)
	amount := ethereum.FormatUnits(plan.Amount, plan.Decimals, 8)
	maxFee := ethereum.FormatUnits(plan.MaxFee(), ethereum.NativeDecimals, 8)

	fmt.Printf("📊 Transaction Details:\n")
	fmt.Printf("   From:      %s\n", engine.Address().Hex())
	fmt.Printf("   To:        %s\n", plan.Recipient.Hex())
	if token := engine.Token(); token != nil {
		fmt.Printf("   Token:     %s\n", token.Address().Hex())
	}

	// USD values only make sense for ETH on mainnet
	var usd *api.PriceData
	if engine.Token() == nil && !network.IsTestnet() {
		price, err := api.NewPriceClient(cfg.PriceURL).GetPrice(ctx, "ethereum")
		if err != nil {
			logger.Debug("price lookup failed", zap.Error(err))
		} else {
			usd = price
		}
	}

	if usd != nil {
		amountUSD := ethereum.FromBaseUnits(plan.Amount, plan.Decimals).Mul(usd.USD)
		feeUSD := ethereum.WeiToEther(plan.MaxFee()).Mul(usd.USD)
		fmt.Printf("   Amount:    %s %s (~$%s)\n", amount, symbol, amountUSD.StringFixed(2))
		fmt.Printf("   Max Fee:   ~%s ETH (~$%s)\n", maxFee, feeUSD.StringFixed(2))
	} else {
		fmt.Printf("   Amount:    %s %s\n", amount, symbol)
		fmt.Printf("   Max Fee:   ~%s ETH\n", maxFee)
	}

	fmt.Printf("   Nonce:     %d\n", plan.Nonce)
	fmt.Printf("   Gas:       %d units\n", plan.Gas)
	fmt.Printf("   Gas Price: %s Gwei\n", ethereum.FormatUnits(plan.GasPrice, 9, 2))
	fmt.Printf("   Network:   %s (chain %s)\n", network.DisplayName, plan.ChainID)
}

// startSpinner animates until the returned stop function is called.
func startSpinner(description string) func() {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
		_ = bar.Finish()
	}
}

// describeError rewrites engine validation errors for the terminal.
func describeError(ctx context.Context, err error, engine *transfer.Engine) error {
	var balanceErr *transfer.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		decimals, derr := engine.TokenDecimals(ctx)
		if derr != nil {
			return err
		}
		return fmt.Errorf("insufficient funds. You're trying to send %s %s but your balance is only %s %s. Please deposit more to your address (%s) before making this payment: %w",
			ethereum.FormatUnits(balanceErr.Required, decimals, 8), unitSymbol(engine),
			ethereum.FormatUnits(balanceErr.Available, decimals, 8), unitSymbol(engine),
			engine.Address().Hex(), err)
	}

	var addrErr *transfer.InvalidAddressError
	if errors.As(err, &addrErr) {
		return fmt.Errorf("invalid recipient address %q, it must be EIP-55 checksummed: %w", addrErr.Address, err)
	}

	return err
}

func init() {
	sendCmd.Flags().Uint64("gas", transfer.DefaultGas, "gas limit")
	sendCmd.Flags().Duration("timeout", transfer.DefaultTimeout, "how long to wait for the receipt")
	sendCmd.Flags().Bool("max-gas", false, "spend the whole spare ETH balance on the gas price")
	sendCmd.Flags().Bool("usd", false, "Specify amount in USD (ETH only)")
	sendCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	bindFlag(config.KeyGas, sendCmd, "gas")
	bindFlag(config.KeyTimeout, sendCmd, "timeout")
}
