package cmd

import (
	"errors"
	"fmt"

	"github.com/chinmay1088/tokentransfer/api"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [hash]",
	Short: "Check whether a transaction was mined",
	Long: `Look up the receipt of a transaction, for example one that was sent but
not confirmed before send gave up waiting.

Examples:
  tokentransfer status 0x2f1c...9190
  tokentransfer status 0x2f1c...9190 --wait 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	network := cfg.NetworkPreset()

	hash, err := api.ParseHash(args[0])
	if err != nil {
		return err
	}

	client, err := api.Dial(ctx, cfg.Endpoint(), api.WithPollInterval(cfg.PollInterval))
	if err != nil {
		return err
	}
	defer client.Close()

	wait, _ := cmd.Flags().GetDuration("wait")

	var receipt *types.Receipt
	if wait > 0 {
		spinner := startSpinner("Waiting for receipt...")
		receipt, err = client.WaitForReceipt(ctx, hash, wait)
		spinner()
	} else {
		receipt, err = client.Receipt(ctx, hash)
	}

	if errors.Is(err, ethereum.NotFound) {
		pending, perr := client.IsPending(ctx, hash)
		switch {
		case perr == nil && pending:
			fmt.Printf("⏳ %s is pending\n", hash.Hex())
		default:
			fmt.Printf("❓ %s is unknown to the node\n", hash.Hex())
		}
		fmt.Printf("🔗 Explorer: %s\n", network.TxURL(hash.Hex()))
		return nil
	}
	if err != nil {
		return err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		fmt.Printf("%s\n", color.RedString("❌ Reverted"))
	} else {
		fmt.Printf("✅ %s\n", color.GreenString("Confirmed"))
	}
	fmt.Printf("   Block:    %s\n", receipt.BlockNumber)
	fmt.Printf("   Gas Used: %d\n", receipt.GasUsed)
	fmt.Printf("📝 Transaction Hash: %s\n", receipt.TxHash.Hex())
	fmt.Printf("🔗 Explorer: %s\n", network.TxURL(hash.Hex()))
	return nil
}

func init() {
	statusCmd.Flags().Duration("wait", 0, "poll until mined or this much time has passed")
}
