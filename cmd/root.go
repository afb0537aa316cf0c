package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chinmay1088/tokentransfer/config"
	"github.com/chinmay1088/tokentransfer/logger"
	"github.com/spf13/cobra"
)

var (
	version = "0.3.0"

	// settings resolved in PersistentPreRunE
	v       = config.New()
	cfg     *config.Config
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "tokentransfer",
	Aliases: []string{"tt"},
	Short:   "Send ETH or ERC-20 tokens from a raw private key",
	Long: `tokentransfer builds, signs and broadcasts a single ETH or ERC-20
transfer and waits for it to be mined.

Settings come from flags, TRANSFER_* environment variables and
$HOME/.tokentransfer/config.yaml, in that order of precedence.

Examples:
  tokentransfer address                              # Show sender address
  tokentransfer balance                              # ETH balance
  tokentransfer balance --contract 0xdAC1...         # Token balance
  tokentransfer send 0.1 0x742d35Cc6634C0532925a3b844Bc454e4438f44e
  tokentransfer send 25 0x742d...f44e --contract 0xdAC1...
  tokentransfer network testnet                      # Switch to Sepolia`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Ctrl-C cancels in-flight RPC calls and the receipt wait.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	verbose, _ := cmd.Flags().GetBool("verbose")
	if err := logger.Init(cfg.Env, verbose); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func bindFlag(key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
		panic(err)
	}
}

func bindPersistentFlag(key, name string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
		panic(err)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.tokentransfer/config.yaml)")
	rootCmd.PersistentFlags().String("rpc", "", "JSON-RPC endpoint, overrides the network preset")
	rootCmd.PersistentFlags().String("network", config.NetworkMainnet, "network preset: mainnet or testnet")
	rootCmd.PersistentFlags().String("key", "", "sender private key, 64 hex characters without 0x")
	rootCmd.PersistentFlags().String("contract", "", "ERC-20 token contract; empty sends ETH")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	bindPersistentFlag(config.KeyRPCURL, "rpc")
	bindPersistentFlag(config.KeyNetwork, "network")
	bindPersistentFlag(config.KeyPrivateKey, "key")
	bindPersistentFlag(config.KeyContract, "contract")

	// Add subcommands
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tokentransfer v%s\n", version)
	},
}
