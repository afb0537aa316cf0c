package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/chinmay1088/tokentransfer/chains/ethereum"
	"github.com/chinmay1088/tokentransfer/crypto"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the encrypted key vault",
	Long: `Store the sender private key encrypted on disk so it does not have to be
passed with --key or TRANSFER_PRIVATE_KEY. When no key is configured, commands
unlock the vault with a password prompt.

Examples:
  tokentransfer key import    # Encrypt a private key into the vault
  tokentransfer key remove    # Delete the vault`,
}

var keyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Encrypt a private key into the vault",
	Args:  cobra.NoArgs,
	RunE:  runKeyImport,
}

var keyRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete the key vault",
	Args:  cobra.NoArgs,
	RunE:  runKeyRemove,
}

func runKeyImport(cmd *cobra.Command, args []string) error {
	path, err := cfg.Vault()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("a key vault already exists at %s. Use --force to replace it", path)
	}

	key := cfg.PrivateKey
	if key == "" {
		key, err = readPrivateKey()
		if err != nil {
			return err
		}
	}

	parsed, err := ethereum.ParsePrivateKey(key)
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	address := ethereum.AddressFromKey(parsed).Hex()

	password, err := readPassword("Enter password for the key vault: ")
	if err != nil {
		return err
	}
	confirmPassword, err := readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirmPassword {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println("Encrypting key...")
	vault, err := crypto.NewVault(key, address, password)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}
	if err := vault.Save(path); err != nil {
		return err
	}

	fmt.Println("✅ Key imported successfully!")
	fmt.Printf("🔑 Address: %s\n", address)
	fmt.Printf("🔐 Vault:   %s\n", path)
	return nil
}

func runKeyRemove(cmd *cobra.Command, args []string) error {
	path, err := cfg.Vault()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no key vault at %s", path)
		}
		return fmt.Errorf("failed to remove vault: %w", err)
	}

	fmt.Printf("🗑️  Removed %s\n", path)
	return nil
}

func init() {
	keyImportCmd.Flags().Bool("force", false, "replace an existing vault")

	keyCmd.AddCommand(keyImportCmd)
	keyCmd.AddCommand(keyRemoveCmd)
}
