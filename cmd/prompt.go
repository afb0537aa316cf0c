package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chinmay1088/tokentransfer/config"
	"github.com/chinmay1088/tokentransfer/crypto"
	"golang.org/x/term"
)

// readPrivateKey asks for the key without echoing it.
func readPrivateKey() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no private key configured. Use --key or TRANSFER_PRIVATE_KEY")
	}

	fmt.Print("🔑 Enter private key (64 hex characters): ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read private key: %w", err)
	}
	fmt.Println()

	return strings.TrimSpace(string(key)), nil
}

// readPassword asks for a vault password without echoing it.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	return string(password), nil
}

// privateKey returns the configured key. Without one it unlocks the key
// vault if there is one, and otherwise prompts for the raw key.
func privateKey() (string, error) {
	if cfg.PrivateKey != "" {
		return cfg.PrivateKey, nil
	}

	path, err := cfg.Vault()
	if err != nil {
		return "", err
	}
	vault, err := crypto.LoadVault(path)
	if errors.Is(err, os.ErrNotExist) {
		return readPrivateKey()
	}
	if err != nil {
		return "", err
	}

	password, err := readPassword(fmt.Sprintf("🔐 Password for %s: ", vault.Address))
	if err != nil {
		return "", err
	}
	key, err := vault.Decrypt(password)
	if err != nil {
		return "", fmt.Errorf("failed to unlock key vault: %w", err)
	}
	return key, nil
}

// confirmTransfer asks the user to approve a broadcast on network.
func confirmTransfer(in io.Reader, out io.Writer, network config.Network) bool {
	fmt.Fprintln(out)
	if network.IsTestnet() {
		fmt.Fprintf(out, "⚠️ You are on %s. By confirming this transaction no real funds will be sent.\n", network.DisplayName)
	} else {
		fmt.Fprintf(out, "🚨 You are on %s. By confirming this transaction real funds will be sent to this address.\n", network.DisplayName)
	}

	fmt.Fprintf(out, "Press y to confirm or n to stop (y/n): ")

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
