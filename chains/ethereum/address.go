package ethereum

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrKeyFormat is returned when a private key is not exactly 64 hex digits.
	ErrKeyFormat = errors.New("private key must be exactly 64 hexadecimal characters")

	// ErrChecksum is returned when an address is hex but not in EIP-55 form.
	ErrChecksum = errors.New("address is not checksummed")

	// ErrNotHexAddress is returned when an address is not 20 bytes of hex.
	ErrNotHexAddress = errors.New("not a hex address")
)

var privateKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// ParseAddress parses a recipient address. Only 0x-prefixed EIP-55
// checksummed input is accepted.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrNotHexAddress, s)
	}

	address := common.HexToAddress(s)
	if address.Hex() != s {
		return common.Address{}, fmt.Errorf("%w: %q (expected %s)", ErrChecksum, s, address.Hex())
	}

	return address, nil
}

// NormalizeAddress accepts any 20-byte hex address regardless of case and
// returns it in checksum form.
func NormalizeAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrNotHexAddress, s)
	}
	return common.HexToAddress(s), nil
}

// ParsePrivateKey parses a raw secp256k1 private key given as 64 hex
// characters, without a 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if !privateKeyPattern.MatchString(hexKey) {
		return nil, ErrKeyFormat
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return key, nil
}

// AddressFromKey derives the account address for a private key
func AddressFromKey(key *ecdsa.PrivateKey) common.Address {
	publicKey := key.Public().(*ecdsa.PublicKey)
	return crypto.PubkeyToAddress(*publicKey)
}
