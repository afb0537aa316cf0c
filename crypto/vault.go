// Package crypto keeps the sender's private key encrypted at rest with an
// scrypt-derived AES-256-GCM key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256 key length

	vaultVersion = 1
)

// ErrWrongPassword is returned when the vault cannot be opened with the
// given password.
var ErrWrongPassword = errors.New("wrong password or corrupted vault")

// Vault is the on-disk form: everything but Data is public.
type Vault struct {
	Version int    `json:"version"`
	Address string `json:"address"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

type vaultData struct {
	PrivateKey string `json:"private_key"`
}

// NewVault seals privateKeyHex under password. address is stored in clear so
// the sender can be shown without unlocking.
func NewVault(privateKeyHex, address, password string) (*Vault, error) {
	if password == "" {
		return nil, fmt.Errorf("password must not be empty")
	}

	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	data, err := json.Marshal(vaultData{PrivateKey: privateKeyHex})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault data: %w", err)
	}
	defer clearBytes(data)

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &Vault{
		Version: vaultVersion,
		Address: address,
		Salt:    salt,
		Nonce:   nonce,
		// address is bound as additional data so it cannot be swapped
		Data: aead.Seal(nil, nonce, data, []byte(address)),
	}, nil
}

// Decrypt returns the sealed private key.
func (v *Vault) Decrypt(password string) (string, error) {
	if v.Version != vaultVersion {
		return "", fmt.Errorf("unsupported vault version %d", v.Version)
	}

	key, err := deriveKey(password, v.Salt)
	if err != nil {
		return "", err
	}
	defer clearBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	if len(v.Nonce) != aead.NonceSize() {
		return "", ErrWrongPassword
	}

	plaintext, err := aead.Open(nil, v.Nonce, v.Data, []byte(v.Address))
	if err != nil {
		return "", ErrWrongPassword
	}
	defer clearBytes(plaintext)

	var data vaultData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return "", fmt.Errorf("failed to deserialize vault data: %w", err)
	}
	return data.PrivateKey, nil
}

// Save writes the vault to path with owner-only permissions.
func (v *Vault) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize vault: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}
	return nil
}

// LoadVault reads a vault written by Save. A missing file yields an error
// matching os.ErrNotExist.
func LoadVault(path string) (*Vault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	var v Vault
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vault: %w", err)
	}
	return &v, nil
}

func deriveKey(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, ScryptN, ScryptR, ScryptP, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
