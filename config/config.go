// Package config loads CLI settings from defaults, an optional YAML file,
// TRANSFER_* environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TRANSFER_RPC_URL.
const EnvPrefix = "TRANSFER"

// config keys, also used as flag binding targets
const (
	KeyEnv          = "env"
	KeyNetwork      = "network"
	KeyRPCURL       = "rpc_url"
	KeyPrivateKey   = "private_key"
	KeyContract     = "contract"
	KeyGas          = "gas"
	KeyTimeout      = "timeout"
	KeyPollInterval = "poll_interval"
	KeyPriceURL     = "price_url"
	KeyVaultPath    = "vault_path"
)

type Config struct {
	Env          string        `mapstructure:"env"`
	Network      string        `mapstructure:"network"`
	RPCURL       string        `mapstructure:"rpc_url"`
	PrivateKey   string        `mapstructure:"private_key"`
	Contract     string        `mapstructure:"contract"`
	Gas          uint64        `mapstructure:"gas"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PriceURL     string        `mapstructure:"price_url"`
	VaultPath    string        `mapstructure:"vault_path"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyNetwork, NetworkMainnet)
	v.SetDefault(KeyRPCURL, "")
	v.SetDefault(KeyPrivateKey, "")
	v.SetDefault(KeyContract, "")
	v.SetDefault(KeyGas, 21000)
	v.SetDefault(KeyTimeout, 120*time.Second)
	v.SetDefault(KeyPollInterval, 2*time.Second)
	v.SetDefault(KeyPriceURL, "")
	v.SetDefault(KeyVaultPath, "")
}

// DefaultPath is $HOME/.tokentransfer/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Dir is $HOME/.tokentransfer.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tokentransfer"), nil
}

// Load reads the config file at path into v and decodes the result. An empty
// path means DefaultPath; a missing default file is not an error, a missing
// explicit file is.
func Load(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if explicit || !missing {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the network name and numeric bounds.
func (c *Config) Validate() error {
	if _, err := LookupNetwork(c.Network); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative: %s", c.PollInterval)
	}
	return nil
}

// NetworkPreset returns the preset for the configured network.
func (c *Config) NetworkPreset() Network {
	n, _ := LookupNetwork(c.Network)
	return n
}

// Endpoint returns the explicit RPC URL, or the network preset's.
func (c *Config) Endpoint() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return c.NetworkPreset().RPCURL
}

// Vault returns the encrypted key file location, $HOME/.tokentransfer/key.vault
// unless vault_path is set.
func (c *Config) Vault() (string, error) {
	if c.VaultPath != "" {
		return c.VaultPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "key.vault"), nil
}

// TokenMode reports whether a token contract is configured.
func (c *Config) TokenMode() bool {
	return c.Contract != ""
}

// SaveNetwork stores network in the config file at path (DefaultPath when
// empty), keeping any other settings already in the file. Only the file's
// own contents are written, never values from flags or the environment.
func SaveNetwork(path, network string) (string, error) {
	if _, err := LookupNetwork(network); err != nil {
		return "", err
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("yaml")
	if err := file.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	file.Set(KeyNetwork, strings.ToLower(network))
	if err := file.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
