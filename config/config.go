package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"scapechain/crypto"
)

// DefaultUnitPriceWei is 0.02 ether, the observed sale price.
const DefaultUnitPriceWei = "20000000000000000"

// DefaultPhaseMinutes is the companion-only initial phase length.
const DefaultPhaseMinutes = 618

type Config struct {
	RPCAddress   string `toml:"RPCAddress"`
	MetricsPath  string `toml:"MetricsPath"`
	DataDir      string `toml:"DataDir"`
	LogFile      string `toml:"LogFile"`
	NetworkName  string `toml:"NetworkName"`
	AdminToken   string `toml:"AdminToken"`
	OwnerAddress string `toml:"OwnerAddress"`
	FeeRecipient string `toml:"FeeRecipient"`

	UnitPriceWei      string `toml:"UnitPriceWei"`
	SaleStart         int64  `toml:"SaleStart"`
	RefundOverpayment bool   `toml:"RefundOverpayment"`
	EntropySeed       string `toml:"EntropySeed"`
	MetadataCID       string `toml:"MetadataCID"`
	ContractMetaURL   string `toml:"ContractMetaURL"`

	// ReferenceHolders lists addresses holding the external reference
	// collectible; they are excluded from the free companion claim. An empty
	// list disables the exclusion.
	ReferenceHolders []string `toml:"ReferenceHolders"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8545"
	}
	if strings.TrimSpace(cfg.MetricsPath) == "" {
		cfg.MetricsPath = "/metrics"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./scaped-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "scape-local"
	}
	if strings.TrimSpace(cfg.UnitPriceWei) == "" {
		cfg.UnitPriceWei = DefaultUnitPriceWei
	}
}

// Validate rejects configurations the node cannot start with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if _, err := crypto.DecodeAddress(cfg.OwnerAddress); err != nil {
		return fmt.Errorf("invalid OwnerAddress: %w", err)
	}
	if _, err := crypto.DecodeAddress(cfg.FeeRecipient); err != nil {
		return fmt.Errorf("invalid FeeRecipient: %w", err)
	}
	if _, ok := new(big.Int).SetString(strings.TrimSpace(cfg.UnitPriceWei), 10); !ok {
		return fmt.Errorf("invalid UnitPriceWei: %q", cfg.UnitPriceWei)
	}
	if cfg.SaleStart < 0 {
		return fmt.Errorf("negative SaleStart")
	}
	for _, holder := range cfg.ReferenceHolders {
		if _, err := crypto.DecodeAddress(strings.TrimSpace(holder)); err != nil {
			return fmt.Errorf("invalid ReferenceHolders entry %q: %w", holder, err)
		}
	}
	return nil
}

// UnitPrice parses the configured unit price.
func (c *Config) UnitPrice() *big.Int {
	price, ok := new(big.Int).SetString(strings.TrimSpace(c.UnitPriceWei), 10)
	if !ok {
		return big.NewInt(0)
	}
	return price
}

// OwnerBytes returns the raw administrator address.
func (c *Config) OwnerBytes() ([20]byte, error) {
	return addressBytes(c.OwnerAddress)
}

// FeeRecipientBytes returns the raw fee beneficiary address.
func (c *Config) FeeRecipientBytes() ([20]byte, error) {
	return addressBytes(c.FeeRecipient)
}

// ReferenceHolderBytes returns the raw reference-collection holder addresses.
func (c *Config) ReferenceHolderBytes() ([][20]byte, error) {
	out := make([][20]byte, 0, len(c.ReferenceHolders))
	for _, holder := range c.ReferenceHolders {
		raw, err := addressBytes(strings.TrimSpace(holder))
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func addressBytes(encoded string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(encoded)
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

// createDefault creates and saves a default configuration file. The generated
// owner key is for local development; production deployments replace the
// owner address before launch.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	owner := key.PubKey().Address().String()
	cfg := &Config{
		OwnerAddress: owner,
		FeeRecipient: owner,
	}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
