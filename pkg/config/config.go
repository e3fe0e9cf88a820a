package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

const ConfigFileName = ".gmboard.json"

// WalletNetwork is a network the injected keystore wallet knows about at startup.
type WalletNetwork struct {
	ChainID int64  `json:"chain_id"`
	RPCURL  string `json:"rpc_url"`
}

// Settings holds user-level configuration. The target chain and contract are
// compiled in and never read from here.
type Settings struct {
	BridgeURL      string          `json:"bridge_url,omitempty" env:"GMBOARD_BRIDGE_URL"`
	KeystoreDir    string          `json:"keystore_dir,omitempty" env:"GMBOARD_KEYSTORE_DIR"`
	Account        string          `json:"account,omitempty" env:"GMBOARD_ACCOUNT"`
	Passphrase     string          `json:"-" env:"GMBOARD_PASSPHRASE"`
	WalletNetworks []WalletNetwork `json:"wallet_networks"`
	RPCURL         string          `json:"rpc_url,omitempty" env:"GMBOARD_RPC_URL"`
	LogLevel       string          `json:"log_level" env:"GMBOARD_LOG_LEVEL"`
	LogFile        string          `json:"log_file,omitempty" env:"GMBOARD_LOG_FILE"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		WalletNetworks: []WalletNetwork{{ChainID: 1, RPCURL: "https://ethereum-rpc.publicnode.com"}},
		LogLevel:       "info",
	}
}

// FeedRPCURL is the public endpoint the feed reads from.
func (s Settings) FeedRPCURL() string {
	if s.RPCURL != "" {
		return s.RPCURL
	}
	return Base.RPCURL
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadConfigFromFile reads settings from path and applies environment
// overrides. A missing file yields the defaults.
func LoadConfigFromFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		s := DefaultSettings()
		return s, applyEnv(&s)
	}
	if err != nil {
		return Settings{}, err
	}
	defer func() { _ = f.Close() }()
	s, err := LoadConfig(f)
	if err != nil {
		return Settings{}, err
	}
	return s, applyEnv(&s)
}

func LoadConfig(r io.Reader) (Settings, error) {
	var cfg struct {
		BridgeURL      string          `json:"bridge_url"`
		KeystoreDir    string          `json:"keystore_dir"`
		Account        string          `json:"account"`
		WalletNetworks []WalletNetwork `json:"wallet_networks"`
		RPCURL         string          `json:"rpc_url"`
		LogLevel       *string         `json:"log_level"`
		LogFile        string          `json:"log_file"`
	}
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Settings{}, err
	}

	s := DefaultSettings()
	s.BridgeURL = strings.TrimSpace(cfg.BridgeURL)
	s.KeystoreDir = cfg.KeystoreDir
	s.Account = cfg.Account
	s.RPCURL = strings.TrimSpace(cfg.RPCURL)
	s.LogFile = cfg.LogFile
	if len(cfg.WalletNetworks) > 0 {
		s.WalletNetworks = cfg.WalletNetworks
	}
	if cfg.LogLevel != nil {
		s.LogLevel = *cfg.LogLevel
	}
	return s, nil
}

func applyEnv(s *Settings) error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func SaveConfig(s Settings, path string) error {
	for i, n := range s.WalletNetworks {
		if n.ChainID <= 0 {
			return fmt.Errorf("validation failed: wallet network at index %d has no chain id", i)
		}
		if strings.TrimSpace(n.RPCURL) == "" {
			return fmt.Errorf("validation failed: wallet network %d has no RPC URL", n.ChainID)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}
