package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_Malformed(t *testing.T) {
	reader := strings.NewReader(`{ "bridge_url": `)
	_, err := LoadConfig(reader)
	if err == nil {
		t.Error("Expected error loading malformed config, got nil")
	}
}

func TestSaveConfig(t *testing.T) {
	tmpPath := filepath.Join(t.TempDir(), "config.json")

	s := DefaultSettings()
	s.BridgeURL = "ws://localhost:9000"
	s.KeystoreDir = "/tmp/keys"
	s.Passphrase = "secret"
	s.LogLevel = "debug"

	if err := SaveConfig(s, tmpPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	raw, err := os.ReadFile(tmpPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "secret") {
		t.Errorf("Passphrase must never be written to disk")
	}

	loaded, err := LoadConfigFromFile(tmpPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.BridgeURL != "ws://localhost:9000" {
		t.Errorf("Bridge URL mismatch: %s", loaded.BridgeURL)
	}
	if loaded.KeystoreDir != "/tmp/keys" {
		t.Errorf("Keystore dir mismatch: %s", loaded.KeystoreDir)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("Log level mismatch: %s", loaded.LogLevel)
	}
	if len(loaded.WalletNetworks) != 1 || loaded.WalletNetworks[0].ChainID != 1 {
		t.Errorf("Wallet networks mismatch: %+v", loaded.WalletNetworks)
	}
}

func TestSaveConfig_BackupAndRestore(t *testing.T) {
	tmpPath := filepath.Join(t.TempDir(), "config.json")

	first := DefaultSettings()
	first.Account = "0x1111111111111111111111111111111111111111"
	if err := SaveConfig(first, tmpPath); err != nil {
		t.Fatal(err)
	}
	second := DefaultSettings()
	second.Account = "0x2222222222222222222222222222222222222222"
	if err := SaveConfig(second, tmpPath); err != nil {
		t.Fatal(err)
	}

	if err := RestoreLastBackup(tmpPath); err != nil {
		t.Fatalf("RestoreLastBackup failed: %v", err)
	}
	restored, err := LoadConfigFromFile(tmpPath)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Account != first.Account {
		t.Errorf("Expected restored account %s, got %s", first.Account, restored.Account)
	}
}

func TestRestoreLastBackup_NoBackups(t *testing.T) {
	if err := RestoreLastBackup(filepath.Join(t.TempDir(), "config.json")); err == nil {
		t.Error("Expected error when no backups exist")
	}
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	s, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.LogLevel != "info" {
		t.Errorf("Expected default log level, got %s", s.LogLevel)
	}
	if s.FeedRPCURL() != Base.RPCURL {
		t.Errorf("Expected default feed RPC %s, got %s", Base.RPCURL, s.FeedRPCURL())
	}
}

func TestLoadConfigFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("GMBOARD_BRIDGE_URL", "http://bridge.local")
	t.Setenv("GMBOARD_PASSPHRASE", "hunter2")
	t.Setenv("GMBOARD_RPC_URL", "http://node.local")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"bridge_url": "http://file.local"}`), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.BridgeURL != "http://bridge.local" {
		t.Errorf("Expected env bridge URL, got %s", s.BridgeURL)
	}
	if s.Passphrase != "hunter2" {
		t.Errorf("Expected passphrase from env")
	}
	if s.FeedRPCURL() != "http://node.local" {
		t.Errorf("Expected feed RPC override, got %s", s.FeedRPCURL())
	}
}

func TestLoadConfig_TableDriven(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		jsonContent string
		expectError bool
		validate    func(*testing.T, Settings)
	}{
		{
			name: "Full Config",
			jsonContent: `{
				"bridge_url": " ws://host:1234 ",
				"keystore_dir": "/keys",
				"wallet_networks": [{"chain_id": 10, "rpc_url": "http://op"}],
				"log_level": "warn"
			}`,
			validate: func(t *testing.T, s Settings) {
				if s.BridgeURL != "ws://host:1234" {
					t.Errorf("Bridge URL not trimmed: %q", s.BridgeURL)
				}
				if len(s.WalletNetworks) != 1 || s.WalletNetworks[0].ChainID != 10 {
					t.Errorf("Wallet networks mismatch")
				}
				if s.LogLevel != "warn" {
					t.Errorf("Log level mismatch")
				}
			},
		},
		{
			name:        "Partial Config (Defaults)",
			jsonContent: `{"keystore_dir": "/keys"}`,
			validate: func(t *testing.T, s Settings) {
				if s.LogLevel != "info" {
					t.Errorf("Expected default log level info, got %s", s.LogLevel)
				}
				if len(s.WalletNetworks) != 1 || s.WalletNetworks[0].ChainID != 1 {
					t.Errorf("Expected default wallet network")
				}
			},
		},
		{
			name:        "Malformed JSON",
			jsonContent: `{ "wallet_networks": [ unclosed_array`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := LoadConfig(strings.NewReader(tt.jsonContent))

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if tt.validate != nil {
					tt.validate(t, s)
				}
			}
		})
	}
}

func TestSaveConfig_Validation(t *testing.T) {
	s := DefaultSettings()
	s.WalletNetworks = []WalletNetwork{{ChainID: 1}}
	if err := SaveConfig(s, filepath.Join(t.TempDir(), "c.json")); err == nil {
		t.Error("Expected validation error for network without RPC URL")
	}
}

func TestSaveConfig_PermissionError(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Chmod(tmpDir, 0500); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(tmpDir, 0700) }()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	err := SaveConfig(DefaultSettings(), filepath.Join(tmpDir, "config.json"))
	if err == nil {
		t.Error("Expected permission error, got nil")
	}
}

func TestDescriptor(t *testing.T) {
	d := Base.Descriptor()
	if d.ChainID != "0x2105" || d.ChainName != "Base Mainnet" {
		t.Errorf("Unexpected descriptor: %+v", d)
	}
	if len(d.RPCURLs) != 1 || d.RPCURLs[0] != "https://mainnet.base.org" {
		t.Errorf("RPC URLs mismatch: %v", d.RPCURLs)
	}
	if d.NativeCurrency.Decimals != 18 || d.NativeCurrency.Symbol != "ETH" {
		t.Errorf("Currency mismatch: %+v", d.NativeCurrency)
	}
	if len(d.BlockExplorerURLs) != 1 || d.BlockExplorerURLs[0] != "https://basescan.org" {
		t.Errorf("Explorer mismatch: %v", d.BlockExplorerURLs)
	}
	if PublishFee().String() != "1000000000000" {
		t.Errorf("Unexpected fee %s", PublishFee())
	}
}
