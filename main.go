package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gmboard/pkg/board"
	"gmboard/pkg/config"
	"gmboard/pkg/feed"
	"gmboard/pkg/logging"
	"gmboard/pkg/models"
	"gmboard/pkg/network"
	"gmboard/pkg/publisher"
	"gmboard/pkg/rpc"
	"gmboard/pkg/server"
	"gmboard/pkg/session"
	"gmboard/pkg/state"
	"gmboard/pkg/tui"
	"gmboard/pkg/wallet"

	"go.uber.org/zap"
)

// Version should be set during build
var Version = "dev"

const logFileName = ".gmboard.log"

func main() {
	testFlag := flag.Bool("t", false, "Test configuration and exit")
	testLongFlag := flag.Bool("test", false, "Test configuration and exit")
	jsonFlag := flag.Bool("json", false, "Output test results as JSON")
	configFlag := flag.String("config", "", "Path to configuration file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	serverFlag := flag.Bool("server", false, "Run in headless server mode")
	portFlag := flag.Int("port", 8080, "Port for API server")
	hostFlag := flag.String("host", server.DefaultHost, "Interface for API server")
	initFlag := flag.Bool("init", false, "Write a default configuration file and exit")
	restoreFlag := flag.Bool("restore", false, "Restore the most recent configuration backup and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("gmboard version %s\n", Version)
		os.Exit(0)
	}

	cfgInput := *configFlag
	if cfgInput == "" && len(flag.Args()) > 0 {
		cfgInput = flag.Args()[0]
	}
	path, err := config.GetConfigPath(cfgInput)
	if err != nil {
		fmt.Printf("Error determining config path: %v\n", err)
		os.Exit(1)
	}

	if *restoreFlag {
		if err := config.RestoreLastBackup(path); err != nil {
			fmt.Printf("Failed to restore %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Restored %s from the latest backup.\n", path)
		os.Exit(0)
	}

	if *initFlag {
		if err := config.SaveConfig(config.DefaultSettings(), path); err != nil {
			fmt.Printf("Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		os.Exit(0)
	}

	settings, err := config.LoadConfigFromFile(path)
	if err != nil {
		fmt.Printf("Error loading config from %s: %v\n", path, err)
		os.Exit(1)
	}

	if *testFlag || *testLongFlag {
		if !*jsonFlag {
			fmt.Printf("Testing configuration at: %s\n", path)
		}
		report := runConfigTest(path, settings)
		if *jsonFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		} else {
			printReport(os.Stdout, report)
		}
		if len(report.Errors) > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	logger, err := logging.New(settings.LogLevel, logPath(settings, path, *serverFlag))
	if err != nil {
		fmt.Printf("Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := newBoard(settings, logger)
	srv := server.NewServer(b, apiConfig(*hostFlag, *serverFlag), logger)

	if *serverFlag {
		fmt.Printf("Running in server mode on %s:%d...\n", *hostFlag, *portFlag)
		go b.Start(ctx)
		if err := srv.Start(ctx, *portFlag); err != nil {
			logger.Error("API server stopped", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	go func() {
		if err := srv.Start(ctx, *portFlag); err != nil {
			logger.Error("API server stopped", zap.Error(err))
		}
	}()

	tui.Start(ctx, b, []string{settings.FeedRPCURL(), config.Base.RPCURL}, Version)
}

// logPath keeps the terminal clean in TUI mode by logging to a file next to
// the configuration unless a log file is configured.
func logPath(s config.Settings, configPath string, serverMode bool) string {
	if s.LogFile != "" || serverMode {
		return s.LogFile
	}
	return filepath.Join(filepath.Dir(configPath), logFileName)
}

// apiConfig exposes the wallet routes only in headless mode. Next to the TUI
// the API is a read-only mirror.
func apiConfig(host string, serverMode bool) server.Config {
	return server.Config{Host: host, ReadOnly: !serverMode}
}

// newBoard wires the message board for the Base chain.
func newBoard(s config.Settings, logger *zap.Logger) *board.Board {
	store := state.NewStore(logger)

	var injected wallet.Injected
	if s.KeystoreDir != "" {
		ks := wallet.OpenKeyStore(s.KeystoreDir)
		injected = wallet.NewKeystoreWallet(ks, s.Account, s.Passphrase, s.WalletNetworks, logger)
	}
	resolver := wallet.NewResolver(s.BridgeURL, injected, logger)

	guard := network.NewGuard(config.Base, store, logger)
	messages := feed.New(s.FeedRPCURL(), config.Base.ContractAddress, logger)
	connector := session.NewConnector(resolver, guard, messages, logger)
	pub := publisher.New(config.Base.ContractAddress, connector, guard, messages, logger)

	return board.New(store, config.Base, resolver, messages, connector, pub, logger)
}

// runConfigTest probes everything the board depends on and collects the
// failures in the report.
func runConfigTest(path string, s config.Settings) models.TestReport {
	report := models.TestReport{
		ConfigPath:    path,
		TargetChainID: config.Base.ChainID,
	}

	report.FeedRPC = rpc.ProbeEndpoint(s.FeedRPCURL(), config.Base.ChainID)
	switch {
	case report.FeedRPC.Status != "ok", !report.FeedRPC.Verified:
		report.Errors = append(report.Errors, fmt.Sprintf("Feed RPC %s: %s", report.FeedRPC.URL, report.FeedRPC.Error))
	default:
		deployed, err := rpc.ContractDeployed(s.FeedRPCURL(), config.Base.ContractAddress)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Contract check failed: %v", err))
			break
		}
		report.ContractDeployed = deployed
		if !deployed {
			report.Errors = append(report.Errors, fmt.Sprintf("No contract code at %s", config.Base.ContractAddress))
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		msgs, err := feed.New(s.FeedRPCURL(), config.Base.ContractAddress, nil).Load(ctx)
		cancel()
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to read messages: %v", err))
			break
		}
		report.MessageCount = len(msgs)
	}

	if s.BridgeURL != "" {
		bridge := rpc.ProbeBridge(s.BridgeURL)
		report.Bridge = &bridge
		if bridge.Status != "ok" {
			report.Errors = append(report.Errors, fmt.Sprintf("Wallet bridge %s: %s", bridge.URL, bridge.Error))
		}
	}

	if s.KeystoreDir != "" {
		report.KeystoreAccounts = len(wallet.OpenKeyStore(s.KeystoreDir).Accounts())
		if report.KeystoreAccounts == 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("No accounts in keystore %s", s.KeystoreDir))
		}
	}

	if s.BridgeURL == "" && s.KeystoreDir == "" {
		report.Errors = append(report.Errors, "No wallet configured: set bridge_url or keystore_dir.")
	}
	return report
}

func printReport(w io.Writer, r models.TestReport) {
	feedRPC := r.FeedRPC
	_, _ = fmt.Fprintf(w, "  Feed RPC: %s ... ", feedRPC.URL)
	if feedRPC.Status != "ok" {
		_, _ = fmt.Fprintf(w, "Failed: %s\n", feedRPC.Error)
	} else {
		_, _ = fmt.Fprintf(w, "OK (ChainID: %d, %s)", feedRPC.ChainID, feedRPC.Latency.Round(time.Millisecond))
		if feedRPC.Verified {
			_, _ = fmt.Fprintln(w, " - Verified")
		} else {
			_, _ = fmt.Fprintf(w, " - MISMATCH! Expected %d\n", r.TargetChainID)
		}
	}
	if r.ContractDeployed {
		_, _ = fmt.Fprintf(w, "  Contract: deployed, %d messages\n", r.MessageCount)
	}
	if r.Bridge != nil {
		if r.Bridge.Status == "ok" {
			_, _ = fmt.Fprintf(w, "  Wallet bridge: %s ... OK (ChainID: %d)\n", r.Bridge.URL, r.Bridge.ChainID)
		} else {
			_, _ = fmt.Fprintf(w, "  Wallet bridge: %s ... Failed: %s\n", r.Bridge.URL, r.Bridge.Error)
		}
	}
	if r.KeystoreAccounts > 0 {
		_, _ = fmt.Fprintf(w, "  Keystore: %d accounts\n", r.KeystoreAccounts)
	}

	if len(r.Errors) == 0 {
		_, _ = fmt.Fprintln(w, "\nConfiguration OK.")
		return
	}
	_, _ = fmt.Fprintln(w, "\nProblems found:")
	for _, e := range r.Errors {
		_, _ = fmt.Fprintf(w, " - %s\n", e)
	}
}
