// Package network keeps the connected wallet on the board's network.
package network

import (
	"context"
	"fmt"

	"gmboard/pkg/config"
	"gmboard/pkg/models"
	"gmboard/pkg/wallet"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Journal receives user-facing activity lines.
type Journal interface {
	AddLog(msg string) models.LogEntry
}

// SwitchError means the wallet could not be moved to the target network.
type SwitchError struct {
	Chain string
	Err   error
}

func (e *SwitchError) Error() string {
	return fmt.Sprintf("failed to switch to %s: %v", e.Chain, e.Err)
}

func (e *SwitchError) Unwrap() error { return e.Err }

// Guard ensures a connection is on the target chain before signing.
type Guard struct {
	target  config.ChainConfig
	journal Journal
	logger  *zap.Logger
}

func NewGuard(target config.ChainConfig, journal Journal, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{target: target, journal: journal, logger: logger}
}

// Target returns the chain the guard enforces.
func (g *Guard) Target() config.ChainConfig {
	return g.target
}

// EnsureNetwork switches conn to the target chain, adding it to the wallet
// first if the wallet does not know it. It issues no requests besides the
// chain id lookup when conn is already on the target.
func (g *Guard) EnsureNetwork(ctx context.Context, conn wallet.Connection) error {
	current, err := conn.ChainID(ctx)
	if err != nil {
		return &SwitchError{Chain: g.target.Name, Err: errors.Wrap(err, "read chain id")}
	}
	if current == g.target.ChainID {
		return nil
	}

	g.log("Switching network...")
	g.logger.Info("requesting network switch",
		zap.Int64("from", current),
		zap.Int64("to", g.target.ChainID),
		zap.String("source", string(conn.Source())))

	err = conn.Send(ctx, nil, "wallet_switchEthereumChain", config.SwitchChainParams{ChainID: g.target.ChainIDHex})
	if err == nil {
		return nil
	}
	if !wallet.IsUnrecognizedChain(err) {
		return &SwitchError{Chain: g.target.Name, Err: err}
	}

	g.logger.Info("wallet does not know the chain, adding it", zap.Int64("chain_id", g.target.ChainID))
	if err := conn.Send(ctx, nil, "wallet_addEthereumChain", g.target.Descriptor()); err != nil {
		return &SwitchError{Chain: g.target.Name, Err: errors.Wrap(err, "add network")}
	}
	return nil
}

func (g *Guard) log(msg string) {
	if g.journal != nil {
		g.journal.AddLog(msg)
	}
}
