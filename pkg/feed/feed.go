// Package feed reads the message board through a public RPC endpoint.
package feed

import (
	"context"
	"time"

	"gmboard/pkg/contract"
	"gmboard/pkg/models"
	"gmboard/pkg/state"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

var DefaultTimeout = 30 * time.Second

// Feed loads messages independently of any wallet.
type Feed struct {
	rpcURL   string
	contract common.Address
	Timeout  time.Duration
	logger   *zap.Logger
}

func New(rpcURL, contractAddress string, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		rpcURL:   rpcURL,
		contract: common.HexToAddress(contractAddress),
		Timeout:  DefaultTimeout,
		logger:   logger,
	}
}

// RPCURL returns the endpoint the feed reads from.
func (f *Feed) RPCURL() string {
	return f.rpcURL
}

func (f *Feed) dial(ctx context.Context) (context.Context, *ethclient.Client, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	client, err := ethclient.DialContext(ctx, f.rpcURL)
	if err != nil {
		cancel()
		return nil, nil, nil, errors.Wrapf(err, "dial %s", f.rpcURL)
	}
	return ctx, client, cancel, nil
}

// Load returns the board's messages, newest first.
func (f *Feed) Load(ctx context.Context) ([]models.Message, error) {
	ctx, client, cancel, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer client.Close()

	data, err := contract.PackGetMessages()
	if err != nil {
		return nil, err
	}
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &f.contract, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "call getMessages")
	}
	raw, err := contract.UnpackMessages(out)
	if err != nil {
		return nil, err
	}

	msgs := make([]models.Message, len(raw))
	for i, r := range raw {
		// contract order is oldest first
		msgs[len(raw)-1-i] = models.Message{
			Author:    r.User.Hex(),
			Text:      r.Text,
			Timestamp: r.Timestamp.Int64(),
		}
	}
	return msgs, nil
}

// Refresh replaces the store's feed. On failure the previous feed is kept.
func (f *Feed) Refresh(ctx context.Context, store *state.Store) error {
	msgs, err := f.Load(ctx)
	if err != nil {
		f.logger.Warn("failed to load messages", zap.String("rpc", f.rpcURL), zap.Error(err))
		return err
	}
	store.SetMessages(msgs)
	f.logger.Debug("feed refreshed", zap.Int("count", len(msgs)))
	return nil
}

// ReceiptStatus looks up a transaction receipt. found is false while the
// transaction is not yet mined.
func (f *Feed) ReceiptStatus(ctx context.Context, hash common.Hash) (status uint64, found bool, err error) {
	ctx, client, cancel, err := f.dial(ctx)
	if err != nil {
		return 0, false, err
	}
	defer cancel()
	defer client.Close()

	receipt, err := client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "transaction receipt")
	}
	return receipt.Status, true, nil
}
