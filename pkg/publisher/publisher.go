// Package publisher submits new messages to the board as paid transactions.
package publisher

import (
	"context"
	"time"

	"gmboard/pkg/config"
	"gmboard/pkg/contract"
	"gmboard/pkg/models"
	"gmboard/pkg/state"
	"gmboard/pkg/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrAlreadySending = errors.New("a message is already being published")
)

// TransactionError carries the wallet's rejection or failure verbatim.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string { return e.Err.Error() }

func (e *TransactionError) Unwrap() error { return e.Err }

// Connector establishes a wallet session.
type Connector interface {
	Connect(ctx context.Context, store *state.Store) error
}

// NetworkGuard moves a connection to the board's network.
type NetworkGuard interface {
	EnsureNetwork(ctx context.Context, conn wallet.Connection) error
}

// Feed reloads messages and looks up receipts.
type Feed interface {
	Refresh(ctx context.Context, store *state.Store) error
	ReceiptStatus(ctx context.Context, hash common.Hash) (uint64, bool, error)
}

// Publisher sends postMessage and reconciles the feed after a fixed delay.
type Publisher struct {
	contract  common.Address
	connector Connector
	guard     NetworkGuard
	feed      Feed
	logger    *zap.Logger

	// RefreshDelay is how long to wait after submission before reloading.
	RefreshDelay time.Duration
}

func New(contractAddress string, connector Connector, guard NetworkGuard, feed Feed, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		contract:     common.HexToAddress(contractAddress),
		connector:    connector,
		guard:        guard,
		feed:         feed,
		logger:       logger,
		RefreshDelay: config.RefreshDelay,
	}
}

// Publish posts text to the board. Without a session it connects instead and
// returns without publishing. It blocks for the refresh delay after the
// wallet accepts the transaction.
func (p *Publisher) Publish(ctx context.Context, store *state.Store, text string) error {
	if text == "" {
		return ErrEmptyMessage
	}

	sess, ok := store.Session()
	conn := store.Connection()
	if !ok || conn == nil {
		return p.connector.Connect(ctx, store)
	}

	if !store.BeginSending() {
		return ErrAlreadySending
	}

	hash, err := p.submit(ctx, conn, sess, text)
	if err != nil {
		store.EndSending()
		store.AddLog("Error: " + err.Error())
		p.logger.Warn("publish failed", zap.Error(err))
		return err
	}

	store.ClearDraft()
	store.PrependPending(models.NewPendingMessage(sess.Address, text))
	store.AddLog("Sent! Waiting for update...")
	p.logger.Info("message submitted", zap.String("tx", hash.Hex()), zap.String("from", sess.Address))

	if err := p.wait(ctx); err != nil {
		store.EndSending()
		return err
	}
	p.logReceipt(ctx, hash)
	store.EndSending()

	_ = p.feed.Refresh(ctx, store)
	return nil
}

func (p *Publisher) submit(ctx context.Context, conn wallet.Connection, sess models.WalletSession, text string) (common.Hash, error) {
	if err := p.guard.EnsureNetwork(ctx, conn); err != nil {
		return common.Hash{}, err
	}

	signer, err := conn.Signer(ctx, common.HexToAddress(sess.Address))
	if err != nil {
		return common.Hash{}, &TransactionError{Err: err}
	}
	data, err := contract.PackPostMessage(text)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "encode postMessage")
	}

	hash, err := signer.SendTransaction(ctx, wallet.TxRequest{
		To:    p.contract,
		Value: config.PublishFee(),
		Gas:   config.PublishGasLimit,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, &TransactionError{Err: err}
	}
	return hash, nil
}

func (p *Publisher) wait(ctx context.Context) error {
	if p.RefreshDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.RefreshDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logReceipt records the receipt status if the transaction is already mined.
// It never changes what the feed shows.
func (p *Publisher) logReceipt(ctx context.Context, hash common.Hash) {
	status, found, err := p.feed.ReceiptStatus(ctx, hash)
	switch {
	case err != nil:
		p.logger.Debug("receipt lookup failed", zap.String("tx", hash.Hex()), zap.Error(err))
	case !found:
		p.logger.Info("transaction not yet mined", zap.String("tx", hash.Hex()))
	default:
		p.logger.Info("transaction mined", zap.String("tx", hash.Hex()), zap.Uint64("status", status))
	}
}
