// Package session establishes the wallet session of a client.
package session

import (
	"context"

	"gmboard/pkg/models"
	"gmboard/pkg/state"
	"gmboard/pkg/utils"
	"gmboard/pkg/wallet"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

var (
	// ErrPendingRequest means the wallet already shows a connection prompt.
	ErrPendingRequest = errors.New("a connection request is already pending in the wallet")
	// ErrUserCancelled means the wallet returned no account. It is not
	// surfaced to the user.
	ErrUserCancelled = errors.New("no account granted")
)

// Resolver finds a wallet connection.
type Resolver interface {
	Resolve(ctx context.Context) wallet.Connection
}

// NetworkGuard moves a connection to the board's network.
type NetworkGuard interface {
	EnsureNetwork(ctx context.Context, conn wallet.Connection) error
}

// FeedRefresher reloads the message feed into the store.
type FeedRefresher interface {
	Refresh(ctx context.Context, store *state.Store) error
}

// Connector runs the connect flow: resolve, request accounts, guard the
// network, read the balance.
type Connector struct {
	resolver Resolver
	guard    NetworkGuard
	feed     FeedRefresher
	logger   *zap.Logger
}

func NewConnector(resolver Resolver, guard NetworkGuard, feed FeedRefresher, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{resolver: resolver, guard: guard, feed: feed, logger: logger}
}

// Connect establishes the session in store. The session is only stored once
// every step succeeded. On success the feed is reloaded.
func (c *Connector) Connect(ctx context.Context, store *state.Store) error {
	conn := c.resolver.Resolve(ctx)
	if conn == nil {
		return c.fail(store, wallet.ErrNoWallet)
	}

	store.AddLog("Connecting...")
	accounts, err := conn.RequestAccounts(ctx)
	if err != nil {
		if wallet.IsRequestPending(err) {
			c.logger.Info("wallet request already pending", zap.Error(err))
			return c.fail(store, ErrPendingRequest)
		}
		return c.fail(store, err)
	}
	if len(accounts) == 0 {
		c.logger.Info("wallet returned no accounts")
		return ErrUserCancelled
	}
	account := accounts[0]

	if err := c.guard.EnsureNetwork(ctx, conn); err != nil {
		return c.fail(store, err)
	}

	balance, err := conn.BalanceAt(ctx, account)
	if err != nil {
		return c.fail(store, errors.Wrap(err, "read balance"))
	}

	sess := models.WalletSession{
		Address:       account.Hex(),
		NativeBalance: utils.FormatEther(balance),
	}
	store.SetSession(sess, conn)
	store.AddLog("Connected: " + utils.ShortAddress(sess.Address))
	c.logger.Info("wallet connected",
		zap.String("address", sess.Address),
		zap.String("source", string(conn.Source())),
		zap.String("balance", sess.NativeBalance))

	if c.feed != nil {
		_ = c.feed.Refresh(ctx, store)
	}
	return nil
}

// Disconnect drops the active session.
func (c *Connector) Disconnect(store *state.Store) {
	if _, ok := store.Session(); !ok {
		return
	}
	store.ClearSession()
	store.AddLog("Disconnected")
}

func (c *Connector) fail(store *state.Store, err error) error {
	store.AddLog("Error: " + err.Error())
	c.logger.Warn("connect failed", zap.Error(err))
	return err
}
