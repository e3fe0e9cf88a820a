// Package board bundles the client state with the operations that change it.
package board

import (
	"context"
	"strings"

	"gmboard/pkg/config"
	"gmboard/pkg/state"

	"go.uber.org/zap"
)

// Readier signals the frame host that the client is up.
type Readier interface {
	Ready(ctx context.Context)
}

// Feed reloads the message list into the store.
type Feed interface {
	Refresh(ctx context.Context, store *state.Store) error
}

// Connector establishes and drops the wallet session.
type Connector interface {
	Connect(ctx context.Context, store *state.Store) error
	Disconnect(store *state.Store)
}

// Publisher submits a message.
type Publisher interface {
	Publish(ctx context.Context, store *state.Store, text string) error
}

// Board is what presentation layers talk to.
type Board struct {
	store     *state.Store
	chain     config.ChainConfig
	ready     Readier
	feed      Feed
	connector Connector
	publisher Publisher
	logger    *zap.Logger
}

func New(store *state.Store, chain config.ChainConfig, ready Readier, feed Feed, connector Connector, publisher Publisher, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		store:     store,
		chain:     chain,
		ready:     ready,
		feed:      feed,
		connector: connector,
		publisher: publisher,
		logger:    logger,
	}
}

// Start signals readiness and performs the initial feed load. A failed load
// leaves the feed empty.
func (b *Board) Start(ctx context.Context) {
	if b.ready != nil {
		b.ready.Ready(ctx)
	}
	if err := b.feed.Refresh(ctx, b.store); err != nil {
		b.logger.Warn("initial feed load failed", zap.Error(err))
	}
}

func (b *Board) Connect(ctx context.Context) error {
	return b.connector.Connect(ctx, b.store)
}

func (b *Board) Disconnect() {
	b.connector.Disconnect(b.store)
}

func (b *Board) Publish(ctx context.Context, text string) error {
	return b.publisher.Publish(ctx, b.store, text)
}

func (b *Board) Refresh(ctx context.Context) error {
	return b.feed.Refresh(ctx, b.store)
}

func (b *Board) Store() *state.Store {
	return b.store
}

// Chain returns the network the board lives on.
func (b *Board) Chain() config.ChainConfig {
	return b.chain
}

// AddressURL links an address on the chain's block explorer.
func (b *Board) AddressURL(addr string) string {
	if b.chain.ExplorerURL == "" || addr == "" {
		return ""
	}
	return strings.TrimRight(b.chain.ExplorerURL, "/") + "/address/" + addr
}
