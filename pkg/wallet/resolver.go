package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// bridgeReadyMethod tells the frame host that the client has finished loading.
const bridgeReadyMethod = "fc_ready"

// BridgeDialer opens the frame-host bridge provider.
type BridgeDialer func(ctx context.Context, rawurl string) (Provider, error)

// DialBridge connects to the bridge over http(s) or ws(s).
func DialBridge(ctx context.Context, rawurl string) (Provider, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Injected is the generic injected wallet source.
type Injected interface {
	Provider
	Available() bool
}

// Resolver picks a wallet provider: the frame-host bridge first, then the
// injected wallet.
type Resolver struct {
	BridgeURL   string
	Injected    Injected
	DialBridge  BridgeDialer
	DialTimeout time.Duration
	logger      *zap.Logger

	mu     sync.Mutex
	bridge Provider
}

func NewResolver(bridgeURL string, injected Injected, logger *zap.Logger) *Resolver {
	return &Resolver{
		BridgeURL:   bridgeURL,
		Injected:    injected,
		DialBridge:  DialBridge,
		DialTimeout: 10 * time.Second,
		logger:      logger,
	}
}

// Resolve returns a connection to the first available source, or nil.
func (r *Resolver) Resolve(ctx context.Context) Connection {
	if p := r.bridgeProvider(ctx); p != nil {
		return NewConnection(SourceBridge, p)
	}
	if r.Injected != nil && r.Injected.Available() {
		return NewConnection(SourceInjected, r.Injected)
	}
	return nil
}

// Ready signals the frame host, if any, that the client is up. Failures are
// logged and otherwise ignored.
func (r *Resolver) Ready(ctx context.Context) {
	p := r.bridgeProvider(ctx)
	if p == nil {
		return
	}
	if err := p.CallContext(ctx, nil, bridgeReadyMethod); err != nil {
		r.logger.Warn("frame host ready signal failed", zap.Error(err))
	}
}

func (r *Resolver) bridgeProvider(ctx context.Context) Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bridge != nil {
		return r.bridge
	}
	if r.BridgeURL == "" || r.DialBridge == nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, r.DialTimeout)
	defer cancel()
	p, err := r.DialBridge(dialCtx, r.BridgeURL)
	if err == nil {
		// http dials never touch the host, so ask it something.
		var id hexutil.Big
		if err = p.CallContext(dialCtx, &id, "eth_chainId"); err != nil {
			closeProvider(p)
		}
	}
	if err != nil {
		r.logger.Warn("frame host bridge unavailable", zap.String("url", r.BridgeURL), zap.Error(err))
		return nil
	}
	r.bridge = p
	return p
}

func closeProvider(p Provider) {
	if c, ok := p.(interface{ Close() }); ok {
		c.Close()
	}
}
