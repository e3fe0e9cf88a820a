package session

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"gmboard/pkg/config"
	"gmboard/pkg/network"
	"gmboard/pkg/state"
	"gmboard/pkg/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccount = common.HexToAddress("0x1234567890AbcdEF1234567890aBcdef12345678")

// scriptedProvider answers wallet requests from fixed state and records them.
type scriptedProvider struct {
	mu         sync.Mutex
	calls      []string
	chainID    int64
	accounts   []common.Address
	requestErr error
	switchErr  error
	balanceErr error
	balance    *big.Int
}

func (p *scriptedProvider) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, method)
	switch method {
	case "eth_requestAccounts":
		if p.requestErr != nil {
			return p.requestErr
		}
		*result.(*[]common.Address) = p.accounts
	case "eth_chainId":
		*result.(*hexutil.Big) = hexutil.Big(*big.NewInt(p.chainID))
	case "wallet_switchEthereumChain":
		if p.switchErr != nil {
			return p.switchErr
		}
		p.chainID = config.Base.ChainID
	case "wallet_addEthereumChain":
		p.chainID = config.Base.ChainID
	case "eth_getBalance":
		if p.balanceErr != nil {
			return p.balanceErr
		}
		*result.(*hexutil.Big) = hexutil.Big(*p.balance)
	}
	return nil
}

func (p *scriptedProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type staticResolver struct {
	provider wallet.Provider
}

func (r staticResolver) Resolve(ctx context.Context) wallet.Connection {
	if r.provider == nil {
		return nil
	}
	return wallet.NewConnection(wallet.SourceInjected, r.provider)
}

type countingFeed struct {
	refreshes int
}

func (f *countingFeed) Refresh(ctx context.Context, store *state.Store) error {
	f.refreshes++
	return nil
}

func newConnector(p wallet.Provider, store *state.Store) (*Connector, *countingFeed) {
	feed := &countingFeed{}
	guard := network.NewGuard(config.Base, store, nil)
	var r staticResolver
	if p != nil {
		r.provider = p
	}
	return NewConnector(r, guard, feed, nil), feed
}

func logMessages(store *state.Store) []string {
	var out []string
	for _, e := range store.Logs() {
		out = append(out, e.Message)
	}
	return out
}

func TestConnect_NoWallet(t *testing.T) {
	store := state.NewStore(nil)
	c, feed := newConnector(nil, store)

	err := c.Connect(context.Background(), store)

	assert.True(t, errors.Is(err, wallet.ErrNoWallet))
	_, ok := store.Session()
	assert.False(t, ok)
	assert.Zero(t, feed.refreshes)
	assert.Contains(t, logMessages(store), "Error: no wallet available")
}

func TestConnect_SwitchesThenAddsNetwork(t *testing.T) {
	store := state.NewStore(nil)
	p := &scriptedProvider{
		chainID:   1,
		accounts:  []common.Address{testAccount},
		switchErr: &wallet.ProviderError{Code: wallet.CodeUnrecognizedChain, Message: "Unrecognized chain ID"},
		balance:   big.NewInt(1_500_000_000_000_000_000),
	}
	c, feed := newConnector(p, store)

	require.NoError(t, c.Connect(context.Background(), store))

	assert.Equal(t, []string{
		"eth_requestAccounts",
		"eth_chainId",
		"wallet_switchEthereumChain",
		"wallet_addEthereumChain",
		"eth_getBalance",
	}, p.Calls())

	sess, ok := store.Session()
	require.True(t, ok)
	assert.Equal(t, testAccount.Hex(), sess.Address)
	assert.Equal(t, "1.5", sess.NativeBalance)
	assert.NotNil(t, store.Connection())
	assert.Equal(t, 1, feed.refreshes)

	logs := logMessages(store)
	assert.Equal(t, "Connected: 0x1234", logs[0])
	assert.Contains(t, logs, "Switching network...")
	assert.Contains(t, logs, "Connecting...")
}

func TestConnect_AlreadyOnTarget(t *testing.T) {
	store := state.NewStore(nil)
	p := &scriptedProvider{
		chainID:  config.Base.ChainID,
		accounts: []common.Address{testAccount},
		balance:  big.NewInt(0),
	}
	c, _ := newConnector(p, store)

	require.NoError(t, c.Connect(context.Background(), store))
	assert.Equal(t, []string{"eth_requestAccounts", "eth_chainId", "eth_getBalance"}, p.Calls())

	sess, _ := store.Session()
	assert.Equal(t, "0", sess.NativeBalance)
}

func TestConnect_PendingRequest(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"code", &wallet.ProviderError{Code: wallet.CodeResourceUnavailable, Message: "Request already pending"}},
		{"message", errors.New("Already processing eth_requestAccounts. Please wait.")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := state.NewStore(nil)
			c, _ := newConnector(&scriptedProvider{requestErr: tt.err}, store)

			err := c.Connect(context.Background(), store)

			assert.True(t, errors.Is(err, ErrPendingRequest))
			_, ok := store.Session()
			assert.False(t, ok)
		})
	}
}

func TestConnect_UserCancelledIsSilent(t *testing.T) {
	store := state.NewStore(nil)
	c, feed := newConnector(&scriptedProvider{accounts: []common.Address{}}, store)

	err := c.Connect(context.Background(), store)

	assert.True(t, errors.Is(err, ErrUserCancelled))
	_, ok := store.Session()
	assert.False(t, ok)
	assert.Zero(t, feed.refreshes)
	for _, l := range logMessages(store) {
		assert.NotContains(t, l, "Error:")
	}
}

func TestConnect_SwitchRejectedLeavesNoSession(t *testing.T) {
	store := state.NewStore(nil)
	p := &scriptedProvider{
		chainID:   1,
		accounts:  []common.Address{testAccount},
		switchErr: &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "User rejected the request."},
		balance:   big.NewInt(1),
	}
	c, _ := newConnector(p, store)

	err := c.Connect(context.Background(), store)

	var serr *network.SwitchError
	require.True(t, errors.As(err, &serr))
	_, ok := store.Session()
	assert.False(t, ok)
	assert.NotContains(t, p.Calls(), "eth_getBalance")
	assert.Contains(t, logMessages(store)[0], "Error: ")
}

func TestConnect_BalanceFailureLeavesNoSession(t *testing.T) {
	store := state.NewStore(nil)
	p := &scriptedProvider{
		chainID:    config.Base.ChainID,
		accounts:   []common.Address{testAccount},
		balanceErr: errors.New("header not found"),
	}
	c, feed := newConnector(p, store)

	err := c.Connect(context.Background(), store)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "header not found")
	_, ok := store.Session()
	assert.False(t, ok)
	assert.Nil(t, store.Connection())
	assert.Zero(t, feed.refreshes)
	assert.Equal(t, "Error: read balance: header not found", logMessages(store)[0])
}

func TestDisconnect(t *testing.T) {
	store := state.NewStore(nil)
	p := &scriptedProvider{chainID: config.Base.ChainID, accounts: []common.Address{testAccount}, balance: big.NewInt(0)}
	c, _ := newConnector(p, store)
	require.NoError(t, c.Connect(context.Background(), store))

	c.Disconnect(store)

	_, ok := store.Session()
	assert.False(t, ok)
	assert.Equal(t, "Disconnected", logMessages(store)[0])

	// no-op without a session
	c.Disconnect(store)
	assert.Equal(t, "Disconnected", logMessages(store)[0])
	assert.NotEqual(t, "Disconnected", logMessages(store)[1])
}
