package network

import (
	"context"
	"math/big"
	"testing"

	"gmboard/pkg/config"
	"gmboard/pkg/models"
	"gmboard/pkg/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConnection struct {
	mock.Mock
}

func (m *MockConnection) Source() wallet.Source { return wallet.SourceInjected }

func (m *MockConnection) ChainID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConnection) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	args := m.Called(ctx)
	return args.Get(0).([]common.Address), args.Error(1)
}

func (m *MockConnection) Send(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	args := m.Called(ctx, result, method, params)
	return args.Error(0)
}

func (m *MockConnection) Signer(ctx context.Context, account common.Address) (wallet.Signer, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(wallet.Signer), args.Error(1)
}

func (m *MockConnection) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(*big.Int), args.Error(1)
}

type recordingJournal struct {
	lines []string
}

func (j *recordingJournal) AddLog(msg string) models.LogEntry {
	j.lines = append(j.lines, msg)
	return models.LogEntry{Message: msg}
}

func TestEnsureNetwork_AlreadyOnTarget(t *testing.T) {
	conn := new(MockConnection)
	conn.On("ChainID", mock.Anything).Return(int64(8453), nil)
	journal := &recordingJournal{}
	g := NewGuard(config.Base, journal, nil)

	require.NoError(t, g.EnsureNetwork(context.Background(), conn))
	require.NoError(t, g.EnsureNetwork(context.Background(), conn))

	conn.AssertNumberOfCalls(t, "ChainID", 2)
	conn.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, journal.lines)
}

func TestEnsureNetwork_SwitchSucceeds(t *testing.T) {
	conn := new(MockConnection)
	conn.On("ChainID", mock.Anything).Return(int64(1), nil)
	conn.On("Send", mock.Anything, nil, "wallet_switchEthereumChain",
		[]interface{}{config.SwitchChainParams{ChainID: "0x2105"}}).Return(nil)
	journal := &recordingJournal{}
	g := NewGuard(config.Base, journal, nil)

	require.NoError(t, g.EnsureNetwork(context.Background(), conn))

	conn.AssertExpectations(t)
	conn.AssertNumberOfCalls(t, "Send", 1)
	assert.Equal(t, []string{"Switching network..."}, journal.lines)
}

func TestEnsureNetwork_SwitchThenAdd(t *testing.T) {
	conn := new(MockConnection)
	conn.On("ChainID", mock.Anything).Return(int64(1), nil)
	conn.On("Send", mock.Anything, nil, "wallet_switchEthereumChain", mock.Anything).
		Return(&wallet.ProviderError{Code: wallet.CodeUnrecognizedChain, Message: "Unrecognized chain ID"})

	var added config.AddChainParams
	conn.On("Send", mock.Anything, nil, "wallet_addEthereumChain", mock.Anything).
		Run(func(args mock.Arguments) {
			params := args.Get(3).([]interface{})
			added = params[0].(config.AddChainParams)
		}).Return(nil)

	g := NewGuard(config.Base, &recordingJournal{}, nil)
	require.NoError(t, g.EnsureNetwork(context.Background(), conn))

	conn.AssertExpectations(t)
	assert.Equal(t, "0x2105", added.ChainID)
	assert.Equal(t, "Base Mainnet", added.ChainName)
	assert.Equal(t, []string{"https://mainnet.base.org"}, added.RPCURLs)
	assert.Equal(t, config.NativeCurrency{Name: "ETH", Symbol: "ETH", Decimals: 18}, added.NativeCurrency)
	assert.Equal(t, []string{"https://basescan.org"}, added.BlockExplorerURLs)
}

func TestEnsureNetwork_NestedUnrecognizedCode(t *testing.T) {
	conn := new(MockConnection)
	conn.On("ChainID", mock.Anything).Return(int64(10), nil)
	conn.On("Send", mock.Anything, nil, "wallet_switchEthereumChain", mock.Anything).
		Return(&wallet.ProviderError{
			Code:    wallet.CodeInternal,
			Message: "internal error",
			Data:    map[string]interface{}{"originalError": map[string]interface{}{"code": float64(4902)}},
		})
	conn.On("Send", mock.Anything, nil, "wallet_addEthereumChain", mock.Anything).Return(nil)

	g := NewGuard(config.Base, nil, nil)
	require.NoError(t, g.EnsureNetwork(context.Background(), conn))
	conn.AssertNumberOfCalls(t, "Send", 2)
}

func TestEnsureNetwork_OtherFailure(t *testing.T) {
	conn := new(MockConnection)
	conn.On("ChainID", mock.Anything).Return(int64(1), nil)
	rejected := &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "User rejected the request."}
	conn.On("Send", mock.Anything, nil, "wallet_switchEthereumChain", mock.Anything).Return(rejected)

	g := NewGuard(config.Base, nil, nil)
	err := g.EnsureNetwork(context.Background(), conn)

	var serr *SwitchError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, wallet.CodeUserRejected, wallet.ErrorCode(err))
	assert.Contains(t, err.Error(), "User rejected the request.")
	conn.AssertNumberOfCalls(t, "Send", 1)
}

func TestEnsureNetwork_AddFails(t *testing.T) {
	conn := new(MockConnection)
	conn.On("ChainID", mock.Anything).Return(int64(1), nil)
	conn.On("Send", mock.Anything, nil, "wallet_switchEthereumChain", mock.Anything).
		Return(&wallet.ProviderError{Code: wallet.CodeUnrecognizedChain, Message: "unknown"})
	conn.On("Send", mock.Anything, nil, "wallet_addEthereumChain", mock.Anything).
		Return(&wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "denied"})

	g := NewGuard(config.Base, nil, nil)
	err := g.EnsureNetwork(context.Background(), conn)

	var serr *SwitchError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "Base Mainnet", serr.Chain)
}

func TestEnsureNetwork_ChainIDError(t *testing.T) {
	conn := new(MockConnection)
	conn.On("ChainID", mock.Anything).Return(int64(0), errors.New("provider gone"))

	g := NewGuard(config.Base, nil, nil)
	err := g.EnsureNetwork(context.Background(), conn)

	var serr *SwitchError
	require.True(t, errors.As(err, &serr))
	conn.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
