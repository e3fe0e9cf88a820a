// Package wallet discovers a wallet provider and exposes it as a Connection.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-faster/errors"
)

// Source identifies where a connection came from.
type Source string

const (
	SourceBridge   Source = "bridge"
	SourceInjected Source = "injected"
)

// Provider is an EIP-1193 style request channel. *rpc.Client satisfies it.
type Provider interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Connection is the uniform capability the rest of the client talks to.
type Connection interface {
	Source() Source
	ChainID(ctx context.Context) (int64, error)
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	Send(ctx context.Context, result interface{}, method string, params ...interface{}) error
	Signer(ctx context.Context, account common.Address) (Signer, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// TxRequest is a transaction the signer should authorize and broadcast.
type TxRequest struct {
	To    common.Address
	Value *big.Int
	Gas   uint64
	Data  []byte
}

// Signer authorizes transactions for a single account.
type Signer interface {
	Address() common.Address
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// TransactionArgs is the eth_sendTransaction parameter object.
type TransactionArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Gas   hexutil.Uint64  `json:"gas,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

type providerConnection struct {
	source   Source
	provider Provider
}

// NewConnection wraps a provider as a Connection.
func NewConnection(source Source, p Provider) Connection {
	return &providerConnection{source: source, provider: p}
}

func (c *providerConnection) Source() Source { return c.source }

func (c *providerConnection) ChainID(ctx context.Context) (int64, error) {
	var id hexutil.Big
	if err := c.provider.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	return id.ToInt().Int64(), nil
}

func (c *providerConnection) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.provider.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *providerConnection) Send(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	return c.provider.CallContext(ctx, result, method, params...)
}

func (c *providerConnection) Signer(ctx context.Context, account common.Address) (Signer, error) {
	var accounts []common.Address
	if err := c.provider.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, errors.Wrap(err, "list accounts")
	}
	for _, a := range accounts {
		if a == account {
			return &providerSigner{provider: c.provider, address: account}, nil
		}
	}
	return nil, errors.Errorf("account %s is not authorized", account.Hex())
}

func (c *providerConnection) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var bal hexutil.Big
	if err := c.provider.CallContext(ctx, &bal, "eth_getBalance", account, "latest"); err != nil {
		return nil, err
	}
	return bal.ToInt(), nil
}

type providerSigner struct {
	provider Provider
	address  common.Address
}

func (s *providerSigner) Address() common.Address { return s.address }

// SendTransaction returns as soon as the provider accepts the transaction.
func (s *providerSigner) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	to := req.To
	args := TransactionArgs{
		From: s.address,
		To:   &to,
		Gas:  hexutil.Uint64(req.Gas),
		Data: req.Data,
	}
	if req.Value != nil {
		args.Value = (*hexutil.Big)(req.Value)
	}
	var hash common.Hash
	if err := s.provider.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}
