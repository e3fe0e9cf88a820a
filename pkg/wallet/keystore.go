package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"gmboard/pkg/config"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Backend is the node access the keystore wallet needs on its active network.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// DialFunc opens a Backend for an RPC URL.
type DialFunc func(ctx context.Context, rawurl string) (Backend, error)

// DialBackend dials a go-ethereum client.
func DialBackend(ctx context.Context, rawurl string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// KeystoreWallet is an in-process EIP-1193 provider backed by an encrypted
// keystore directory. It behaves like a browser-injected wallet: it has its
// own active network and only knows the networks it was given or told to add.
type KeystoreWallet struct {
	ks         *keystore.KeyStore
	account    string
	passphrase string
	dial       DialFunc
	logger     *zap.Logger

	requesting sync.Mutex

	mu         sync.Mutex
	networks   map[int64]string
	active     int64
	backends   map[int64]Backend
	authorized []accounts.Account
}

// OpenKeyStore opens an encrypted keystore directory.
func OpenKeyStore(dir string) *keystore.KeyStore {
	return keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
}

// NewKeystoreWallet wraps ks as a provider. The first network in networks
// becomes the active one.
func NewKeystoreWallet(ks *keystore.KeyStore, account, passphrase string, networks []config.WalletNetwork, logger *zap.Logger) *KeystoreWallet {
	w := &KeystoreWallet{
		ks:         ks,
		account:    account,
		passphrase: passphrase,
		dial:       DialBackend,
		logger:     logger,
		networks:   make(map[int64]string),
		backends:   make(map[int64]Backend),
	}
	for i, n := range networks {
		w.networks[n.ChainID] = n.RPCURL
		if i == 0 {
			w.active = n.ChainID
		}
	}
	return w
}

// SetDialer overrides how network backends are opened (useful for testing).
func (w *KeystoreWallet) SetDialer(d DialFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dial = d
}

// KeyStore exposes the underlying keystore.
func (w *KeystoreWallet) KeyStore() *keystore.KeyStore {
	return w.ks
}

// Available reports whether the keystore holds any account.
func (w *KeystoreWallet) Available() bool {
	return len(w.ks.Accounts()) > 0
}

// ActiveChainID returns the network the wallet is currently on.
func (w *KeystoreWallet) ActiveChainID() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// CallContext dispatches a provider request.
func (w *KeystoreWallet) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	w.logger.Debug("wallet request", zap.String("method", method))
	switch method {
	case "eth_requestAccounts":
		accs, err := w.requestAccounts()
		if err != nil {
			return err
		}
		return deliver(result, accs)
	case "eth_accounts":
		return deliver(result, w.authorizedAddresses())
	case "eth_chainId":
		return deliver(result, (*hexutil.Big)(big.NewInt(w.ActiveChainID())))
	case "wallet_switchEthereumChain":
		var p config.SwitchChainParams
		if err := decodeParam(args, 0, &p); err != nil {
			return err
		}
		return w.switchChain(p)
	case "wallet_addEthereumChain":
		var p config.AddChainParams
		if err := decodeParam(args, 0, &p); err != nil {
			return err
		}
		return w.addChain(p)
	case "eth_getBalance":
		var addr common.Address
		if err := decodeParam(args, 0, &addr); err != nil {
			return err
		}
		backend, _, err := w.activeBackend(ctx)
		if err != nil {
			return err
		}
		bal, err := backend.BalanceAt(ctx, addr, nil)
		if err != nil {
			return err
		}
		return deliver(result, (*hexutil.Big)(bal))
	case "eth_sendTransaction":
		var tx TransactionArgs
		if err := decodeParam(args, 0, &tx); err != nil {
			return err
		}
		hash, err := w.sendTransaction(ctx, tx)
		if err != nil {
			return err
		}
		return deliver(result, hash)
	default:
		return &ProviderError{Code: CodeUnsupportedMethod, Message: fmt.Sprintf("method %s is not supported", method)}
	}
}

func (w *KeystoreWallet) requestAccounts() ([]common.Address, error) {
	if !w.requesting.TryLock() {
		return nil, &ProviderError{
			Code:    CodeResourceUnavailable,
			Message: "Already processing eth_requestAccounts. Please wait.",
		}
	}
	defer w.requesting.Unlock()

	all := w.ks.Accounts()
	if len(all) == 0 {
		return []common.Address{}, nil
	}
	acc := all[0]
	if w.account != "" {
		found, err := w.ks.Find(accounts.Account{Address: common.HexToAddress(w.account)})
		if err != nil {
			return nil, &ProviderError{Code: CodeUserRejected, Message: "account " + w.account + " is not in the keystore"}
		}
		acc = found
	}
	if err := w.ks.Unlock(acc, w.passphrase); err != nil {
		return nil, &ProviderError{Code: CodeUserRejected, Message: "User rejected the request: " + err.Error()}
	}

	w.mu.Lock()
	w.authorized = []accounts.Account{acc}
	w.mu.Unlock()
	w.logger.Info("keystore account unlocked", zap.String("address", acc.Address.Hex()))
	return []common.Address{acc.Address}, nil
}

func (w *KeystoreWallet) authorizedAddresses() []common.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]common.Address, 0, len(w.authorized))
	for _, a := range w.authorized {
		out = append(out, a.Address)
	}
	return out
}

func (w *KeystoreWallet) switchChain(p config.SwitchChainParams) error {
	id, err := hexutil.DecodeBig(p.ChainID)
	if err != nil {
		return &ProviderError{Code: CodeInvalidParams, Message: "invalid chainId: " + p.ChainID}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.networks[id.Int64()]; !ok {
		return &ProviderError{
			Code:    CodeUnrecognizedChain,
			Message: fmt.Sprintf("Unrecognized chain ID %q. Try adding the chain using wallet_addEthereumChain first.", p.ChainID),
		}
	}
	w.active = id.Int64()
	w.logger.Info("wallet switched network", zap.Int64("chain_id", w.active))
	return nil
}

func (w *KeystoreWallet) addChain(p config.AddChainParams) error {
	id, err := hexutil.DecodeBig(p.ChainID)
	if err != nil {
		return &ProviderError{Code: CodeInvalidParams, Message: "invalid chainId: " + p.ChainID}
	}
	if len(p.RPCURLs) == 0 {
		return &ProviderError{Code: CodeInvalidParams, Message: "rpcUrls must not be empty"}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.networks[id.Int64()] = p.RPCURLs[0]
	delete(w.backends, id.Int64())
	w.active = id.Int64()
	w.logger.Info("wallet added network",
		zap.Int64("chain_id", w.active),
		zap.String("name", p.ChainName),
		zap.String("rpc", p.RPCURLs[0]))
	return nil
}

func (w *KeystoreWallet) activeBackend(ctx context.Context) (Backend, int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.active
	if b, ok := w.backends[id]; ok {
		return b, id, nil
	}
	url, ok := w.networks[id]
	if !ok {
		return nil, 0, &ProviderError{Code: CodeInternal, Message: fmt.Sprintf("no RPC configured for chain %d", id)}
	}
	b, err := w.dial(ctx, url)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "dial %s", url)
	}
	w.backends[id] = b
	return b, id, nil
}

func (w *KeystoreWallet) sendTransaction(ctx context.Context, args TransactionArgs) (common.Hash, error) {
	var acc *accounts.Account
	w.mu.Lock()
	for i := range w.authorized {
		if w.authorized[i].Address == args.From {
			acc = &w.authorized[i]
		}
	}
	w.mu.Unlock()
	if acc == nil {
		return common.Hash{}, &ProviderError{Code: CodeUserRejected, Message: "sender " + args.From.Hex() + " is not authorized"}
	}
	if args.Gas == 0 {
		return common.Hash{}, &ProviderError{Code: CodeInvalidParams, Message: "gas limit is required"}
	}

	backend, chainID, err := w.activeBackend(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	nonce, err := backend.PendingNonceAt(ctx, acc.Address)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "pending nonce")
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "suggest gas price")
	}
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      uint64(args.Gas),
		To:       args.To,
		Value:    value,
		Data:     args.Data,
	})
	signed, err := w.ks.SignTx(*acc, tx, big.NewInt(chainID))
	if err != nil {
		return common.Hash{}, &ProviderError{Code: CodeUserRejected, Message: err.Error()}
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	w.logger.Info("transaction broadcast",
		zap.String("hash", signed.Hash().Hex()),
		zap.Int64("chain_id", chainID),
		zap.Uint64("nonce", nonce))
	return signed.Hash(), nil
}

func decodeParam(args []interface{}, i int, dst interface{}) error {
	if i >= len(args) {
		return &ProviderError{Code: CodeInvalidParams, Message: fmt.Sprintf("missing parameter %d", i)}
	}
	raw, err := json.Marshal(args[i])
	if err != nil {
		return &ProviderError{Code: CodeInvalidParams, Message: err.Error()}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ProviderError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func deliver(result interface{}, v interface{}) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}
