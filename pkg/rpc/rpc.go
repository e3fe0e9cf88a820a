// Package rpc probes JSON-RPC endpoints for the configuration test and the
// status bar.
package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"gmboard/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/go-faster/errors"
)

var ProbeTimeout = 10 * time.Second

// ProbeEndpoint checks that rpcURL answers and reports the chain it serves.
// When expectedChainID is non-zero the result is marked verified on a match.
func ProbeEndpoint(rpcURL string, expectedChainID int64) models.RPCResult {
	res := models.RPCResult{URL: rpcURL}
	ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()

	start := time.Now()
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
		return res
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		res.Status = "error"
		res.Error = fmt.Sprintf("Failed to get ChainID: %v", err)
		return res
	}
	if _, err := client.HeaderByNumber(ctx, nil); err != nil {
		res.Status = "error"
		res.ChainID = id.Int64()
		res.Error = fmt.Sprintf("Failed to get latest block: %v", err)
		return res
	}
	res.Status = "ok"
	res.ChainID = id.Int64()
	res.Latency = time.Since(start)

	if expectedChainID != 0 {
		if res.ChainID == expectedChainID {
			res.Verified = true
		} else {
			res.Error = fmt.Sprintf("Mismatch! Expected %d", expectedChainID)
		}
	}
	return res
}

// ProbeBridge checks that a wallet bridge answers eth_chainId. The bridge is
// any EIP-1193 endpoint, so only the raw RPC client is used.
func ProbeBridge(bridgeURL string) models.RPCResult {
	res := models.RPCResult{URL: bridgeURL}
	ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()

	start := time.Now()
	client, err := gethrpc.DialContext(ctx, bridgeURL)
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
		return res
	}
	defer client.Close()

	var id hexutil.Big
	if err := client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		res.Status = "error"
		res.Error = err.Error()
		return res
	}
	res.Status = "ok"
	res.ChainID = id.ToInt().Int64()
	res.Latency = time.Since(start)
	return res
}

// ContractDeployed reports whether code exists at address.
func ContractDeployed(rpcURL, address string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return false, err
	}
	defer client.Close()

	code, err := client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, errors.Wrap(err, "get code")
	}
	return len(code) > 0, nil
}

// FetchGasPrice returns the suggested gas price from the first RPC that
// answers, along with the RPCs that failed.
func FetchGasPrice(rpcURLs []string) (*big.Int, []string, error) {
	var failed []string
	var lastErr error
	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
		client, err := ethclient.DialContext(ctx, rpcURL)
		if err != nil {
			failed = append(failed, rpcURL)
			cancel()
			lastErr = err
			continue
		}
		price, err := client.SuggestGasPrice(ctx)
		client.Close()
		cancel()
		if err != nil {
			failed = append(failed, rpcURL)
			lastErr = err
			continue
		}
		return price, failed, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no RPC URLs")
	}
	return nil, failed, lastErr
}

// MaxPostCost is the most a post can cost: the fee plus the gas ceiling at
// gasPrice.
func MaxPostCost(fee *big.Int, gasLimit uint64, gasPrice *big.Int) *big.Int {
	total := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice)
	return total.Add(total, fee)
}
