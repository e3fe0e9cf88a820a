package config

import (
	"math/big"
	"time"
)

// ChainConfig describes the network the message board lives on.
type ChainConfig struct {
	Name            string
	ChainID         int64
	ChainIDHex      string
	RPCURL          string
	CurrencyName    string
	CurrencySymbol  string
	Decimals        int
	ExplorerURL     string
	ContractAddress string
}

// Base is the only network the board is deployed on.
var Base = ChainConfig{
	Name:            "Base Mainnet",
	ChainID:         8453,
	ChainIDHex:      "0x2105",
	RPCURL:          "https://mainnet.base.org",
	CurrencyName:    "ETH",
	CurrencySymbol:  "ETH",
	Decimals:        18,
	ExplorerURL:     "https://basescan.org",
	ContractAddress: "0x1DbaA8fC7431218e5E501D70870811893ba0b2A4",
}

const (
	// PublishGasLimit is the gas ceiling attached to every postMessage call.
	PublishGasLimit uint64 = 500000
	// RefreshDelay is how long the publisher waits before reloading the feed.
	RefreshDelay = 5 * time.Second
)

// PublishFee returns the payment attached to postMessage (0.000001 ETH).
func PublishFee() *big.Int {
	return big.NewInt(1_000_000_000_000)
}

// NativeCurrency is the currency block of an add-network request.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// AddChainParams is the wallet_addEthereumChain descriptor.
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	RPCURLs           []string       `json:"rpcUrls"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// SwitchChainParams is the wallet_switchEthereumChain argument.
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// Descriptor builds the add-network request for the chain.
func (c ChainConfig) Descriptor() AddChainParams {
	p := AddChainParams{
		ChainID:   c.ChainIDHex,
		ChainName: c.Name,
		RPCURLs:   []string{c.RPCURL},
		NativeCurrency: NativeCurrency{
			Name:     c.CurrencyName,
			Symbol:   c.CurrencySymbol,
			Decimals: c.Decimals,
		},
	}
	if c.ExplorerURL != "" {
		p.BlockExplorerURLs = []string{c.ExplorerURL}
	}
	return p
}
