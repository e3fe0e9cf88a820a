// Package contract holds the message board ABI and its call encoding.
package contract

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-faster/errors"
)

const boardABI = `[
	{"type":"function","name":"postMessage","stateMutability":"payable",
	 "inputs":[{"name":"_text","type":"string"}],"outputs":[]},
	{"type":"function","name":"getMessages","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"tuple[]","components":[
		{"name":"user","type":"address"},
		{"name":"text","type":"string"},
		{"name":"timestamp","type":"uint256"}]}]}
]`

const (
	MethodGetMessages = "getMessages"
	MethodPostMessage = "postMessage"
)

// ABI is the parsed message board interface.
var ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(boardABI))
	if err != nil {
		panic(err)
	}
	ABI = parsed
}

// RawMessage is one record as returned by getMessages.
type RawMessage struct {
	User      common.Address
	Text      string
	Timestamp *big.Int
}

func PackGetMessages() ([]byte, error) {
	return ABI.Pack(MethodGetMessages)
}

// UnpackMessages decodes getMessages return data, preserving contract order.
func UnpackMessages(data []byte) ([]RawMessage, error) {
	out, err := ABI.Unpack(MethodGetMessages, data)
	if err != nil {
		return nil, errors.Wrap(err, "unpack getMessages")
	}
	if len(out) != 1 {
		return nil, errors.Errorf("unpack getMessages: expected 1 output, got %d", len(out))
	}
	msgs := *abi.ConvertType(out[0], new([]RawMessage)).(*[]RawMessage)
	return msgs, nil
}

// PackMessages encodes records the way the contract returns them.
func PackMessages(msgs []RawMessage) ([]byte, error) {
	return ABI.Methods[MethodGetMessages].Outputs.Pack(msgs)
}

func PackPostMessage(text string) ([]byte, error) {
	return ABI.Pack(MethodPostMessage, text)
}
