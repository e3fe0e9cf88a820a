package wallet

import (
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-faster/errors"
)

// EIP-1193 / EIP-3085 provider error codes.
const (
	CodeUserRejected        = 4001
	CodeUnsupportedMethod   = 4200
	CodeUnrecognizedChain   = 4902
	CodeResourceUnavailable = -32002
	CodeInvalidParams       = -32602
	CodeInternal            = -32603
)

// ErrNoWallet is returned when neither provider source is present.
var ErrNoWallet = errors.New("no wallet available")

// ProviderError is an error reported by a wallet provider.
type ProviderError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *ProviderError) Error() string { return e.Message }

// ErrorCode implements rpc.Error.
func (e *ProviderError) ErrorCode() int { return e.Code }

// ErrorData implements rpc.DataError.
func (e *ProviderError) ErrorData() interface{} { return e.Data }

// ErrorCode extracts the provider error code from err, or 0.
func ErrorCode(err error) int {
	var rerr rpc.Error
	if errors.As(err, &rerr) {
		return rerr.ErrorCode()
	}
	return 0
}

// IsUnrecognizedChain reports whether err means the wallet does not know the
// requested chain. Some mobile wallets nest the code in the error data.
func IsUnrecognizedChain(err error) bool {
	if ErrorCode(err) == CodeUnrecognizedChain {
		return true
	}
	var derr rpc.DataError
	if !errors.As(err, &derr) {
		return false
	}
	data, ok := derr.ErrorData().(map[string]interface{})
	if !ok {
		return false
	}
	orig, ok := data["originalError"].(map[string]interface{})
	if !ok {
		return false
	}
	code, ok := orig["code"].(float64)
	return ok && int(code) == CodeUnrecognizedChain
}

// IsRequestPending reports whether the wallet already has a request in flight.
func IsRequestPending(err error) bool {
	if err == nil {
		return false
	}
	return ErrorCode(err) == CodeResourceUnavailable || strings.Contains(err.Error(), "Already processing")
}
