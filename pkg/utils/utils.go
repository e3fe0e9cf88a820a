package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TruncateString cuts str to at most num runes, ending in "..." when there
// is room for it.
func TruncateString(str string, num int) string {
	runes := []rune(str)
	if len(runes) <= num {
		return str
	}
	if num <= 3 {
		return string(runes[:num])
	}
	return string(runes[:num-3]) + "..."
}

// ShortAddress keeps the first six characters of an address ("0x1234").
func ShortAddress(addr string) string {
	if len(addr) <= 6 {
		return addr
	}
	return addr[:6]
}

// FormatEther converts a wei amount to an exact ether decimal string.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -18).String()
}

// FormatBalance renders a decimal ether string with a fixed number of places.
func FormatBalance(s string, places int32) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.StringFixed(places)
}
