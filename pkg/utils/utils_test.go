package utils

import (
	"math/big"
	"testing"
	"unicode/utf8"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "he..."},
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"", 5, ""},
		{"abc", 2, "ab"},
		{"abc", 3, "abc"},
		{"Ошибка: отклонено", 9, "Ошибка..."},
		{"héllo", 5, "héllo"},
		{"日本語テキスト", 2, "日本"},
	}

	for _, tt := range tests {
		result := TruncateString(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("TruncateString(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
		if !utf8.ValidString(result) {
			t.Errorf("TruncateString(%q, %d) produced invalid UTF-8", tt.input, tt.length)
		}
	}
}

func TestShortAddress(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", "0xAb58"},
		{"0x12", "0x12"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ShortAddress(tt.input); got != tt.expected {
			t.Errorf("ShortAddress(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatEther(t *testing.T) {
	oneAndHalf, _ := new(big.Int).SetString("1500000000000000000", 10)
	tests := []struct {
		input    *big.Int
		expected string
	}{
		{nil, "0"},
		{big.NewInt(0), "0"},
		{oneAndHalf, "1.5"},
		{big.NewInt(1_000_000_000_000), "0.000001"},
		{big.NewInt(1), "0.000000000000000001"},
	}

	for _, tt := range tests {
		if got := FormatEther(tt.input); got != tt.expected {
			t.Errorf("FormatEther(%v) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		input    string
		places   int32
		expected string
	}{
		{"1.5", 4, "1.5000"},
		{"0.000000000000000001", 4, "0.0000"},
		{"12.34567", 4, "12.3457"},
		{"garbage", 4, "garbage"},
	}

	for _, tt := range tests {
		if got := FormatBalance(tt.input, tt.places); got != tt.expected {
			t.Errorf("FormatBalance(%q, %d) = %q; want %q", tt.input, tt.places, got, tt.expected)
		}
	}
}
