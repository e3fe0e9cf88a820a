package models

import (
	"time"
)

// PendingLabel is shown in place of a timestamp for unconfirmed messages.
const PendingLabel = "Pending..."

// Message is a single entry of the on-chain message board.
type Message struct {
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Pending   bool   `json:"pending,omitempty"`
}

// NewPendingMessage builds the optimistic entry shown right after submission.
func NewPendingMessage(author, text string) Message {
	return Message{Author: author, Text: text, Pending: true}
}

// TimeLabel renders the message time for display.
func (m Message) TimeLabel() string {
	if m.Pending {
		return PendingLabel
	}
	return time.Unix(m.Timestamp, 0).Local().Format("2006-01-02 15:04:05")
}

// WalletSession is the connected account and its native balance.
type WalletSession struct {
	Address       string `json:"address"`
	NativeBalance string `json:"native_balance"`
}

// LogEntry is one line of the observational activity log.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

func (e LogEntry) String() string {
	return "[" + e.Timestamp + "] " + e.Message
}

// RPCResult holds probe results for a specific RPC URL.
type RPCResult struct {
	URL      string        `json:"url"`
	Status   string        `json:"status"` // "ok" or "error"
	ChainID  int64         `json:"chain_id,omitempty"`
	Latency  time.Duration `json:"latency_ns,omitempty"`
	Error    string        `json:"error,omitempty"`
	Verified bool          `json:"verified"`
}

// TestReport holds the results of the configuration test.
type TestReport struct {
	ConfigPath       string     `json:"config_path"`
	TargetChainID    int64      `json:"target_chain_id"`
	FeedRPC          RPCResult  `json:"feed_rpc"`
	ContractDeployed bool       `json:"contract_deployed"`
	MessageCount     int        `json:"message_count"`
	Bridge           *RPCResult `json:"bridge,omitempty"`
	KeystoreAccounts int        `json:"keystore_accounts"`
	Errors           []string   `json:"errors,omitempty"`
}
