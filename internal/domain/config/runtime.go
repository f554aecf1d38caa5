package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network *Network    // nil if not specified
	Safe    *SafeConfig // nil if no account was selected

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Review queue
	ServiceURL string // empty means the public service of the chain

	// Signing
	SignerKey string // hex encoded private key of the owner

	// Pipeline settings
	MultiSendCallOnly common.Address
	BatchLimit        int
	MonitorTimeout    time.Duration // 0 waits forever
	PollInterval      time.Duration
	TrackIndexing     bool // keep mined entries as INDEXING until the backend reports them

	// Pending state persistence
	Store StoreConfig

	// Metrics
	MetricsAddr string
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ServiceURL  string `json:"serviceUrl,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// SafeConfig identifies the account the pipeline acts on
type SafeConfig struct {
	Name    string         `json:"name,omitempty"`
	Address common.Address `json:"address"`
	Version string         `json:"version,omitempty"` // empty means ask the backend
}

// StoreDriver selects where pending entries are persisted
type StoreDriver string

const (
	StoreDriverFile     StoreDriver = "file"
	StoreDriverPostgres StoreDriver = "postgres"
)

// StoreConfig configures pending state persistence
type StoreConfig struct {
	Driver StoreDriver
	DSN    string
}
