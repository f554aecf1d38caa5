package config

// ProjectConfig is the parsed safe.toml of a project
type ProjectConfig struct {
	Defaults ProjectDefaults          `toml:"defaults"`
	Networks map[string]NetworkConfig `toml:"networks"`
	Safes    map[string]SafeEntry     `toml:"safes"`
}

// ProjectDefaults holds pipeline settings shared by every network
type ProjectDefaults struct {
	Network        string `toml:"network"`
	Safe           string `toml:"safe"`
	MonitorTimeout string `toml:"monitor_timeout"`
	PollInterval   string `toml:"poll_interval"`
	BatchLimit     int    `toml:"batch_limit"`
	TrackIndexing  bool   `toml:"track_indexing"`
}

// NetworkConfig is one [networks.<name>] table
type NetworkConfig struct {
	ChainID           uint64 `toml:"chain_id"`
	RPCURL            string `toml:"rpc_url"`
	ServiceURL        string `toml:"service_url,omitempty"`
	ExplorerURL       string `toml:"explorer_url,omitempty"`
	MultiSendCallOnly string `toml:"multisend_call_only,omitempty"`
}

// SafeEntry is one [safes.<name>] table
type SafeEntry struct {
	Address string `toml:"address"`
	Network string `toml:"network,omitempty"`
	Version string `toml:"version,omitempty"`
}
