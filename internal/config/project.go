package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
)

// ProjectFile is the project level configuration file
const ProjectFile = "safe.toml"

// loadEnvFiles loads .env and .env.local from the project root.
// Variables already present in the environment win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// LoadProjectConfig parses safe.toml and expands ${VAR} references.
// Returns an empty config when the file does not exist.
func LoadProjectConfig(projectRoot string) (*config.ProjectConfig, error) {
	loadEnvFiles(projectRoot)

	cfg := &config.ProjectConfig{
		Networks: map[string]config.NetworkConfig{},
		Safes:    map[string]config.SafeEntry{},
	}

	path := filepath.Join(projectRoot, ProjectFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}
	if cfg.Networks == nil {
		cfg.Networks = map[string]config.NetworkConfig{}
	}
	if cfg.Safes == nil {
		cfg.Safes = map[string]config.SafeEntry{}
	}

	for name, network := range cfg.Networks {
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		network.ServiceURL = os.ExpandEnv(network.ServiceURL)
		network.ExplorerURL = os.ExpandEnv(network.ExplorerURL)
		network.MultiSendCallOnly = os.ExpandEnv(network.MultiSendCallOnly)
		cfg.Networks[name] = network
	}
	for name, safe := range cfg.Safes {
		safe.Address = os.ExpandEnv(safe.Address)
		cfg.Safes[name] = safe
	}

	return cfg, nil
}

// ResolveNetwork builds the runtime network of the named [networks] table
func ResolveNetwork(project *config.ProjectConfig, name string) (*config.Network, error) {
	network, ok := project.Networks[name]
	if !ok {
		return nil, fmt.Errorf("network '%s' not found in %s", name, ProjectFile)
	}
	if network.ChainID == 0 {
		return nil, fmt.Errorf("network '%s' has no chain_id", name)
	}
	if network.MultiSendCallOnly != "" && !common.IsHexAddress(network.MultiSendCallOnly) {
		return nil, fmt.Errorf("network '%s' has an invalid multisend_call_only address", name)
	}

	return &config.Network{
		ChainID:     network.ChainID,
		Name:        name,
		RPCURL:      network.RPCURL,
		ServiceURL:  network.ServiceURL,
		ExplorerURL: network.ExplorerURL,
	}, nil
}

// ResolveSafe accepts either an address or the name of a [safes] table.
// The returned network name is empty unless the entry pins one.
func ResolveSafe(project *config.ProjectConfig, ref string) (*config.SafeConfig, string, error) {
	if common.IsHexAddress(ref) {
		return &config.SafeConfig{Address: common.HexToAddress(ref)}, "", nil
	}

	entry, ok := project.Safes[ref]
	if !ok {
		return nil, "", fmt.Errorf("safe '%s' not found in %s", ref, ProjectFile)
	}
	if !common.IsHexAddress(entry.Address) {
		return nil, "", fmt.Errorf("safe '%s' has an invalid address %q", ref, entry.Address)
	}

	return &config.SafeConfig{
		Name:    ref,
		Address: common.HexToAddress(entry.Address),
		Version: entry.Version,
	}, entry.Network, nil
}
