package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
)

// DataDirName is the per-project state directory
const DataDirName = ".treb-safe"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	project, err := LoadProjectConfig(projectRoot)
	if err != nil {
		return nil, err
	}
	applyProjectDefaults(v, project.Defaults)

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, DataDirName),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		ServiceURL:     v.GetString("service_url"),
		SignerKey:      v.GetString("signer_key"),
		BatchLimit:     v.GetInt("batch_limit"),
		MonitorTimeout: v.GetDuration("monitor_timeout"),
		PollInterval:   v.GetDuration("poll_interval"),
		TrackIndexing:  v.GetBool("track_indexing"),
		MetricsAddr:    v.GetString("metrics_addr"),
		Store: config.StoreConfig{
			Driver: config.StoreDriver(v.GetString("store.driver")),
			DSN:    os.ExpandEnv(v.GetString("store.dsn")),
		},
	}

	networkName := v.GetString("network")

	if ref := v.GetString("safe"); ref != "" {
		safe, pinned, err := ResolveSafe(project, ref)
		if err != nil {
			return nil, err
		}
		if version := v.GetString("safe_version"); version != "" {
			safe.Version = version
		}
		cfg.Safe = safe
		if networkName == "" {
			networkName = pinned
		}
	}

	if networkName != "" {
		network, err := ResolveNetwork(project, networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		if rpcURL := v.GetString("rpc_url"); rpcURL != "" {
			network.RPCURL = rpcURL
		}
		cfg.Network = network

		if address := project.Networks[networkName].MultiSendCallOnly; address != "" {
			cfg.MultiSendCallOnly = common.HexToAddress(address)
		}
	}

	if address := v.GetString("multisend_call_only"); address != "" {
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid multisend_call_only address %q", address)
		}
		cfg.MultiSendCallOnly = common.HexToAddress(address)
	}

	switch cfg.Store.Driver {
	case config.StoreDriverFile, config.StoreDriverPostgres:
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	return cfg, nil
}

// applyProjectDefaults lowers safe.toml defaults below flags, env and the local config
func applyProjectDefaults(v *viper.Viper, defaults config.ProjectDefaults) {
	if defaults.Network != "" {
		v.SetDefault("network", defaults.Network)
	}
	if defaults.Safe != "" {
		v.SetDefault("safe", defaults.Safe)
	}
	if defaults.MonitorTimeout != "" {
		if d, err := time.ParseDuration(defaults.MonitorTimeout); err == nil {
			v.SetDefault("monitor_timeout", d)
		}
	}
	if defaults.PollInterval != "" {
		if d, err := time.ParseDuration(defaults.PollInterval); err == nil {
			v.SetDefault("poll_interval", d)
		}
	}
	if defaults.BatchLimit > 0 {
		v.SetDefault("batch_limit", defaults.BatchLimit)
	}
	if defaults.TrackIndexing {
		v.SetDefault("track_indexing", true)
	}
}

// FindProjectRoot walks up from the current directory to find safe.toml.
// The current directory is used when none is found.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up config file
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	// Set up environment variables
	v.SetEnvPrefix("TREB_SAFE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("project_root", projectRoot)
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("batch_limit", 20)
	v.SetDefault("monitor_timeout", "30m")
	v.SetDefault("poll_interval", "2s")
	v.SetDefault("store.driver", string(config.StoreDriverFile))

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}
