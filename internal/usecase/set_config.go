package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/trebuchet-org/treb-safe/internal/domain/config"
)

// SetConfigParams contains parameters for setting configuration
type SetConfigParams struct {
	Key   string
	Value string
}

// SetConfigResult contains the result of setting configuration
type SetConfigResult struct {
	UpdatedConfig *config.LocalConfig
	ConfigPath    string
	Key           config.ConfigKey
	Value         string
}

// SetConfig is a use case for setting local configuration values
type SetConfig struct {
	store LocalConfigStore
}

// NewSetConfig creates a new SetConfig use case
func NewSetConfig(store LocalConfigStore) *SetConfig {
	return &SetConfig{
		store: store,
	}
}

// Run executes the set config use case
func (uc *SetConfig) Run(ctx context.Context, params SetConfigParams) (*SetConfigResult, error) {
	key, err := parseConfigKey(params.Key)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Value) == "" {
		return nil, fmt.Errorf("value for %s must not be empty", key)
	}

	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	local.Set(key, params.Value)

	if err := uc.store.Save(ctx, local); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	return &SetConfigResult{
		UpdatedConfig: local,
		ConfigPath:    uc.store.GetPath(),
		Key:           key,
		Value:         params.Value,
	}, nil
}

func parseConfigKey(raw string) (config.ConfigKey, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if !config.IsValidConfigKey(key) {
		valid := make([]string, 0, len(config.ValidConfigKeys()))
		for _, k := range config.ValidConfigKeys() {
			valid = append(valid, string(k))
		}
		return "", fmt.Errorf("unknown config key: %s\nAvailable keys: %s", raw, strings.Join(valid, ", "))
	}
	return config.ConfigKey(key), nil
}
