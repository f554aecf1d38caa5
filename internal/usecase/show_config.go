package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-safe/internal/domain/config"
)

// ConfigValue is one selectable key of the local config
type ConfigValue struct {
	Key   config.ConfigKey
	Value string
}

// ShowConfigResult lists every selectable key in a stable order. Values are
// empty when the key is unset or no config file exists.
type ShowConfigResult struct {
	Path   string
	Exists bool
	Values []ConfigValue
}

// IsEmpty reports whether no key is set
func (r *ShowConfigResult) IsEmpty() bool {
	for _, v := range r.Values {
		if v.Value != "" {
			return false
		}
	}
	return true
}

// ShowConfig reports the network and Safe selected by .treb-safe/config.json
type ShowConfig struct {
	store LocalConfigStore
}

// NewShowConfig creates a new ShowConfig use case
func NewShowConfig(store LocalConfigStore) *ShowConfig {
	return &ShowConfig{store: store}
}

// Run reads the local selection
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	result := &ShowConfigResult{
		Path:   uc.store.GetPath(),
		Exists: uc.store.Exists(),
	}

	local := &config.LocalConfig{}
	if result.Exists {
		loaded, err := uc.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		local = loaded
	}

	for _, key := range config.ValidConfigKeys() {
		result.Values = append(result.Values, ConfigValue{Key: key, Value: local.Get(key)})
	}
	return result, nil
}
