package config

// LocalConfig holds per-checkout selections stored next to the pending file.
// Empty fields fall back to the safe.toml defaults.
type LocalConfig struct {
	Network string `json:"network,omitempty"`
	Safe    string `json:"safe,omitempty"`
}

// ConfigKey represents a configuration key
type ConfigKey string

const (
	ConfigKeyNetwork ConfigKey = "network"
	ConfigKeySafe    ConfigKey = "safe"
)

// DefaultLocalConfig returns the default local configuration
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{}
}

// ValidConfigKeys returns all valid configuration keys
func ValidConfigKeys() []ConfigKey {
	return []ConfigKey{
		ConfigKeyNetwork,
		ConfigKeySafe,
	}
}

// IsValidConfigKey checks if a key is valid
func IsValidConfigKey(key string) bool {
	for _, validKey := range ValidConfigKeys() {
		if string(validKey) == key {
			return true
		}
	}
	return false
}

// Get returns the value stored under key
func (c *LocalConfig) Get(key ConfigKey) string {
	switch key {
	case ConfigKeyNetwork:
		return c.Network
	case ConfigKeySafe:
		return c.Safe
	}
	return ""
}

// Set stores value under key. Unknown keys are ignored.
func (c *LocalConfig) Set(key ConfigKey, value string) {
	switch key {
	case ConfigKeyNetwork:
		c.Network = value
	case ConfigKeySafe:
		c.Safe = value
	}
}
