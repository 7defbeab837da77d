package domain

// ConfigKey names a persisted AI setting.
type ConfigKey string

const (
	ConfigProvider          ConfigKey = "provider"
	ConfigModel             ConfigKey = "model"
	ConfigIncludeSampleDocs ConfigKey = "includeSampleDocs"
	ConfigDefaultCollection ConfigKey = "defaultCollection"
	ConfigParallelRequests  ConfigKey = "parallelRequests"
)

// ConfigKeys lists the settings in display order.
var ConfigKeys = []ConfigKey{
	ConfigProvider,
	ConfigModel,
	ConfigIncludeSampleDocs,
	ConfigDefaultCollection,
	ConfigParallelRequests,
}

// IsConfigKey reports whether key is a known setting.
func IsConfigKey(key string) bool {
	for _, k := range ConfigKeys {
		if string(k) == key {
			return true
		}
	}
	return false
}

// DefaultModel is the sentinel selecting the backend's built-in model.
const DefaultModel = "default"

// Settings is a validated snapshot of the AI configuration.
type Settings struct {
	Provider          ProviderName `yaml:"provider"`
	Model             string       `yaml:"model"`
	IncludeSampleDocs bool         `yaml:"includeSampleDocs"`
	DefaultCollection string       `yaml:"defaultCollection,omitempty"`
	ParallelRequests  bool         `yaml:"parallelRequests"`
}

// DefaultSettings returns the built-in settings before env overrides.
func DefaultSettings() Settings {
	return Settings{
		Provider: ProviderMongoDB,
		Model:    DefaultModel,
	}
}

// Value returns the setting stored under key.
func (s Settings) Value(key ConfigKey) (interface{}, bool) {
	switch key {
	case ConfigProvider:
		return string(s.Provider), true
	case ConfigModel:
		return s.Model, true
	case ConfigIncludeSampleDocs:
		return s.IncludeSampleDocs, true
	case ConfigDefaultCollection:
		return s.DefaultCollection, true
	case ConfigParallelRequests:
		return s.ParallelRequests, true
	default:
		return nil, false
	}
}

// With returns a copy of s with key set to an already validated value.
func (s Settings) With(key ConfigKey, value interface{}) Settings {
	switch key {
	case ConfigProvider:
		s.Provider = ProviderName(value.(string))
	case ConfigModel:
		s.Model = value.(string)
	case ConfigIncludeSampleDocs:
		s.IncludeSampleDocs = value.(bool)
	case ConfigDefaultCollection:
		s.DefaultCollection = value.(string)
	case ConfigParallelRequests:
		s.ParallelRequests = value.(bool)
	}
	return s
}

// SingleFlight reports whether only one generation may be in flight.
// The knowledge-base provider ignores parallelRequests.
func (s Settings) SingleFlight() bool {
	if s.Provider == ProviderMongoDB {
		return true
	}
	return !s.ParallelRequests
}

// ConfigChange is emitted once per successful set.
type ConfigChange struct {
	Key   ConfigKey
	Value interface{}
}
