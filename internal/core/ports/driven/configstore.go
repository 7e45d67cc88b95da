package driven

import "time"

// ConfigStore provides access to application configuration.
// Keys use dot notation (e.g. "timeline.max_frames"). Implementations
// handle persistence and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetInt64 retrieves a 64-bit integer configuration value.
	GetInt64(key string) int64

	// GetFloat retrieves a float value. Integers are converted.
	GetFloat(key string) float64

	// GetDuration parses a duration string such as "10m".
	// Returns 0 if the key doesn't exist or doesn't parse.
	GetDuration(key string) time.Duration

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
