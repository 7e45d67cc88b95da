package driving

import "github.com/custodia-labs/rewind/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting from its string form.
	Set(key, value string) error

	// Keys returns the names of all settable keys.
	Keys() []string

	// Values returns every settable key with its effective value.
	Values() (map[string]string, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// DataSourceVersion returns the current data-source version.
	DataSourceVersion() int64

	// BumpDataSourceVersion increments and persists the data-source version.
	BumpDataSourceVersion() (int64, error)
}
