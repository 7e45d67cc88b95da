package services

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driven"
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
)

// Ensure SettingsService implements the interfaces.
var (
	_ driving.SettingsService    = (*SettingsService)(nil)
	_ driven.DataSourceVersioner = (*SettingsService)(nil)
)

// Config keys for settings storage.
const (
	keyMaxFrames         = "timeline.max_frames"
	keyLoadThreshold     = "timeline.load_threshold"
	keyLoadBatchSize     = "timeline.load_batch_size"
	keyJumpRadius        = "timeline.jump_radius"
	keyMaxImages         = "cache.max_images"
	keyPositionBackend   = "position.backend"
	keyPositionExpiry    = "position.expiry"
	keyDecodeRate        = "decode.rate"
	keyDecodeBurst       = "decode.burst"
	keyDataSourceVersion = "datasource.version"
)

// KeyDataSourceVersion is the config key holding the data-source version.
const KeyDataSourceVersion = keyDataSourceVersion

type settingKind int

const (
	kindInt settingKind = iota
	kindFloat
	kindDuration
	kindBackend
)

var settingKinds = map[string]settingKind{
	keyMaxFrames:       kindInt,
	keyLoadThreshold:   kindInt,
	keyLoadBatchSize:   kindInt,
	keyJumpRadius:      kindDuration,
	keyMaxImages:       kindInt,
	keyPositionBackend: kindBackend,
	keyPositionExpiry:  kindDuration,
	keyDecodeRate:      kindFloat,
	keyDecodeBurst:     kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore

	// serialises read-modify-write of the data-source version
	bumpMu sync.Mutex
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Timeline: domain.TimelineSettings{
			MaxFrames:     s.getInt(keyMaxFrames, defaults.Timeline.MaxFrames),
			LoadThreshold: s.getInt(keyLoadThreshold, defaults.Timeline.LoadThreshold),
			LoadBatchSize: s.getInt(keyLoadBatchSize, defaults.Timeline.LoadBatchSize),
			JumpRadius:    s.getDuration(keyJumpRadius, defaults.Timeline.JumpRadius),
		},
		Cache: domain.CacheSettings{
			MaxImages: s.getInt(keyMaxImages, defaults.Cache.MaxImages),
		},
		Position: domain.PositionSettings{
			Backend: s.getBackend(defaults.Position.Backend),
			Expiry:  s.getDuration(keyPositionExpiry, defaults.Position.Expiry),
		},
		Decode: domain.DecodeSettings{
			Rate:  s.getFloat(keyDecodeRate, defaults.Decode.Rate),
			Burst: s.getInt(keyDecodeBurst, defaults.Decode.Burst),
		},
	}

	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyMaxFrames, settings.Timeline.MaxFrames},
		{keyLoadThreshold, settings.Timeline.LoadThreshold},
		{keyLoadBatchSize, settings.Timeline.LoadBatchSize},
		{keyJumpRadius, settings.Timeline.JumpRadius.String()},
		{keyMaxImages, settings.Cache.MaxImages},
		{keyPositionBackend, settings.Position.Backend.String()},
		{keyPositionExpiry, settings.Position.Expiry.String()},
		{keyDecodeRate, settings.Decode.Rate},
		{keyDecodeBurst, settings.Decode.Burst},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates a single setting from its string form. The resulting
// settings must still validate.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects a duration such as 10m", domain.ErrInvalidInput, key)
		}
		parsed = d
	case kindBackend:
		if !domain.PositionBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown position backend %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	}

	// validate against the full settings before persisting
	current, err := s.Get()
	if err != nil {
		return err
	}
	candidate := *current
	applySetting(&candidate, key, parsed)
	if err := candidate.Validate(); err != nil {
		return err
	}
	if d, ok := parsed.(time.Duration); ok {
		parsed = d.String()
	}
	return s.configStore.Set(key, parsed)
}

func applySetting(a *domain.AppSettings, key string, v any) {
	switch key {
	case keyMaxFrames:
		a.Timeline.MaxFrames = v.(int)
	case keyLoadThreshold:
		a.Timeline.LoadThreshold = v.(int)
	case keyLoadBatchSize:
		a.Timeline.LoadBatchSize = v.(int)
	case keyJumpRadius:
		a.Timeline.JumpRadius = v.(time.Duration)
	case keyMaxImages:
		a.Cache.MaxImages = v.(int)
	case keyPositionBackend:
		a.Position.Backend = domain.PositionBackend(v.(string))
	case keyPositionExpiry:
		a.Position.Expiry = v.(time.Duration)
	case keyDecodeRate:
		a.Decode.Rate = v.(float64)
	case keyDecodeBurst:
		a.Decode.Burst = v.(int)
	}
}

// Keys returns the names of all settable keys.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns every settable key with its effective value in the string
// form accepted by Set.
func (s *SettingsService) Values() (map[string]string, error) {
	a, err := s.Get()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		keyMaxFrames:       strconv.Itoa(a.Timeline.MaxFrames),
		keyLoadThreshold:   strconv.Itoa(a.Timeline.LoadThreshold),
		keyLoadBatchSize:   strconv.Itoa(a.Timeline.LoadBatchSize),
		keyJumpRadius:      a.Timeline.JumpRadius.String(),
		keyMaxImages:       strconv.Itoa(a.Cache.MaxImages),
		keyPositionBackend: a.Position.Backend.String(),
		keyPositionExpiry:  a.Position.Expiry.String(),
		keyDecodeRate:      strconv.FormatFloat(a.Decode.Rate, 'g', -1, 64),
		keyDecodeBurst:     strconv.Itoa(a.Decode.Burst),
	}, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// DataSourceVersion returns the current data-source version.
func (s *SettingsService) DataSourceVersion() int64 {
	return s.configStore.GetInt64(keyDataSourceVersion)
}

// BumpDataSourceVersion increments and persists the data-source version.
func (s *SettingsService) BumpDataSourceVersion() (int64, error) {
	s.bumpMu.Lock()
	defer s.bumpMu.Unlock()
	v := s.configStore.GetInt64(keyDataSourceVersion) + 1
	if err := s.configStore.Set(keyDataSourceVersion, v); err != nil {
		return 0, fmt.Errorf("save %s: %w", keyDataSourceVersion, err)
	}
	return v, nil
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if v := s.configStore.GetFloat(key); v > 0 {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := s.configStore.GetDuration(key); v > 0 {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getBackend(defaultVal domain.PositionBackend) domain.PositionBackend {
	b := domain.PositionBackend(s.configStore.GetString(keyPositionBackend))
	if b.IsValid() {
		return b
	}
	return defaultVal
}
