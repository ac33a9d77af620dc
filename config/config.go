// Package config loads runtime settings for the recommendation engine from
// the environment, mirroring the Manager/Settings split used across the
// rest of this tree's services.
package config

import (
	"os"
	"strconv"
	"time"
)

// Settings holds the recommendation pipeline's tunables. cmd/server wires the
// metadata, request-cache, limiter, populator-interval and SQLite fields into
// their components. MaxCandidates, EnrichBatchSize, EnrichMaxCandidates,
// ResultHardCap and PersistentCacheTTL are not read by any component: the
// discovery, enrichment, orchestrator and scheduler packages use their own
// constants with the same default values, so overriding MAX_CANDIDATES has no
// effect on the discovery cap.
type Settings struct {
	MetadataAPIKey      string
	MetadataBaseURL     string
	MetadataLanguage    string

	RequestCacheTTL      time.Duration
	RequestCacheCapacity int

	RequestConcurrency   int
	PopulatorConcurrency int
	PopulatorMinGap      time.Duration
	PopulatorDailyInterval  time.Duration
	PopulatorWeeklyInterval time.Duration

	MaxCandidates      int
	EnrichBatchSize    int
	EnrichMaxCandidates int

	ResultHardCap int

	PersistentCacheTTL time.Duration

	SQLiteDSN string
}

// DefaultSettings returns the values the spec names explicitly.
func DefaultSettings() Settings {
	return Settings{
		MetadataBaseURL:      "https://api.themoviedb.org/3",
		MetadataLanguage:     "en-US",
		RequestCacheTTL:      5 * time.Minute,
		RequestCacheCapacity: 100,
		RequestConcurrency:   5,
		PopulatorConcurrency: 8,
		PopulatorMinGap:      250 * time.Millisecond,
		PopulatorDailyInterval:  24 * time.Hour,
		PopulatorWeeklyInterval: 7 * 24 * time.Hour,
		MaxCandidates:        80,
		EnrichBatchSize:      10,
		EnrichMaxCandidates:  30,
		ResultHardCap:        9,
		PersistentCacheTTL:   7 * 24 * time.Hour,
		SQLiteDSN:            "file:reelsense.db?cache=shared&_fk=1",
	}
}

// Manager resolves Settings once, overriding defaults from the environment.
type Manager struct {
	settings Settings
}

// NewManager constructs a Manager around the given base settings.
func NewManager(base Settings) *Manager {
	return &Manager{settings: base}
}

// Load resolves the final Settings, applying environment overrides to the
// defaults. It never fails: missing or malformed env values fall back to
// the default silently, matching the teacher's tolerant config loading.
func (m *Manager) Load() Settings {
	s := m.settings
	if v := os.Getenv("METADATA_API_KEY"); v != "" {
		s.MetadataAPIKey = v
	}
	if v := os.Getenv("METADATA_BASE_URL"); v != "" {
		s.MetadataBaseURL = v
	}
	if v := os.Getenv("METADATA_LANGUAGE"); v != "" {
		s.MetadataLanguage = v
	}
	if v, ok := envInt("REQUEST_CACHE_CAPACITY"); ok {
		s.RequestCacheCapacity = v
	}
	if v, ok := envDuration("REQUEST_CACHE_TTL"); ok {
		s.RequestCacheTTL = v
	}
	if v, ok := envInt("REQUEST_CONCURRENCY"); ok {
		s.RequestConcurrency = v
	}
	if v, ok := envInt("POPULATOR_CONCURRENCY"); ok {
		s.PopulatorConcurrency = v
	}
	if v, ok := envDuration("POPULATOR_MIN_GAP"); ok {
		s.PopulatorMinGap = v
	}
	if v, ok := envDuration("POPULATOR_DAILY_INTERVAL"); ok {
		s.PopulatorDailyInterval = v
	}
	if v, ok := envDuration("POPULATOR_WEEKLY_INTERVAL"); ok {
		s.PopulatorWeeklyInterval = v
	}
	if v, ok := envInt("MAX_CANDIDATES"); ok {
		s.MaxCandidates = v
	}
	if v := os.Getenv("SQLITE_DSN"); v != "" {
		s.SQLiteDSN = v
	}
	return s
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
