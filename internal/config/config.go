// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error kinds.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds the registry database file.
	DataDir string `koanf:"data_dir"`

	// APIHost and APIKey configure the external identity/activity gateway.
	APIHost string `koanf:"api_host"`
	APIKey  string `koanf:"api_key"`

	// OpenTimes lists daily automatic open instants as "HH:MM" in UTC.
	OpenTimes []string `koanf:"open_times"`

	// SessionDurationMinutes is how long a window stays open.
	SessionDurationMinutes int `koanf:"session_duration_minutes"`

	// SchedulerTickSeconds is the polling granularity of the open check.
	SchedulerTickSeconds int `koanf:"scheduler_tick_seconds"`

	// SingleSubmission limits each member to one link per window.
	SingleSubmission bool `koanf:"single_submission"`

	// ReportChunkLimit is the platform message size limit for reports.
	ReportChunkLimit int `koanf:"report_chunk_limit"`

	// AdminToken gates the session-control HTTP endpoints when non-empty.
	AdminToken string `koanf:"admin_token"`
}

// New creates a Config with defaults. The open schedule and window length
// mirror the community's long-standing raid times.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		DataDir:                "./data",
		APIHost:                "twitter241.p.rapidapi.com",
		OpenTimes:              []string{"08:00", "14:00", "21:00"},
		SessionDurationMinutes: 60,
		SchedulerTickSeconds:   60,
		ReportChunkLimit:       1900,
	}
}
