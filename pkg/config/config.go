package config

import (
	"encoding/json"
	"time"
)

// SensitiveString holds credentials that must never appear in logs or JSON
// output. The raw value is only reachable through Value().
type SensitiveString string

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s SensitiveString) Value() string {
	return string(s)
}

// Config is the complete configuration tree for the demoplan process. Values
// come from defaults overlaid with DEMOPLAN_-prefixed environment variables.
type Config struct {
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Database  DatabaseConfig  `koanf:"database"  validate:"required"`
	Upstream  UpstreamConfig  `koanf:"upstream"  validate:"required"`
	Scheduler SchedulerConfig `koanf:"scheduler" validate:"required"`
	Sync      SyncConfig      `koanf:"sync"      validate:"required"`
	Runtime   RuntimeConfig   `koanf:"runtime"   validate:"required"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host    string        `koanf:"host"    validate:"required"`
	Port    int           `koanf:"port"    validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig contains PostgreSQL connection configuration. ConnString
// wins over the discrete fields when both are set.
type DatabaseConfig struct {
	ConnString  string          `koanf:"conn_string"`
	Host        string          `koanf:"host"`
	Port        string          `koanf:"port"`
	User        string          `koanf:"user"`
	Password    SensitiveString `koanf:"password"`
	DBName      string          `koanf:"name"`
	SSLMode     string          `koanf:"ssl_mode"`
	AutoMigrate bool            `koanf:"auto_migrate"`
}

// UpstreamConfig configures the MVRetail system-of-record client.
type UpstreamConfig struct {
	BaseURL        string          `koanf:"base_url"        validate:"required,url"`
	Username       string          `koanf:"username"`
	Password       SensitiveString `koanf:"password"`
	RequestTimeout time.Duration   `koanf:"request_timeout" validate:"min=1s"`
	SessionRefresh time.Duration   `koanf:"session_refresh" validate:"min=1m"`
	Timezone       string          `koanf:"timezone"        validate:"required"`
}

// SchedulerConfig contains the auto-scheduling engine tunables. Times are
// local wall-clock in HH:MM form.
type SchedulerConfig struct {
	WindowDays          int      `koanf:"window_days"             validate:"min=1"`
	CoreSlots           []string `koanf:"core_slots"              validate:"min=1,dive,required"`
	CorePerDayCap       int      `koanf:"core_per_day_cap"        validate:"min=1"`
	JuicerTime          string   `koanf:"juicer_time"             validate:"required"`
	DigitalSetupTime    string   `koanf:"digital_setup_time"      validate:"required"`
	DigitalRefreshTime  string   `koanf:"digital_refresh_time"    validate:"required"`
	FreeoskTime         string   `koanf:"freeosk_time"            validate:"required"`
	DigitalTeardownTime string   `koanf:"digital_teardown_time"   validate:"required"`
	SupervisorTime      string   `koanf:"supervisor_time"         validate:"required"`
	OtherTime           string   `koanf:"other_time"              validate:"required"`
	OtherNoonExempt     bool     `koanf:"other_noon_overlap_exempt"`
}

// SyncConfig contains the background task runner policy.
type SyncConfig struct {
	PushMaxAttempts int           `koanf:"push_max_attempts" validate:"min=1"`
	PushBackoffBase time.Duration `koanf:"push_backoff_base" validate:"min=1s"`
	PullCron        string        `koanf:"pull_cron"         validate:"required"`
	PullWindowDays  int           `koanf:"pull_window_days"  validate:"min=1"`
	QueueMaxWorkers int           `koanf:"queue_max_workers" validate:"min=1"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"`
	LogJSON     bool   `koanf:"log_json"`
}

// Default returns the built-in configuration. Every value here can be
// overridden through the environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        "5432",
			User:        "demoplan",
			DBName:      "demoplan",
			SSLMode:     "disable",
			AutoMigrate: true,
		},
		Upstream: UpstreamConfig{
			BaseURL:        "https://crossmark.mvretail.com",
			RequestTimeout: 30 * time.Second,
			SessionRefresh: time.Hour,
			Timezone:       "America/Indiana/Indianapolis",
		},
		Scheduler: SchedulerConfig{
			WindowDays:          21,
			CoreSlots:           []string{"09:45", "10:30", "11:00", "11:30"},
			CorePerDayCap:       1,
			JuicerTime:          "09:00",
			DigitalSetupTime:    "09:00",
			DigitalRefreshTime:  "10:00",
			FreeoskTime:         "10:00",
			DigitalTeardownTime: "15:00",
			SupervisorTime:      "12:00",
			OtherTime:           "12:00",
			OtherNoonExempt:     true,
		},
		Sync: SyncConfig{
			PushMaxAttempts: 3,
			PushBackoffBase: 60 * time.Second,
			PullCron:        "0 * * * *",
			PullWindowDays:  21,
			QueueMaxWorkers: 4,
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
			LogJSON:     false,
		},
	}
}
