package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds the webhook listener settings.
type ServerConfig struct {
	// Addr is the listen address (e.g., ":8080").
	Addr string `mapstructure:"addr" yaml:"addr"`

	// Path is the route the database trigger posts to.
	Path string `mapstructure:"path" yaml:"path"`
}

// OneSignalConfig holds credentials and endpoints for the push provider.
type OneSignalConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	AppID   string `mapstructure:"app_id" yaml:"app_id"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`

	// Segment is the audience every notification targets.
	Segment string `mapstructure:"segment" yaml:"segment"`
}

// SupabaseConfig holds the REST gateway used for the tasks table and the
// notification tracking table.
type SupabaseConfig struct {
	URL           string `mapstructure:"url" yaml:"url"`
	ServiceKey    string `mapstructure:"service_key" yaml:"service_key"`
	TasksTable    string `mapstructure:"tasks_table" yaml:"tasks_table"`
	TrackingTable string `mapstructure:"tracking_table" yaml:"tracking_table"`
}

// Store driver names.
const (
	StoreDriverREST     = "rest"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// StoreConfig selects where tasks are read from and tracking records kept.
type StoreConfig struct {
	// Driver is one of the StoreDriver* constants.
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is the database path or connection string for SQL drivers.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// ScheduleConfig controls the wall clock reminders are anchored to.
type ScheduleConfig struct {
	// UTCOffsetHours is the fixed offset used when Timezone is empty.
	UTCOffsetHours int `mapstructure:"utc_offset_hours" yaml:"utc_offset_hours"`

	// Timezone is an optional IANA zone name (e.g., "Asia/Jerusalem").
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// Location resolves the configured zone.
func (c ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
		}
		return loc, nil
	}
	name := fmt.Sprintf("UTC%+d", c.UTCOffsetHours)
	return time.FixedZone(name, c.UTCOffsetHours*3600), nil
}

// CoupleConfig names the two people sharing the list. The names double as
// the assignee values stored on tasks.
type CoupleConfig struct {
	First  string `mapstructure:"first" yaml:"first"`
	Second string `mapstructure:"second" yaml:"second"`

	// FirstVerb and SecondVerb precede each person's task titles in a
	// summary ("needs to"). They are set per person so the wording can
	// follow each name's grammatical gender.
	FirstVerb  string `mapstructure:"first_verb" yaml:"first_verb"`
	SecondVerb string `mapstructure:"second_verb" yaml:"second_verb"`

	// FirstDone and SecondDone announce a finished task ("finished").
	FirstDone  string `mapstructure:"first_done" yaml:"first_done"`
	SecondDone string `mapstructure:"second_done" yaml:"second_done"`
}

// SweepConfig controls the periodic re-reconciliation of upcoming dates.
type SweepConfig struct {
	// IntervalMin is minutes between sweeps; 0 disables sweeping.
	IntervalMin int `mapstructure:"interval_min" yaml:"interval_min"`

	// Days is how many dates, starting today, each sweep covers.
	Days int `mapstructure:"days" yaml:"days"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
	File   string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	OneSignal OneSignalConfig `mapstructure:"onesignal" yaml:"onesignal"`
	Supabase  SupabaseConfig  `mapstructure:"supabase" yaml:"supabase"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Schedule  ScheduleConfig  `mapstructure:"schedule" yaml:"schedule"`
	Couple    CoupleConfig    `mapstructure:"couple" yaml:"couple"`
	Sweep     SweepConfig     `mapstructure:"sweep" yaml:"sweep"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// envPrefix namespaces environment overrides, e.g. DUETASK_ONESIGNAL_APP_ID.
const envPrefix = "DUETASK"

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/duetask/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "duetask", "config.yaml")
}

// defaults lists every key with its default. Registering all keys lets
// environment variables override values absent from the file.
var defaults = map[string]any{
	"server.addr":               ":8080",
	"server.path":               "/webhook",
	"onesignal.base_url":        "https://onesignal.com/api/v1",
	"onesignal.app_id":          "",
	"onesignal.api_key":         "",
	"onesignal.segment":         "All",
	"supabase.url":              "",
	"supabase.service_key":      "",
	"supabase.tasks_table":      "tasks",
	"supabase.tracking_table":   "notification_tracking",
	"store.driver":              StoreDriverREST,
	"store.dsn":                 "",
	"schedule.utc_offset_hours": 2,
	"schedule.timezone":         "",
	"couple.first":              "",
	"couple.second":             "",
	"couple.first_verb":         "needs to",
	"couple.second_verb":        "needs to",
	"couple.first_done":         "finished",
	"couple.second_done":        "finished",
	"sweep.interval_min":        0,
	"sweep.days":                7,
	"log.level":                 "info",
	"log.pretty":                false,
	"log.file":                  "",
}

// LoadConfig reads configuration from an optional .env file, the YAML file
// at path, and DUETASK_* environment variables, in increasing precedence.
// A missing file is not an error; an empty path skips the file.
func LoadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *AppConfig) Validate() error {
	var problems []string
	if c.OneSignal.AppID == "" {
		problems = append(problems, "onesignal.app_id is required")
	}
	if c.OneSignal.APIKey == "" {
		problems = append(problems, "onesignal.api_key is required")
	}
	switch c.Store.Driver {
	case StoreDriverREST:
		if c.Supabase.URL == "" {
			problems = append(problems, "supabase.url is required for the rest store")
		}
		if c.Supabase.ServiceKey == "" {
			problems = append(problems, "supabase.service_key is required for the rest store")
		}
	case StoreDriverSQLite, StoreDriverPostgres:
		if c.Store.DSN == "" {
			problems = append(problems, "store.dsn is required for "+c.Store.Driver)
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Couple.First == "" || c.Couple.Second == "" {
		problems = append(problems, "couple.first and couple.second are required")
	}
	if c.Couple.First != "" && c.Couple.First == c.Couple.Second {
		problems = append(problems, "couple.first and couple.second must differ")
	}
	if c.Sweep.IntervalMin > 0 && c.Sweep.Days < 1 {
		problems = append(problems, "sweep.days must be at least 1 when sweeping")
	}
	if _, err := c.Schedule.Location(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
