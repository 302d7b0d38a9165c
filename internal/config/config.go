// Package config loads and saves the YAML configuration of the him-waste service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen     = "127.0.0.1:8080"
	DefaultBaseURL    = "https://him.as/tommekalender/"
	DefaultDataDir    = "~/.local/share/him-waste"
	DefaultRefresh    = "@every 6h"
	DefaultTimeout    = 30 * time.Second
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
	DefaultTimezone   = "Europe/Oslo"
	DefaultAlarmHours = 6
	DefaultRemindAt   = "0 18 * * *"
)

// Notifier kinds
const (
	NotifierNone     = ""
	NotifierDryRun   = "dry-run"
	NotifierTelegram = "telegram"
	NotifierTwitter  = "twitter"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// HomeAssistantConfig points the sensor publisher at a Home Assistant instance.
// Publishing is disabled when URL is empty.
type HomeAssistantConfig struct {
	URL   string `yaml:"url" json:"url"`
	Token string `yaml:"token" json:"-"`
}

// TelegramConfig holds Telegram Bot API credentials.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" json:"-"`
	ChatID   string `yaml:"chat_id" json:"chat_id"`
}

// TwitterConfig holds OAuth1 credentials for posting reminders.
type TwitterConfig struct {
	ConsumerKey    string `yaml:"consumer_key" json:"-"`
	ConsumerSecret string `yaml:"consumer_secret" json:"-"`
	AccessToken    string `yaml:"access_token" json:"-"`
	AccessSecret   string `yaml:"access_secret" json:"-"`
}

// NotifierConfig selects and configures the reminder channel.
type NotifierConfig struct {
	// Kind is one of "", "dry-run", "telegram" or "twitter".
	Kind string `yaml:"kind" json:"kind"`
	// Days is how far ahead reminders look. 1, the default, reminds the day before.
	Days int `yaml:"days" json:"days"`
	// Schedule is the cron spec for reminder checks when serving.
	Schedule string         `yaml:"schedule" json:"schedule"`
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`
	Twitter  TwitterConfig  `yaml:"twitter" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// PropertyID is the HIM "eiendomId" of the property to track.
	PropertyID string `yaml:"property_id" json:"property_id"`

	// BaseURL is the calendar page, without query string.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DataDir holds persisted snapshots. "~" is expanded.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Refresh is a cron spec (e.g. "@every 6h" or "0 */6 * * *").
	Refresh string `yaml:"refresh" json:"refresh"`

	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	Attempts   int           `yaml:"attempts" json:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`

	// Timezone is the IANA zone used to decide what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`

	// AlarmHours adds a VALARM this many hours before each pickup day. 0 disables.
	AlarmHours int `yaml:"alarm_hours" json:"alarm_hours"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	HomeAssistant HomeAssistantConfig `yaml:"home_assistant" json:"home_assistant"`
	Notifier      NotifierConfig      `yaml:"notifier" json:"notifier"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		Listen:     DefaultListen,
		DataDir:    DefaultDataDir,
		Refresh:    DefaultRefresh,
		Timeout:    DefaultTimeout,
		Attempts:   DefaultAttempts,
		RetryDelay: DefaultRetryDelay,
		Timezone:   DefaultTimezone,
		AlarmHours: DefaultAlarmHours,
		Notifier: NotifierConfig{
			Days:     1,
			Schedule: DefaultRemindAt,
		},
	}
}

// DefaultPath returns ~/.config/him-waste/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "him-waste", "config.yaml")
}

// Normalize fills in missing or zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Refresh == "" {
		c.Refresh = DefaultRefresh
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.AlarmHours < 0 {
		c.AlarmHours = 0
	}
	if c.Notifier.Days <= 0 {
		c.Notifier.Days = 1
	}
	if c.Notifier.Schedule == "" {
		c.Notifier.Schedule = DefaultRemindAt
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Validate reports configuration that cannot run.
func (c *Config) Validate() error {
	if c.PropertyID == "" {
		return errors.New("property_id is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	switch c.Notifier.Kind {
	case NotifierNone, NotifierDryRun:
	case NotifierTelegram:
		if c.Notifier.Telegram.BotToken == "" || c.Notifier.Telegram.ChatID == "" {
			return errors.New("telegram notifier requires bot_token and chat_id")
		}
	case NotifierTwitter:
		t := c.Notifier.Twitter
		if t.ConsumerKey == "" || t.ConsumerSecret == "" || t.AccessToken == "" || t.AccessSecret == "" {
			return errors.New("twitter notifier requires consumer and access credentials")
		}
	default:
		return fmt.Errorf("unknown notifier kind %q", c.Notifier.Kind)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ApplyEnv overrides secrets and the property id from environment variables.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.PropertyID, "HIM_PROPERTY_ID")
	set(&c.HomeAssistant.URL, "HASS_URL")
	set(&c.HomeAssistant.Token, "HASS_TOKEN")
	set(&c.Notifier.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	set(&c.Notifier.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	set(&c.Notifier.Twitter.ConsumerKey, "TWITTER_CONSUMER_KEY")
	set(&c.Notifier.Twitter.ConsumerSecret, "TWITTER_CONSUMER_SECRET")
	set(&c.Notifier.Twitter.AccessToken, "TWITTER_ACCESS_TOKEN")
	set(&c.Notifier.Twitter.AccessSecret, "TWITTER_ACCESS_SECRET")

	if v := getenv("HIM_ALARM_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AlarmHours = n
		}
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written with 0600 perms and
// returned. Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename.
// The parent directory is created with 0700 and the file ends up 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".him-waste-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
