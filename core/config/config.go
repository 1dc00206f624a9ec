package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// UnsplashConfig holds the image API credential and quota settings. The
// quota mirrors the upstream per-credential hourly limit; the client
// refuses calls locally once the window fills.
type UnsplashConfig struct {
	AccessKey      string `yaml:"access_key" envconfig:"UNSPLASH_ACCESS_KEY"`
	BaseURL        string `yaml:"base_url" envconfig:"UNSPLASH_BASE_URL"`
	MaxRequests    int    `yaml:"max_requests" envconfig:"UNSPLASH_MAX_REQUESTS"`
	WindowSeconds  int    `yaml:"window_seconds" envconfig:"UNSPLASH_WINDOW_SECONDS"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"UNSPLASH_TIMEOUT_SECONDS"`
	SearchPerPage  int    `yaml:"search_per_page" envconfig:"UNSPLASH_SEARCH_PER_PAGE"`
}

// Window returns the quota window as a duration.
func (c UnsplashConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Timeout returns the per-request timeout as a duration.
func (c UnsplashConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionsConfig bounds the in-memory browse session store.
type SessionsConfig struct {
	Capacity   int `yaml:"capacity" envconfig:"SESSIONS_CAPACITY"`
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSIONS_TTL_MINUTES"`
}

// TTL returns the session time-to-live as a duration.
func (c SessionsConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for flood limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for flood limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for flood limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// FloodConfig throttles inbound updates per user. This is distinct from the
// Unsplash quota window: it protects the bot itself from button mashing.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type FloodConfig struct {
	PerUserRPS     float64  `yaml:"per_user_rps" envconfig:"FLOOD_PER_USER_RPS"`
	Burst          int      `yaml:"burst" envconfig:"FLOOD_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"FLOOD_EXCLUDE_UPDATES"`
}

// Config aggregates all process configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
	Unsplash UnsplashConfig `yaml:"unsplash"`
	Sessions SessionsConfig `yaml:"sessions"`
	Flood    FloodConfig    `yaml:"flood"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Unsplash.AccessKey == "" {
		return fmt.Errorf("unsplash access key is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Unsplash.BaseURL == "" {
		cfg.Unsplash.BaseURL = "https://api.unsplash.com"
	}
	if cfg.Unsplash.MaxRequests < 0 {
		return fmt.Errorf("unsplash.max_requests must be >= 0")
	}
	if cfg.Unsplash.MaxRequests == 0 {
		cfg.Unsplash.MaxRequests = 50
	}
	if cfg.Unsplash.WindowSeconds <= 0 {
		cfg.Unsplash.WindowSeconds = 3600
	}
	if cfg.Unsplash.TimeoutSeconds <= 0 {
		cfg.Unsplash.TimeoutSeconds = 30
	}
	if cfg.Unsplash.SearchPerPage <= 0 {
		cfg.Unsplash.SearchPerPage = 5
	}

	if cfg.Sessions.Capacity < 0 {
		return fmt.Errorf("sessions.capacity must be >= 0")
	}
	if cfg.Sessions.Capacity == 0 {
		cfg.Sessions.Capacity = 512
	}
	if cfg.Sessions.TTLMinutes <= 0 {
		cfg.Sessions.TTLMinutes = 24 * 60
	}

	if cfg.Flood.PerUserRPS < 0 {
		return fmt.Errorf("flood.per_user_rps must be >= 0")
	}
	if cfg.Flood.Burst < 0 {
		return fmt.Errorf("flood.burst must be >= 0")
	}

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.Flood.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid flood.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.Flood.ExcludeUpdates[i] = key
	}
	return nil
}
