// config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"looker-content-cleanup/internal/domain/models"
	"looker-content-cleanup/internal/infrastructure/logger"
	"looker-content-cleanup/internal/infrastructure/looker"
	"looker-content-cleanup/pkg/constants"
)

type Config struct {
	Looker looker.Config

	NotificationEmail    string
	DaysBeforeSoftDelete int
	DaysBeforeHardDelete int
	DryRun               bool
	UnusedContentReport  string
	DeletedContentReport string
	TimeZone             string

	TelegramBotToken string
	TelegramChatID   string

	TriggerToken    string
	CleanupSchedule string
	CleanupTimeout  time.Duration
	HTTPPort        string

	// Logger config
	Logger logger.Config
}

// LoadConfig reads the environment, optionally layered over the .env file
// named by CONFIG_FILE. A missing file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	path := v.GetString("CONFIG_FILE")
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CONFIG_FILE", constants.ConfigPath)

	v.SetDefault("LOOKERSDK_VERIFY_SSL", true)
	v.SetDefault("LOOKERSDK_TIMEOUT", 120)

	v.SetDefault("DAYS_BEFORE_SOFT_DELETE", 90)
	v.SetDefault("DAYS_BEFORE_HARD_DELETE", 90)
	v.SetDefault("DRY_RUN", true)
	v.SetDefault("TIMEZONE", "UTC")

	v.SetDefault("CLEANUP_SCHEDULE", "")
	v.SetDefault("CLEANUP_TIMEOUT", constants.CleanupTimeout)
	v.SetDefault("HTTP_PORT", "8080")

	// Logger defaults
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("LOG_STDOUT", true)
	v.SetDefault("LOG_MAX_SIZE", 100)  // 100MB
	v.SetDefault("LOG_MAX_BACKUPS", 5) // 5 files
	v.SetDefault("LOG_MAX_AGE", 30)    // 30 days
	v.SetDefault("LOG_COMPRESS", true)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Looker: looker.Config{
			BaseURL:      v.GetString("LOOKERSDK_BASE_URL"),
			ClientID:     v.GetString("LOOKERSDK_CLIENT_ID"),
			ClientSecret: v.GetString("LOOKERSDK_CLIENT_SECRET"),
			VerifySSL:    v.GetBool("LOOKERSDK_VERIFY_SSL"),
			Timeout:      v.GetInt32("LOOKERSDK_TIMEOUT"),
		},
		NotificationEmail:    strings.TrimSpace(v.GetString("NOTIFICATION_EMAIL_ADDRESS")),
		DaysBeforeSoftDelete: v.GetInt("DAYS_BEFORE_SOFT_DELETE"),
		DaysBeforeHardDelete: v.GetInt("DAYS_BEFORE_HARD_DELETE"),
		DryRun:               v.GetBool("DRY_RUN"),
		UnusedContentReport:  strings.TrimSpace(v.GetString("UNUSED_CONTENT_REPORT")),
		DeletedContentReport: strings.TrimSpace(v.GetString("DELETED_CONTENT_REPORT")),
		TimeZone:             v.GetString("TIMEZONE"),
		TelegramBotToken:     v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:       v.GetString("TELEGRAM_CHAT_ID"),
		TriggerToken:         v.GetString("TRIGGER_TOKEN"),
		CleanupSchedule:      strings.TrimSpace(v.GetString("CLEANUP_SCHEDULE")),
		CleanupTimeout:       v.GetDuration("CLEANUP_TIMEOUT"),
		HTTPPort:             v.GetString("HTTP_PORT"),
		Logger: logger.Config{
			Level:      v.GetString("LOG_LEVEL"),
			LogDir:     v.GetString("LOG_DIR"),
			Stdout:     v.GetBool("LOG_STDOUT"),
			MaxSize:    v.GetInt("LOG_MAX_SIZE"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAge:     v.GetInt("LOG_MAX_AGE"),
			Compress:   v.GetBool("LOG_COMPRESS"),
		},
	}
}

// Validate rejects settings a run cannot work with. Soft and hard thresholds
// are not ordered against each other.
func (c *Config) Validate() error {
	invalid := func(setting, format string, args ...interface{}) error {
		return &models.ConfigurationError{Setting: setting, Err: fmt.Errorf(format, args...)}
	}

	if c.Looker.BaseURL == "" {
		return invalid("LOOKERSDK_BASE_URL", "is required")
	}
	if u, err := url.Parse(c.Looker.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("LOOKERSDK_BASE_URL", "must be an absolute URL, got %q", c.Looker.BaseURL)
	}
	if c.Looker.ClientID == "" {
		return invalid("LOOKERSDK_CLIENT_ID", "is required")
	}
	if c.Looker.ClientSecret == "" {
		return invalid("LOOKERSDK_CLIENT_SECRET", "is required")
	}
	if c.Looker.Timeout <= 0 {
		return invalid("LOOKERSDK_TIMEOUT", "must be positive")
	}
	if c.NotificationEmail == "" || !strings.Contains(c.NotificationEmail, "@") {
		return invalid("NOTIFICATION_EMAIL_ADDRESS", "must be an email address, got %q", c.NotificationEmail)
	}
	if c.DaysBeforeSoftDelete < 1 {
		return invalid("DAYS_BEFORE_SOFT_DELETE", "must be at least 1, got %d", c.DaysBeforeSoftDelete)
	}
	if c.DaysBeforeHardDelete < 1 {
		return invalid("DAYS_BEFORE_HARD_DELETE", "must be at least 1, got %d", c.DaysBeforeHardDelete)
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		return invalid("TELEGRAM_CHAT_ID", "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if c.CleanupSchedule != "" {
		if _, err := cron.ParseStandard(c.CleanupSchedule); err != nil {
			return invalid("CLEANUP_SCHEDULE", "invalid cron schedule %q: %w", c.CleanupSchedule, err)
		}
	}
	if c.CleanupTimeout <= 0 {
		return invalid("CLEANUP_TIMEOUT", "must be positive")
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return invalid("TIMEZONE", "unknown time zone %q: %w", c.TimeZone, err)
		}
	}
	if c.HTTPPort == "" {
		return invalid("HTTP_PORT", "cannot be empty")
	}
	return nil
}

// ThresholdsInverted reports the unusual but permitted case where content
// would be purged from the trash no later than it is archived.
func (c *Config) ThresholdsInverted() bool {
	return c.DaysBeforeSoftDelete >= c.DaysBeforeHardDelete
}
