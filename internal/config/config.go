package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "IMGFX"

type Config struct {
	Log      Log      `mapstructure:"log"`
	Backend  Backend  `mapstructure:"backend"`
	Upload   Upload   `mapstructure:"upload"`
	Effects  Effects  `mapstructure:"effects"`
	Gallery  Gallery  `mapstructure:"gallery"`
	Telegram Telegram `mapstructure:"telegram"`
	Session  Session  `mapstructure:"session"`
	Handler  Handler  `mapstructure:"handler"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Backend struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Upload struct {
	MaxBytes     int64    `mapstructure:"max_bytes"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type Effects struct {
	// Enabled restricts the catalog. Empty enables every effect.
	Enabled []string `mapstructure:"enabled"`
}

type Gallery struct {
	Retries      int           `mapstructure:"retries"`
	Backoff      time.Duration `mapstructure:"backoff"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	DisplayLimit int           `mapstructure:"display_limit"`
}

type Telegram struct {
	BotToken       string  `mapstructure:"bot_token"`
	AllowedChatIDs []int64 `mapstructure:"allowed_chat_ids"`
	AdminUsername  string  `mapstructure:"admin_username"`
}

type Session struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type Handler struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.timeout", "30s")

	v.SetDefault("upload.max_bytes", 16<<20)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/jpg", "image/png"})

	v.SetDefault("effects.enabled", []string{})

	v.SetDefault("gallery.retries", 3)
	v.SetDefault("gallery.backoff", "500ms")
	v.SetDefault("gallery.max_delay", "5s")
	v.SetDefault("gallery.display_limit", 10)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.allowed_chat_ids", []int64{})
	v.SetDefault("telegram.admin_username", "")

	v.SetDefault("session.idle_timeout", "1h")
	v.SetDefault("handler.timeout", "2m")
}

// Load reads the TOML file at path, or config.toml in the working directory when path is
// empty. A missing default file is not an error; every key has a default and can be set
// through IMGFX_* environment variables, e.g. IMGFX_BACKEND_BASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings every command needs. Telegram settings are checked by
// ValidateTelegram, since only the bot uses them.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}

	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}

	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}

	if len(c.Upload.AllowedTypes) == 0 {
		return errors.New("upload.allowed_types must not be empty")
	}

	if c.Gallery.Retries < 1 {
		return errors.New("gallery.retries must be at least 1")
	}

	if c.Gallery.Backoff < 0 || c.Gallery.MaxDelay < 0 {
		return errors.New("gallery backoff durations must not be negative")
	}

	return nil
}

func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required")
	}

	if c.Handler.Timeout <= 0 {
		return errors.New("handler.timeout must be positive")
	}

	return nil
}
