package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/arnavshah/position-helper-go/pkg/scheduler"
)

// Config is the full application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	GinMode         string        `mapstructure:"gin_mode"`
	LoginDelay      time.Duration `mapstructure:"login_delay"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects Postgres when URL is set, otherwise a sqlite file at DataPath
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	DataPath string `mapstructure:"data_path"`
}

// RedisConfig enables the snapshot cache when URL is set
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// AuthConfig holds the shared admin password and session signing settings
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AdminPassword string        `mapstructure:"admin_password"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlackConfig enables finalize notifications when WebhookURL is set
type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// SuggestConfig tunes the suggestion engine. Zero weights keep the engine defaults.
type SuggestConfig struct {
	Recency         float64 `mapstructure:"recency"`
	Workload        float64 `mapstructure:"workload"`
	RoleBalance     float64 `mapstructure:"role_balance"`
	RestBonus       float64 `mapstructure:"rest_bonus"`
	RecentAbsence   float64 `mapstructure:"recent_absence"`
	Streak          float64 `mapstructure:"streak"`
	Repetition      float64 `mapstructure:"repetition"`
	SameWeek        float64 `mapstructure:"same_week"`
	RepeatInPart    float64 `mapstructure:"repeat_in_part"`
	RecencyWindow   int     `mapstructure:"recency_window"`
	DisallowRepeats bool    `mapstructure:"disallow_repeats"`
}

// Options converts the tuning into engine options
func (s SuggestConfig) Options() scheduler.Options {
	opts := scheduler.DefaultOptions()
	w := &opts.Weights
	override(&w.Recency, s.Recency)
	override(&w.Workload, s.Workload)
	override(&w.RoleBalance, s.RoleBalance)
	override(&w.RestBonus, s.RestBonus)
	override(&w.RecentAbsence, s.RecentAbsence)
	override(&w.Streak, s.Streak)
	override(&w.Repetition, s.Repetition)
	override(&w.SameWeek, s.SameWeek)
	override(&w.RepeatInPart, s.RepeatInPart)
	if s.RecencyWindow > 0 {
		opts.RecencyWindow = s.RecencyWindow
	}
	opts.DisallowRepeats = s.DisallowRepeats
	return opts
}

func override(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// envBindings maps config keys to the environment variable names used in deployment
var envBindings = map[string]string{
	"server.port":              "PORT",
	"server.gin_mode":          "GIN_MODE",
	"server.login_delay":       "LOGIN_DELAY",
	"db.url":                   "DATABASE_URL",
	"db.data_path":             "DATA_PATH",
	"redis.url":                "REDIS_URL",
	"redis.ttl":                "REDIS_TTL",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.admin_password":      "ADMIN_PASSWORD",
	"auth.token_ttl":           "TOKEN_TTL",
	"auth.cookie_secure":       "COOKIE_SECURE",
	"log.level":                "LOG_LEVEL",
	"log.format":               "LOG_FORMAT",
	"slack.webhook_url":        "SLACK_WEBHOOK_URL",
	"slack.channel":            "SLACK_CHANNEL",
	"suggest.recency_window":   "SUGGEST_RECENCY_WINDOW",
	"suggest.disallow_repeats": "SUGGEST_DISALLOW_REPEATS",
}

var weightKeys = []string{
	"recency", "workload", "role_balance", "rest_bonus", "recent_absence",
	"streak", "repetition", "same_week", "repeat_in_part",
}

// LoadDotEnv loads the first .env found in the working directory or its parents
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads configuration from an optional file and the environment.
// Environment variables win over the file, the file wins over defaults.
func Load(path string) (*Config, error) {
	LoadDotEnv()

	v := viper.New()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.login_delay", "500ms")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("db.data_path", "position_helper.db")
	v.SetDefault("redis.ttl", "30s")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.cookie_secure", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	for _, k := range weightKeys {
		_ = v.BindEnv("suggest."+k, "SUGGEST_"+strings.ToUpper(k))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot run without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.AdminPassword == "" {
		return fmt.Errorf("config: ADMIN_PASSWORD is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port must be between 1 and 65535")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}
