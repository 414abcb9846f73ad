package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the typed view of configs/config.yml plus environment overrides.
type Config struct {
	Port      string          `mapstructure:"port"`
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// UpstreamConfig points at the home-energy backend that owns devices, modules and settings.
type UpstreamConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Timeout    time.Duration `mapstructure:"timeout"`
	EventsPath string        `mapstructure:"events_path"`
}

type DashboardConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	TelemetryInterval time.Duration `mapstructure:"telemetry_interval"`
	DashboardID       string        `mapstructure:"dashboard_id"`
}

type ChartConfig struct {
	Slots int `mapstructure:"slots"`
}

// RedisConfig enables the device state cache when Addr is set.
type RedisConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// MQTTConfig enables the MQTT switch event source when Broker is set.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

const (
	defaultConfigPath = "configs"
	defaultConfigName = "config"
)

var (
	errEmptyBaseURL    = errors.New("upstream.base_url must be set")
	errBadPollInterval = errors.New("dashboard.poll_interval must be > 0")
	errBadChartSlots   = errors.New("chart.slots must be > 0")
	errEmptySigningKey = errors.New("auth.signing_key must be set")
)

// SetDefaults registers a default for every known key so AutomaticEnv can override all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("upstream.base_url", "http://localhost:5000")
	v.SetDefault("upstream.username", "")
	v.SetDefault("upstream.password", "")
	v.SetDefault("upstream.timeout", 5*time.Second)
	v.SetDefault("upstream.events_path", "/api/events")
	v.SetDefault("dashboard.poll_interval", 2*time.Second)
	v.SetDefault("dashboard.telemetry_interval", 2*time.Minute)
	v.SetDefault("dashboard.dashboard_id", "home")
	v.SetDefault("chart.slots", 48)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "home-energy-dashboard")
	v.SetDefault("mqtt.topic", "viki/switch/+/state")
}

// Load reads configs/config.yml (if present) and environment variables into a Config.
// A missing config file is not an error; defaults and env still apply.
func Load(v *viper.Viper, paths ...string) (Config, error) {
	SetDefaults(v)

	if len(paths) == 0 {
		paths = []string{defaultConfigPath}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName(defaultConfigName)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Upstream.BaseURL) == "":
		return errEmptyBaseURL
	case c.Dashboard.PollInterval <= 0:
		return errBadPollInterval
	case c.Chart.Slots <= 0:
		return errBadChartSlots
	case strings.TrimSpace(c.Auth.SigningKey) == "":
		return errEmptySigningKey
	}
	return nil
}
