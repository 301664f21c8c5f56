package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Mode string

const (
	ModeMock   Mode = "mock"
	ModeLive   Mode = "live"
	ModeHybrid Mode = "hybrid"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMock:
		return ModeMock, true
	case ModeLive:
		return ModeLive, true
	case ModeHybrid:
		return ModeHybrid, true
	}
	return "", false
}

type ProviderConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Priority int               `yaml:"priority"`
	EnvKeys  map[string]string `yaml:"envKeys,omitempty"`
}

type Log struct {
	Level  string `yaml:"level" env:"REWARDS_LOG_LEVEL" env-default:"warn"`
	Format string `yaml:"format" env:"REWARDS_LOG_FORMAT" env-default:"text"`
}

type Engine struct {
	MaxWorkers         int           `yaml:"maxWorkers" env:"REWARDS_MAX_WORKERS" env-default:"5"`
	SearchTimeout      time.Duration `yaml:"searchTimeout" env:"REWARDS_SEARCH_TIMEOUT" env-default:"15s"`
	MaxLayoverHours    float64       `yaml:"maxLayoverHours" env:"REWARDS_MAX_LAYOVER_HOURS" env-default:"24"`
	LayoverDayOffset   int           `yaml:"layoverDayOffset" env:"REWARDS_LAYOVER_DAY_OFFSET" env-default:"1"`
	UnknownLayover     string        `yaml:"unknownLayover" env:"REWARDS_UNKNOWN_LAYOVER" env-default:"include"`
	MaxLegOptions      int           `yaml:"maxLegOptions" env:"REWARDS_MAX_LEG_OPTIONS" env-default:"3"`
	FeeEstimateRate    float64       `yaml:"feeEstimateRate" env:"REWARDS_FEE_ESTIMATE_RATE" env-default:"0"`
	RateLimitPerSecond float64       `yaml:"rateLimitPerSecond" env:"REWARDS_RATE_LIMIT" env-default:"0"`
	Limit              int           `yaml:"limit" env:"REWARDS_LIMIT" env-default:"0"`
	Hubs               []string      `yaml:"hubs" env:"REWARDS_HUBS" env-separator:","`
}

type Cache struct {
	Backend       string        `yaml:"backend" env:"REWARDS_CACHE" env-default:"none"`
	Dir           string        `yaml:"dir" env:"REWARDS_CACHE_DIR"`
	TTL           time.Duration `yaml:"ttl" env:"REWARDS_CACHE_TTL" env-default:"10m"`
	RedisAddr     string        `yaml:"redisAddr" env:"REWARDS_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `yaml:"redisPassword" env:"REWARDS_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redisDB" env:"REWARDS_REDIS_DB" env-default:"0"`
}

type Postgres struct {
	URL   string `yaml:"url" env:"REWARDS_DATABASE_URL"`
	Table string `yaml:"table" env:"REWARDS_OFFERS_TABLE" env-default:"flights"`
}

type Metrics struct {
	TextFile string `yaml:"textFile" env:"REWARDS_METRICS_FILE"`
}

type Config struct {
	Mode      Mode                      `yaml:"mode" env:"REWARDS_MODE" env-default:"mock"`
	RefData   string                    `yaml:"refdata" env:"REWARDS_REFDATA"`
	Log       Log                       `yaml:"log"`
	Engine    Engine                    `yaml:"engine"`
	Cache     Cache                     `yaml:"cache"`
	Postgres  Postgres                  `yaml:"postgres"`
	Metrics   Metrics                   `yaml:"metrics"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

func defaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"mock_offers": {Enabled: true, Priority: 100},
		"postgres": {Enabled: true, Priority: 50, EnvKeys: map[string]string{
			"database url": "REWARDS_DATABASE_URL",
		}},
	}
}

// Load reads the YAML file at path (or the default location) and applies
// environment overrides. With no file, only the environment is read.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = configPath()
	}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}

	mode, ok := ParseMode(string(cfg.Mode))
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	cfg.Mode = mode

	for name, pc := range defaultProviders() {
		if cfg.Providers == nil {
			cfg.Providers = map[string]ProviderConfig{}
		}
		if _, ok := cfg.Providers[name]; !ok {
			cfg.Providers[name] = pc
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Engine.MaxWorkers < 0 {
		errs = append(errs, fmt.Errorf("engine.maxWorkers must not be negative, got %d", c.Engine.MaxWorkers))
	}
	if c.Engine.SearchTimeout < 0 {
		errs = append(errs, fmt.Errorf("engine.searchTimeout must not be negative"))
	}
	if c.Engine.LayoverDayOffset < 0 || c.Engine.LayoverDayOffset > 1 {
		errs = append(errs, fmt.Errorf("engine.layoverDayOffset must be 0 or 1, got %d", c.Engine.LayoverDayOffset))
	}
	if c.Engine.MaxLayoverHours < 0 {
		errs = append(errs, fmt.Errorf("engine.maxLayoverHours must not be negative"))
	}
	switch c.Engine.UnknownLayover {
	case "include", "exclude":
	default:
		errs = append(errs, fmt.Errorf("engine.unknownLayover must be include or exclude, got %q", c.Engine.UnknownLayover))
	}
	if c.Engine.FeeEstimateRate < 0 || c.Engine.FeeEstimateRate >= 1 {
		errs = append(errs, fmt.Errorf("engine.feeEstimateRate must be in [0, 1), got %v", c.Engine.FeeEstimateRate))
	}
	switch c.Cache.Backend {
	case "none", "file", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be none, file or redis, got %q", c.Cache.Backend))
	}
	return errors.Join(errs...)
}

func (c *Config) WithMode(mode string) *Config {
	if m, ok := ParseMode(mode); ok {
		c.Mode = m
	}
	return c
}

// ProviderEnabled is true unless the provider is listed and switched off.
func (c *Config) ProviderEnabled(name string) bool {
	pc, ok := c.Providers[name]
	if !ok {
		return true
	}
	return pc.Enabled
}

func (c *Config) ProviderHasCredentials(name string) bool {
	pc, ok := c.Providers[name]
	if !ok {
		return false
	}
	for _, envKey := range pc.EnvKeys {
		if os.Getenv(envKey) == "" {
			return false
		}
	}
	return true
}

func (c *Config) MissingCredentials(name string) []string {
	pc, ok := c.Providers[name]
	if !ok {
		return nil
	}
	var missing []string
	for label, envKey := range pc.EnvKeys {
		if os.Getenv(envKey) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", label, envKey))
		}
	}
	return missing
}

func configPath() string {
	if p := os.Getenv("REWARDS_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".config", "beetlebot", "rewards.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}
