package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Shop      ShopConfig      `mapstructure:"shop"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	API       APIConfig       `mapstructure:"api"`
}

// ServerConfig defines server ports and addresses
type ServerConfig struct {
	BindAddress string `mapstructure:"bind_address"`
	HTTPPort    int    `mapstructure:"http_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// StorageConfig defines storage backend settings
type StorageConfig struct {
	Type  string      `mapstructure:"type"` // "file", "bolt" or "redis"
	Path  string      `mapstructure:"path"`
	Key   string      `mapstructure:"key"` // redis key holding the state document
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ShopConfig defines billing and reporting settings
type ShopConfig struct {
	DefaultRate        string `mapstructure:"default_rate"`
	WeekStart          string `mapstructure:"week_start"`
	Timezone           string `mapstructure:"timezone"`
	RecentTransactions int    `mapstructure:"recent_transactions"`
}

// BootstrapConfig defines the account passwords written on first start
type BootstrapConfig struct {
	AdminPassword string `mapstructure:"admin_password"`
	StaffPassword string `mapstructure:"staff_password"`
}

// APIConfig defines HTTP API settings
type APIConfig struct {
	RateLimit       int    `mapstructure:"rate_limit"`
	RateLimitWindow string `mapstructure:"rate_limit_window"`
}

// Load loads configuration from file and environment variables. A missing
// file is not an error; defaults and environment variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetEnvPrefix("PESONET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Defaults returns the configuration with nothing but defaults applied.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// Keys returns the set of recognised configuration keys.
func Keys() map[string]bool {
	v := viper.New()
	setDefaults(v)

	keys := make(map[string]bool)
	for _, k := range v.AllKeys() {
		keys[k] = true
	}
	return keys
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind_address", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9090)

	// Storage defaults
	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.path", "/var/lib/pesonet/pesonet.json")
	v.SetDefault("storage.key", "pesonet:state")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Shop defaults
	v.SetDefault("shop.default_rate", "30.00")
	v.SetDefault("shop.week_start", "sunday")
	v.SetDefault("shop.timezone", "Local")
	v.SetDefault("shop.recent_transactions", 20)

	// Bootstrap defaults
	v.SetDefault("bootstrap.admin_password", "admin123")
	v.SetDefault("bootstrap.staff_password", "staff123")

	// API defaults
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.rate_limit_window", "1m")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", cfg.Server.HTTPPort)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	switch cfg.Storage.Type {
	case "":
		cfg.Storage.Type = "file"
		fallthrough
	case "file", "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
	case "redis":
		if cfg.Storage.Key == "" {
			return fmt.Errorf("storage key is required for redis")
		}
		if cfg.Storage.Redis.Host == "" {
			return fmt.Errorf("redis host is required")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format: %s", cfg.Logging.Format)
	}

	if _, err := cfg.Shop.Rate(); err != nil {
		return err
	}
	if _, err := cfg.Shop.Weekday(); err != nil {
		return err
	}
	if _, err := cfg.Shop.Location(); err != nil {
		return err
	}
	if cfg.Shop.RecentTransactions < 0 {
		return fmt.Errorf("invalid recent_transactions: %d", cfg.Shop.RecentTransactions)
	}

	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("invalid api rate_limit: %d", cfg.API.RateLimit)
	}
	if _, err := time.ParseDuration(cfg.API.RateLimitWindow); err != nil {
		return fmt.Errorf("invalid api rate_limit_window: %w", err)
	}

	return nil
}

// Rate returns the hourly rate given to new stations.
func (c ShopConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.DefaultRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid default_rate %q: %w", c.DefaultRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid default_rate %q: must not be negative", c.DefaultRate)
	}
	return rate, nil
}

// Weekday parses week_start, accepting full names or three-letter
// abbreviations in any case.
func (c ShopConfig) Weekday() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(c.WeekStart))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || (len(name) >= 3 && strings.HasPrefix(full, name)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid week_start: %q", c.WeekStart)
}

// Location resolves timezone. "Local" and the empty string mean the host
// timezone.
func (c ShopConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
