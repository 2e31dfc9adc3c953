package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. CART_SYNC_REMOTE_BASE_URL
const EnvPrefix = "CART"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Tax       TaxConfig
	Sync      SyncConfig
	Catalog   CatalogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds the server database settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds bearer token settings
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// AuthConfig holds authentication endpoint switches
type AuthConfig struct {
	// DevLoginEnabled exposes POST /auth/token, which issues a token for any user id
	DevLoginEnabled bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
}

// TelemetryConfig controls tracing. Without a collector endpoint spans stay
// in-process and only feed trace ids into the logs.
type TelemetryConfig struct {
	Enabled           bool
	ServiceName       string
	CollectorEndpoint string
	Insecure          bool
	SamplingRatio     float64
	DBTracing         bool
	// MetricsEnabled exports cart sync metrics to CollectorEndpoint
	MetricsEnabled  bool
	MetricsInterval time.Duration
}

// TaxConfig holds GST computation settings shared by server and client
type TaxConfig struct {
	UnknownStatePolicy  string // intra, inter
	ApplyTaxToShipping  bool
	ShippingRatePercent decimal.Decimal
	OriginState         string
	// Rates is a static HSN code to rate percent table used as a fallback
	Rates map[string]decimal.Decimal
}

// SyncConfig holds client-side cart sync settings
type SyncConfig struct {
	RemoteBaseURL   string
	RemoteTimeout   time.Duration
	LocalBackend    string // memory, sqlite, redis
	LocalQuotaBytes int
	LocalKey        string
	SQLitePath      string
	BuyerState      string
	Token           string
}

// CatalogConfig holds products seeded into an empty server database
type CatalogConfig struct {
	Products []ProductSeed
}

// ProductSeed is one catalog row in config
type ProductSeed struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Price       string `mapstructure:"price"`
	Inclusive   bool   `mapstructure:"inclusive"`
	HSNCode     string `mapstructure:"hsn_code"`
	SellerID    string `mapstructure:"seller_id"`
	SellerState string `mapstructure:"seller_state"`
	Stock       int    `mapstructure:"stock"`
}

// Load reads configuration. Priority, highest first: CART_* environment
// variables, the config file, built-in defaults. An empty path searches for
// config.toml in the working directory and /etc/cartsync.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/cartsync")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Issuer:     v.GetString("jwt.issuer"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		Auth: AuthConfig{
			DevLoginEnabled: v.GetBool("auth.dev_login_enabled"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			ServiceName:       v.GetString("telemetry.service_name"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			Insecure:          v.GetBool("telemetry.insecure"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			DBTracing:         v.GetBool("telemetry.db_tracing"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
		Tax: TaxConfig{
			UnknownStatePolicy: v.GetString("tax.unknown_state_policy"),
			ApplyTaxToShipping: v.GetBool("tax.apply_tax_to_shipping"),
			OriginState:        v.GetString("tax.origin_state"),
		},
		Sync: SyncConfig{
			RemoteBaseURL:   v.GetString("sync.remote_base_url"),
			RemoteTimeout:   v.GetDuration("sync.remote_timeout"),
			LocalBackend:    v.GetString("sync.local_backend"),
			LocalQuotaBytes: v.GetInt("sync.local_quota_bytes"),
			LocalKey:        v.GetString("sync.local_key"),
			SQLitePath:      v.GetString("sync.sqlite_path"),
			BuyerState:      v.GetString("sync.buyer_state"),
			Token:           v.GetString("sync.token"),
		},
	}

	var err error
	cfg.Tax.ShippingRatePercent = decimal.NewFromInt(18)
	if v.IsSet("tax.shipping_rate_percent") {
		if cfg.Tax.ShippingRatePercent, err = parseDecimal(v.GetString("tax.shipping_rate_percent")); err != nil {
			return nil, fmt.Errorf("tax.shipping_rate_percent: %w", err)
		}
	}
	if cfg.Tax.Rates, err = parseRates(v.GetStringMapString("tax.rates")); err != nil {
		return nil, err
	}
	if err := v.UnmarshalKey("catalog.products", &cfg.Catalog.Products); err != nil {
		return nil, fmt.Errorf("catalog.products: %w", err)
	}

	if !v.IsSet("telemetry.sampling_ratio") {
		cfg.Telemetry.SamplingRatio = 1
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

func parseRates(raw map[string]string) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal, len(raw))
	for hsn, s := range raw {
		r, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("tax.rates.%s: %w", hsn, err)
		}
		rates[hsn] = r
	}
	return rates, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cartsync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "cartsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "cartsync.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "cartsync"
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}
	if cfg.Tax.UnknownStatePolicy == "" {
		cfg.Tax.UnknownStatePolicy = "intra"
	}
	if cfg.Sync.RemoteBaseURL == "" {
		cfg.Sync.RemoteBaseURL = "http://localhost:8080/api/v1"
	}
	if cfg.Sync.RemoteTimeout == 0 {
		cfg.Sync.RemoteTimeout = 10 * time.Second
	}
	if cfg.Sync.LocalBackend == "" {
		cfg.Sync.LocalBackend = "sqlite"
	}
	if cfg.Sync.LocalQuotaBytes == 0 {
		cfg.Sync.LocalQuotaBytes = 5 << 20
	}
	if cfg.Sync.LocalKey == "" {
		cfg.Sync.LocalKey = "cart"
	}
	if cfg.Sync.SQLitePath == "" {
		cfg.Sync.SQLitePath = "cart-local.db"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	switch c.Tax.UnknownStatePolicy {
	case "intra", "inter":
	default:
		return fmt.Errorf("tax.unknown_state_policy must be intra or inter, got %q", c.Tax.UnknownStatePolicy)
	}
	if c.Tax.ShippingRatePercent.IsNegative() || c.Tax.ShippingRatePercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("tax.shipping_rate_percent must be in [0,100), got %s", c.Tax.ShippingRatePercent)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be in [0,1], got %v", c.Telemetry.SamplingRatio)
	}
	switch c.Sync.LocalBackend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("sync.local_backend must be memory, sqlite or redis, got %q", c.Sync.LocalBackend)
	}
	if c.Sync.LocalQuotaBytes < 0 {
		return fmt.Errorf("sync.local_quota_bytes cannot be negative")
	}
	if _, err := url.ParseRequestURI(c.Sync.RemoteBaseURL); err != nil {
		return fmt.Errorf("sync.remote_base_url: %w", err)
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Auth.DevLoginEnabled {
			return fmt.Errorf("auth.dev_login_enabled must be false in production")
		}
		if c.Database.Driver == "postgres" && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}
	return nil
}

// DSN returns the postgres connection string with escaped credentials
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
