package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Log            LogConfig
	HTTP           HTTPConfig
	Buyma          BuymaConfig
	Registration   RegistrationConfig
	Reconciliation ReconciliationConfig
	Margin         MarginConfig
	Idempotency    IdempotencyConfig
	Source         SourceConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// BuymaConfig holds marketplace API settings
type BuymaConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	// GlobalHourlyQuota caps calls to any endpoint per rolling hour
	GlobalHourlyQuota int
	// ProductDailyQuota caps product-endpoint calls per rolling 24 hours
	ProductDailyQuota int
	// MinCallInterval is the minimum spacing between consecutive calls
	MinCallInterval time.Duration
	// HaltOnQuota stops the current batch when the marketplace returns 429
	HaltOnQuota bool
	// Listing holds account-level fields stamped on every listing document
	Listing ListingConfig
}

// ListingConfig holds the fixed account values carried by every listing
type ListingConfig struct {
	BuyingAreaID     string
	ShippingAreaID   string
	ThemeID          int
	Duty             string
	ShippingMethodID int
}

// RegistrationConfig holds registration batch settings
type RegistrationConfig struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
	// ListingLifetime sets the default available_until horizon for new
	// listings
	ListingLifetime time.Duration
}

// ReconciliationConfig holds stock/price reconciliation settings
type ReconciliationConfig struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
	// DeleteOnStockout sends a delete document when every variant of a
	// published listing has gone out of stock
	DeleteOnStockout bool
	PriceSyncEnabled bool
}

// MarginConfig holds the cost model for profitability gating
type MarginConfig struct {
	ExchangeRateKRWPerJPY float64
	SalesFeeRate          float64
	DefaultShippingFeeKRW float64
	// Enforce rejects unprofitable products at registration time
	Enforce bool
}

// IdempotencyConfig holds webhook deduplication settings
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// SourceConfig holds the buying-source feed settings used by reconciliation
type SourceConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BUYMA_ prefix (e.g., BUYMA_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("BUYMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Buyma: BuymaConfig{
			BaseURL:           v.GetString("buyma.base_url"),
			AccessToken:       v.GetString("buyma.access_token"),
			Timeout:           v.GetDuration("buyma.timeout"),
			GlobalHourlyQuota: v.GetInt("buyma.global_hourly_quota"),
			ProductDailyQuota: v.GetInt("buyma.product_daily_quota"),
			MinCallInterval:   v.GetDuration("buyma.min_call_interval"),
			HaltOnQuota:       v.GetBool("buyma.halt_on_quota"),
			Listing: ListingConfig{
				BuyingAreaID:     v.GetString("buyma.listing.buying_area_id"),
				ShippingAreaID:   v.GetString("buyma.listing.shipping_area_id"),
				ThemeID:          v.GetInt("buyma.listing.theme_id"),
				Duty:             v.GetString("buyma.listing.duty"),
				ShippingMethodID: v.GetInt("buyma.listing.shipping_method_id"),
			},
		},
		Registration: RegistrationConfig{
			Enabled:         v.GetBool("registration.enabled"),
			Interval:        v.GetDuration("registration.interval"),
			BatchSize:       v.GetInt("registration.batch_size"),
			ListingLifetime: v.GetDuration("registration.listing_lifetime"),
		},
		Reconciliation: ReconciliationConfig{
			Enabled:          v.GetBool("reconciliation.enabled"),
			Interval:         v.GetDuration("reconciliation.interval"),
			BatchSize:        v.GetInt("reconciliation.batch_size"),
			DeleteOnStockout: v.GetBool("reconciliation.delete_on_stockout"),
			PriceSyncEnabled: v.GetBool("reconciliation.price_sync_enabled"),
		},
		Margin: MarginConfig{
			ExchangeRateKRWPerJPY: v.GetFloat64("margin.exchange_rate_krw_per_jpy"),
			SalesFeeRate:          v.GetFloat64("margin.sales_fee_rate"),
			DefaultShippingFeeKRW: v.GetFloat64("margin.default_shipping_fee_krw"),
			Enforce:               v.GetBool("margin.enforce"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: v.GetBool("idempotency.enabled"),
			TTL:     v.GetDuration("idempotency.ttl"),
		},
		Source: SourceConfig{
			BaseURL:     v.GetString("source.base_url"),
			AccessToken: v.GetString("source.access_token"),
			Timeout:     v.GetDuration("source.timeout"),
		},
	}

	// Booleans that default to true: viper returns false for unset keys,
	// so absence must be distinguished from an explicit false
	if !v.IsSet("buyma.halt_on_quota") {
		cfg.Buyma.HaltOnQuota = true
	}
	if !v.IsSet("idempotency.enabled") {
		cfg.Idempotency.Enabled = true
	}
	if !v.IsSet("registration.enabled") {
		cfg.Registration.Enabled = true
	}
	if !v.IsSet("reconciliation.enabled") {
		cfg.Reconciliation.Enabled = true
	}
	if !v.IsSet("reconciliation.delete_on_stockout") {
		cfg.Reconciliation.DeleteOnStockout = true
	}
	if !v.IsSet("reconciliation.price_sync_enabled") {
		cfg.Reconciliation.PriceSyncEnabled = true
	}
	if !v.IsSet("margin.enforce") {
		cfg.Margin.Enforce = true
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "buyma-pipeline"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
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
		cfg.Database.DBName = "buyma"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Buyma.BaseURL == "" {
		cfg.Buyma.BaseURL = "https://api.buyma.com"
	}
	if cfg.Buyma.Timeout == 0 {
		cfg.Buyma.Timeout = 30 * time.Second
	}
	if cfg.Buyma.GlobalHourlyQuota == 0 {
		cfg.Buyma.GlobalHourlyQuota = 5000
	}
	if cfg.Buyma.ProductDailyQuota == 0 {
		cfg.Buyma.ProductDailyQuota = 2500
	}
	if cfg.Buyma.MinCallInterval == 0 {
		cfg.Buyma.MinCallInterval = 1500 * time.Millisecond
	}
	if cfg.Buyma.Listing.BuyingAreaID == "" {
		cfg.Buyma.Listing.BuyingAreaID = "2002003000"
	}
	if cfg.Buyma.Listing.ShippingAreaID == "" {
		cfg.Buyma.Listing.ShippingAreaID = "2002003000"
	}
	if cfg.Buyma.Listing.ThemeID == 0 {
		cfg.Buyma.Listing.ThemeID = 98
	}
	if cfg.Buyma.Listing.Duty == "" {
		cfg.Buyma.Listing.Duty = "included"
	}
	if cfg.Buyma.Listing.ShippingMethodID == 0 {
		cfg.Buyma.Listing.ShippingMethodID = 1063035
	}
	if cfg.Registration.Interval == 0 {
		cfg.Registration.Interval = 10 * time.Minute
	}
	if cfg.Registration.BatchSize == 0 {
		cfg.Registration.BatchSize = 100
	}
	if cfg.Registration.ListingLifetime == 0 {
		cfg.Registration.ListingLifetime = 30 * 24 * time.Hour
	}
	if cfg.Reconciliation.Interval == 0 {
		cfg.Reconciliation.Interval = time.Hour
	}
	if cfg.Reconciliation.BatchSize == 0 {
		cfg.Reconciliation.BatchSize = 200
	}
	if cfg.Margin.ExchangeRateKRWPerJPY == 0 {
		cfg.Margin.ExchangeRateKRWPerJPY = 9.2
	}
	if cfg.Margin.SalesFeeRate == 0 {
		cfg.Margin.SalesFeeRate = 0.055
	}
	if cfg.Margin.DefaultShippingFeeKRW == 0 {
		cfg.Margin.DefaultShippingFeeKRW = 15000
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 15 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Buyma.GlobalHourlyQuota <= 0 {
		return fmt.Errorf("buyma.global_hourly_quota must be positive")
	}
	if c.Buyma.ProductDailyQuota <= 0 {
		return fmt.Errorf("buyma.product_daily_quota must be positive")
	}
	if c.Buyma.MinCallInterval < 0 {
		return fmt.Errorf("buyma.min_call_interval cannot be negative")
	}
	if c.Margin.SalesFeeRate < 0 || c.Margin.SalesFeeRate >= 1 {
		return fmt.Errorf("margin.sales_fee_rate must be in [0, 1), got %f", c.Margin.SalesFeeRate)
	}
	if c.Margin.ExchangeRateKRWPerJPY <= 0 {
		return fmt.Errorf("margin.exchange_rate_krw_per_jpy must be positive")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Buyma.AccessToken == "" {
			return fmt.Errorf("buyma.access_token is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
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

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
