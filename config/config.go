package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	PayMongo   PayMongoConfig   `mapstructure:"paymongo"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Events     EventsConfig     `mapstructure:"events"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
	// TrustedProxies lists the IPs/CIDRs allowed to set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// IsRelease reports whether the server runs in production mode.
func (s ServerConfig) IsRelease() bool {
	return s.Mode == "release"
}

type DatabaseConfig struct {
	// URL takes precedence over the discrete fields (Supabase hands out a full connection string).
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// PgBouncer disables prepared statements, required behind the Supabase transaction pooler.
	PgBouncer bool `mapstructure:"pgbouncer"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type PayMongoConfig struct {
	WebhookSecret string        `mapstructure:"webhook_secret"`
	SecretKey     string        `mapstructure:"secret_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ReplayWindow  time.Duration `mapstructure:"replay_window"`
	// AllowUnsigned lets non-release builds accept webhooks when no secret is configured.
	AllowUnsigned bool `mapstructure:"allow_unsigned"`
}

type SettlementConfig struct {
	CreditPrefix          string        `mapstructure:"credit_prefix"`
	GrantCacheTTL         time.Duration `mapstructure:"grant_cache_ttl"`
	MaxTransitionAttempts int           `mapstructure:"max_transition_attempts"`
}

type EventsConfig struct {
	Driver        string   `mapstructure:"driver"` // log, nats, kafka
	NATSURL       string   `mapstructure:"nats_url"`
	SubjectPrefix string   `mapstructure:"subject_prefix"`
	KafkaBrokers  []string `mapstructure:"kafka_brokers"`
	KafkaTopic    string   `mapstructure:"kafka_topic"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

type RateLimitConfig struct {
	SignatureFailures int64         `mapstructure:"signature_failures"`
	Window            time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: HSS_ (Harvest Settlement Service).
// Nested keys use underscore: HSS_PAYMONGO_WEBHOOK_SECRET, HSS_DATABASE_URL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.pgbouncer", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("paymongo.webhook_secret", "")
	v.SetDefault("paymongo.secret_key", "")
	v.SetDefault("paymongo.base_url", "https://api.paymongo.com/v1")
	v.SetDefault("paymongo.timeout", "10s")
	v.SetDefault("paymongo.replay_window", "5m")
	v.SetDefault("paymongo.allow_unsigned", false)
	v.SetDefault("settlement.credit_prefix", "CREDITS-")
	v.SetDefault("settlement.grant_cache_ttl", "168h")
	v.SetDefault("settlement.max_transition_attempts", 3)
	v.SetDefault("events.driver", "log")
	v.SetDefault("events.nats_url", "nats://localhost:4222")
	v.SetDefault("events.subject_prefix", "settlement")
	v.SetDefault("events.kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka_topic", "settlement-notices")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("ratelimit.signature_failures", 20)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// HSS_PAYMONGO_WEBHOOK_SECRET -> paymongo.webhook_secret
	v.SetEnvPrefix("HSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations that must never reach production.
func (c *Config) Validate() error {
	var errs []error
	if c.PayMongo.WebhookSecret == "" {
		if c.Server.IsRelease() {
			errs = append(errs, errors.New("paymongo.webhook_secret is required in release mode"))
		} else if !c.PayMongo.AllowUnsigned {
			errs = append(errs, errors.New("paymongo.webhook_secret is empty and paymongo.allow_unsigned is false"))
		}
	}
	if c.Server.IsRelease() && c.PayMongo.AllowUnsigned {
		errs = append(errs, errors.New("paymongo.allow_unsigned cannot be enabled in release mode"))
	}
	if c.PayMongo.Timeout <= 0 {
		errs = append(errs, errors.New("paymongo.timeout must be positive"))
	}
	if c.PayMongo.ReplayWindow <= 0 {
		errs = append(errs, errors.New("paymongo.replay_window must be positive"))
	}
	if c.Settlement.CreditPrefix == "" {
		errs = append(errs, errors.New("settlement.credit_prefix must not be empty"))
	}
	if c.Settlement.MaxTransitionAttempts < 1 {
		errs = append(errs, errors.New("settlement.max_transition_attempts must be at least 1"))
	}
	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, fmt.Errorf("server.trusted_proxies entry %q is not an IP or CIDR", proxy))
			}
		}
	}
	switch c.Events.Driver {
	case "log", "nats", "kafka":
	default:
		errs = append(errs, fmt.Errorf("events.driver %q is not one of log, nats, kafka", c.Events.Driver))
	}
	return errors.Join(errs...)
}
