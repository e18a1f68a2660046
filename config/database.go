package config

import (
	"strings"
	"time"
)

const defaultConnectTimeout = 10 * time.Second

// DBConfig contains PostgreSQL database configuration. Credentials here are only used
// when no secret is configured.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"ingestor"`
	Password string `env:"PASSWORD"                envDefault:"ingestor"`
	Name     string `env:"NAME"                    envDefault:"warehouse"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// ConnectTimeout bounds establishing each invocation's connection.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"false"`
}

// Sanitize applies defaults.
func (c *DBConfig) Sanitize() {
	c.SSLMode = strings.TrimSpace(c.SSLMode)
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
}

// RedisConfig contains Redis configuration for the processed-marker cache.
//
// URL takes precedence over Addrs when set. A master name selects a Sentinel-managed
// deployment; Cluster selects a Redis Cluster.
type RedisConfig struct {
	Enabled      bool          `env:"ENABLED"       envDefault:"false"`
	URL          string        `env:"URL"`
	Addrs        []string      `env:"ADDRS"         envDefault:"localhost:6379"`
	Username     string        `env:"USERNAME"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB"            envDefault:"0"`
	MasterName   string        `env:"MASTER_NAME"`
	Cluster      bool          `env:"CLUSTER"       envDefault:"false"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT"  envDefault:"2s"`
	ProcessedTTL time.Duration `env:"PROCESSED_TTL" envDefault:"24h"`
}

// Sanitize applies defaults.
func (c *RedisConfig) Sanitize() {
	c.URL = strings.TrimSpace(c.URL)
	c.MasterName = strings.TrimSpace(c.MasterName)
	addrs := c.Addrs[:0]
	for _, a := range c.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	c.Addrs = addrs
	if c.DialTimeout <= 0 {
		c.DialTimeout = 2 * time.Second
	}
	if c.ProcessedTTL <= 0 {
		c.ProcessedTTL = 24 * time.Hour
	}
}
