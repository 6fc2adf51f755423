package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Debug               bool          `envconfig:"debug"`
	Port                int           `envconfig:"port" default:"5000"`
	Env                 string        `envconfig:"env" default:"dev"`
	BaseUrl             string        `envconfig:"base_url"`
	DBDriver            string        `envconfig:"db_driver" default:"postgres"`
	PostgresHost        string        `envconfig:"postgres_host" default:"localhost"`
	PostgresUser        string        `envconfig:"postgres_user"`
	PostgresDB          string        `envconfig:"postgres_db"`
	PostgresPort        int           `envconfig:"postgres_port" default:"5432"`
	PostgresPassword    string        `envconfig:"postgres_password"`
	PostgresSSLMode     string        `envconfig:"postgres_sslmode" default:"disable"`
	SQLitePath          string        `envconfig:"sqlite_path" default:"reward.db"`
	JWTSecret           string        `envconfig:"jwt_secret"`
	TokenTTL            time.Duration `envconfig:"token_ttl" default:"24h"`
	AdminEmail          string        `envconfig:"admin_email"`
	AdminPassword       string        `envconfig:"admin_password"`
	RedisAddr           string        `envconfig:"redis_addr"`
	RedisPassword       string        `envconfig:"redis_password"`
	LoginRateLimit      uint          `envconfig:"login_rate_limit" default:"10"`
	RedemptionRateLimit uint          `envconfig:"redemption_rate_limit" default:"5"`
	MinRedemptionPoints int           `envconfig:"min_redemption_points" default:"50"`
	AllowedOrigins      []string      `envconfig:"allowed_origins"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("reward", c)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.MinRedemptionPoints < 0 {
		return fmt.Errorf("min redemption points must not be negative")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode)
}
