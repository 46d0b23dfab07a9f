package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"password"`
	DBName          string        `env:"DB_NAME" envDefault:"iflowx"`
	SSLMode         string        `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	LogLevel        string        `env:"DB_LOG_LEVEL" envDefault:"warn"`
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GormLogLevel maps LogLevel onto gorm's logger levels
func (c *DBConfig) GormLogLevel() logger.LogLevel {
	switch c.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// StoreConfig selects the record store
type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"postgres"` // postgres | memory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV" envDefault:"development"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string `env:"JWT_SIGNING_KEY" envDefault:"defaultsecretkey"`
	ExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// MailConfig holds outbound email configuration. An empty APIKey selects the
// log-only sender.
type MailConfig struct {
	APIKey  string        `env:"RESEND_API_KEY"`
	From    string        `env:"EMAIL_FROM"`
	APIURL  string        `env:"EMAIL_API_URL" envDefault:"https://api.resend.com/emails"`
	Timeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"10s"`
}

// AppConfig holds licensing behaviour settings
type AppConfig struct {
	BaseURL            string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	InviteValidityDays int    `env:"INVITE_VALIDITY_DAYS" envDefault:"7"`
	ExpiringSoonDays   int    `env:"EXPIRING_SOON_DAYS" envDefault:"14"`
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Store       StoreConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Mail        MailConfig
	App         AppConfig
}

// Load reads an optional .env file, then the environment
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{ServiceName: serviceName}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.App.InviteValidityDays < 1 {
		return fmt.Errorf("INVITE_VALIDITY_DAYS must be at least 1")
	}
	if c.App.ExpiringSoonDays < 1 {
		return fmt.Errorf("EXPIRING_SOON_DAYS must be at least 1")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("store_driver", c.Store.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("app_base_url", c.App.BaseURL),
		zap.String("mail_from", c.Mail.From),
		zap.String("mail_api_key", mask(c.Mail.APIKey)),
		zap.String("jwt_signing_key", mask(c.JWT.SigningKey)),
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***MASKED***"
}
