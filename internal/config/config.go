// Package config loads service settings from the environment, an optional .env
// file and an optional config file, in that order of precedence.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"catalog/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Supported identity sources.
const (
	IdentityFromConfig   = "config"
	IdentityFromDatabase = "database"
)

// UserConfig is one account of the identity store. Password may be plaintext or a bcrypt hash.
type UserConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Role     string `mapstructure:"role"`
}

// Config holds every runtime setting of the service.
type Config struct {
	AppPort        string
	DBDriver       string
	DatabaseDSN    string
	IdentitySource string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	LogLevel       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Users          []UserConfig
}

// Load reads a .env file if present, then the optional config file named by
// CONFIG_FILE (default ./config.yaml), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return New(v)
}

// New builds a Config from v after applying defaults and environment bindings.
func New(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "catalog.db")
	v.SetDefault("IDENTITY_SOURCE", IdentityFromConfig)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("READ_TIMEOUT", "10s")
	v.SetDefault("WRITE_TIMEOUT", "10s")
	v.SetDefault("USERS", "admin:admin:ADMIN,user:user:USER")
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		IdentitySource: strings.ToLower(v.GetString("IDENTITY_SOURCE")),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		ReadTimeout:    v.GetDuration("READ_TIMEOUT"),
		WriteTimeout:   v.GetDuration("WRITE_TIMEOUT"),
	}

	users, err := loadUsers(v)
	if err != nil {
		return nil, err
	}
	cfg.Users = users

	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.IdentitySource {
	case IdentityFromConfig:
	case IdentityFromDatabase:
		if c.DBDriver == DriverMemory {
			return errors.New("IDENTITY_SOURCE=database requires a sql DB_DRIVER")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_SOURCE %q", c.IdentitySource)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if len(c.Users) == 0 {
		return errors.New("at least one user must be configured")
	}
	seen := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		if u.Username == "" || u.Password == "" {
			return errors.New("configured users need a username and a password")
		}
		if _, ok := models.ParseRole(u.Role); !ok {
			return fmt.Errorf("user %s has unknown role %q", u.Username, u.Role)
		}
		if seen[u.Username] {
			return fmt.Errorf("user %s is configured twice", u.Username)
		}
		seen[u.Username] = true
	}
	return nil
}

// loadUsers accepts either a "users" list from the config file or the
// USERS string "name:password:ROLE,name:password:ROLE".
func loadUsers(v *viper.Viper) ([]UserConfig, error) {
	raw := v.Get("USERS")
	if s, ok := raw.(string); ok {
		return ParseUsers(s)
	}
	var users []UserConfig
	if err := v.UnmarshalKey("USERS", &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// ParseUsers parses the compact "name:password:ROLE" list form. Passwords may
// contain colons; the role is always the last field.
func ParseUsers(s string) ([]UserConfig, error) {
	var users []UserConfig
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		first := strings.Index(entry, ":")
		last := strings.LastIndex(entry, ":")
		if first <= 0 || last == first {
			return nil, fmt.Errorf("malformed user entry %q, want name:password:ROLE", entry)
		}
		users = append(users, UserConfig{
			Username: entry[:first],
			Password: entry[first+1 : last],
			Role:     entry[last+1:],
		})
	}
	return users, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
