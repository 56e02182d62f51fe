// Package config loads kyodo configuration from KYODO_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kyodo/backend/internal/common/constants"
)

const (
	envPrefix = "KYODO"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrMissingDatabaseURL = errors.New("database.url is required for the postgres driver")
	ErrUnknownDriver      = errors.New("unknown database driver")
	ErrInvalidBcryptCost  = errors.New("bcrypt_cost out of range")
	ErrInvalidPoolSize    = errors.New("database.min_conns must not exceed database.max_conns")
)

type Config struct {
	HTTPPort            string        `mapstructure:"http_port"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	BcryptCost          int           `mapstructure:"bcrypt_cost"`
	OrphanAuditInterval time.Duration `mapstructure:"orphan_audit_interval"`

	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	URL        string `mapstructure:"url"`
	SQLitePath string `mapstructure:"sqlite_path"`
	MaxConns   int32  `mapstructure:"max_conns"`
	MinConns   int32  `mapstructure:"min_conns"`
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

var keys = []string{
	"http_port",
	"request_timeout",
	"bcrypt_cost",
	"orphan_audit_interval",
	"database.driver",
	"database.url",
	"database.sqlite_path",
	"database.max_conns",
	"database.min_conns",
	"log.dir",
	"log.level",
	"cors.allowed_origins",
}

// Load reads envFile (if it exists) without overriding variables that are
// already set, then resolves every key from the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitOrigins(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	envMap, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for k, val := range envMap {
		if _, exists := os.LookupEnv(k); !exists {
			_ = os.Setenv(k, val)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", constants.DefaultHTTPPort)
	v.SetDefault("request_timeout", constants.DefaultRequestTimeout)
	v.SetDefault("bcrypt_cost", constants.DefaultBcryptCost)
	v.SetDefault("orphan_audit_interval", constants.DefaultOrphanAuditInterval)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite_path", constants.DefaultSQLitePath)
	v.SetDefault("database.max_conns", constants.DBPoolMaxConns)
	v.SetDefault("database.min_conns", constants.DBPoolMinConns)

	v.SetDefault("log.dir", constants.DefaultLogDir)
	v.SetDefault("log.level", "INFO")

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// splitOrigins accepts both a list and a single comma-separated value, which
// is what an environment variable produces.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return ErrMissingDatabaseURL
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}

	if c.BcryptCost < constants.MinBcryptCost || c.BcryptCost > constants.MaxBcryptCost {
		return fmt.Errorf("%w: %d", ErrInvalidBcryptCost, c.BcryptCost)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return ErrInvalidPoolSize
	}
	return nil
}
