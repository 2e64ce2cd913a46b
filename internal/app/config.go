package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/raysh454/trimetric/internal/store"
)

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	// Listen is the address the HTTP API binds to.
	Listen string `mapstructure:"listen"`
	// MaxConnections caps concurrent connections accepted by the listener.
	MaxConnections int `mapstructure:"max-connections"`

	DBBackend string `mapstructure:"db-backend"`
	// DBDSN is a file path for sqlite, a connection string otherwise.
	DBDSN       string `mapstructure:"db-dsn"`
	PingRetries uint64 `mapstructure:"ping-retries"`

	LogLevel   string `mapstructure:"log-level"`
	LogBackend string `mapstructure:"log-backend"`

	// Server, when set, points the CLI at a running API instead of the local store.
	Server  string        `mapstructure:"server"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Output is "table" or "json"; empty picks by terminal.
	Output string `mapstructure:"output"`
}

// DefaultConfig returns a Config populated with development defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:         ":8080",
		MaxConnections: 256,
		DBBackend:      string(store.SQLite),
		DBDSN:          "~/.config/trimetric/trimetric.db",
		PingRetries:    5,
		LogLevel:       "info",
		LogBackend:     "zap",
		Timeout:        30 * time.Second,
	}
}

// SetDefaults registers DefaultConfig's values on v.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("listen", d.Listen)
	v.SetDefault("max-connections", d.MaxConnections)
	v.SetDefault("db-backend", d.DBBackend)
	v.SetDefault("db-dsn", d.DBDSN)
	v.SetDefault("ping-retries", d.PingRetries)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-backend", d.LogBackend)
	v.SetDefault("server", d.Server)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("output", d.Output)
}

// LoadConfig reads configFile (or .trimetric.yaml in the working or home
// directory) plus TRIMETRIC_* environment variables into a Config. A missing
// default config file is not an error.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".trimetric")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	v.SetEnvPrefix("TRIMETRIC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if _, err := store.ParseBackend(c.DBBackend); err != nil {
		return err
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max-connections must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	switch c.Output {
	case "", "table", "json":
	default:
		return fmt.Errorf("unsupported output format %q", c.Output)
	}
	return nil
}

// StoreConfig resolves the database settings. For sqlite the path is
// expanded and its directory created.
func (c *Config) StoreConfig() (store.Config, error) {
	backend, err := store.ParseBackend(c.DBBackend)
	if err != nil {
		return store.Config{}, err
	}
	dsn := c.DBDSN
	if backend == store.SQLite {
		dsn, err = expandPath(dsn)
		if err != nil {
			return store.Config{}, err
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return store.Config{}, fmt.Errorf("creating database directory: %w", err)
		}
	}
	return store.Config{Backend: backend, DSN: dsn, PingRetries: c.PingRetries}, nil
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
