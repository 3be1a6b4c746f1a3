// Package config provides functionality for managing configuration options
// for the server using command-line flags, environment variables and an
// optional JSON config file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `mapstructure:"address"`

	// DatabaseDriver selects the SQL driver: "postgres", "pgx" or "sqlite".
	DatabaseDriver string `mapstructure:"database_driver"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `mapstructure:"database_dsn"`

	// Config is the path to the config file.
	Config string `mapstructure:"config"`

	// TokenSecret signs session tokens.
	TokenSecret string `mapstructure:"token_secret"`

	// TokenTTL is how long a session token stays valid.
	TokenTTL time.Duration `mapstructure:"token_ttl"`

	// SweepInterval is the period of the expired share cleaner.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	LogLevel string `mapstructure:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`
}

// ErrMissingSecret is returned when no token secret was configured.
var ErrMissingSecret = errors.New("token secret is required")

// Parse parses the command-line flags, environment variables and config
// file. It exits the process on invalid configuration.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("error while parsing configuration: %v", err)
	}
	return opts
}

// ParseArgs resolves the configuration from args, the environment and the
// config file, in that order of precedence.
func ParseArgs(args []string) (*Options, error) {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.StringP("address", "a", "localhost:8080", "run on ip:port server")
	fs.String("db-driver", "sqlite", "database driver: postgres, pgx or sqlite")
	fs.StringP("dsn", "d", "contacts.db", "db address")
	fs.StringP("config", "c", "config.json", "path to config file")
	fs.String("token-secret", "", "secret used to sign session tokens")
	fs.Duration("token-ttl", 24*time.Hour, "session token lifetime")
	fs.Duration("sweep-interval", time.Hour, "expired share cleanup interval")
	fs.String("log-level", "info", "log level")
	fs.String("tls-cert", "", "path to TLS certificate")
	fs.String("tls-key", "", "path to TLS private key")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, flag := range map[string]string{
		"address":         "address",
		"database_driver": "db-driver",
		"database_dsn":    "dsn",
		"config":          "config",
		"token_secret":    "token-secret",
		"token_ttl":       "token-ttl",
		"sweep_interval":  "sweep-interval",
		"log_level":       "log-level",
		"tls_cert":        "tls-cert",
		"tls_key":         "tls-key",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("contacts")
	v.AutomaticEnv()
	// Plain names kept for compatibility with existing deployments.
	_ = v.BindEnv("address", "SERVER_ADDRESS", "CONTACTS_ADDRESS")
	_ = v.BindEnv("database_dsn", "DATABASE_DSN", "CONTACTS_DATABASE_DSN")
	_ = v.BindEnv("config", "CONFIG", "CONTACTS_CONFIG")

	if path := v.GetString("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if opts.TokenSecret == "" {
		return nil, ErrMissingSecret
	}
	return &opts, nil
}
