// Package config assembles server configuration from command-line flags,
// KITSHELF_* environment variables and built-in defaults, in that order of
// precedence.
package config

import (
	"errors"
	"flag"
	"fmt"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "KITSHELF_"

// Config is the server configuration.
type Config struct {
	// DBPath is the SQLite database file. Env: KITSHELF_DB
	DBPath string `env:"DB" validate:"required"`

	// Addr is the listen address. Env: KITSHELF_ADDR
	Addr string `env:"ADDR" validate:"required"`

	// LogPath optionally mirrors all log output to a file. Env: KITSHELF_LOG
	LogPath string `env:"LOG"`

	// PublicURL prefixes media URLs handed to clients, e.g.
	// "https://kits.example.com". Empty means root-relative URLs.
	// Env: KITSHELF_PUBLIC_URL
	PublicURL string `env:"PUBLIC_URL" validate:"omitempty,url"`

	Auth Auth `envPrefix:"AUTH_"`
}

// Auth configures verification of identity provider tokens.
type Auth struct {
	// Secret is the HS256 key shared with the identity provider. When empty
	// the server falls back to a secret generated into the database.
	// Env: KITSHELF_AUTH_SECRET
	Secret string `env:"SECRET"`

	// Issuer, when set, must match the token "iss" claim.
	// Env: KITSHELF_AUTH_ISSUER
	Issuer string `env:"ISSUER"`

	// Audience, when set, must appear in the token "aud" claim.
	// Env: KITSHELF_AUTH_AUDIENCE
	Audience string `env:"AUDIENCE"`
}

// Defaults returns the values used when neither a flag nor the environment
// sets a field.
func Defaults() *Config {
	return &Config{
		DBPath: "kitshelf.sqlite3",
		Addr:   ":8080",
	}
}

// RegisterFlags binds the server flags to fs, with short aliases. Flags
// default to empty so that only explicitly set flags override the
// environment.
func RegisterFlags(fs *flag.FlagSet) *Config {
	cfg := &Config{}
	fs.StringVar(&cfg.DBPath, "db", "", "")
	fs.StringVar(&cfg.DBPath, "d", "", "")
	fs.StringVar(&cfg.Addr, "addr", "", "")
	fs.StringVar(&cfg.Addr, "a", "", "")
	fs.StringVar(&cfg.LogPath, "log", "", "")
	fs.StringVar(&cfg.LogPath, "l", "", "")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "")
	fs.StringVar(&cfg.Auth.Secret, "auth-secret", "", "")
	fs.StringVar(&cfg.Auth.Issuer, "auth-issuer", "", "")
	fs.StringVar(&cfg.Auth.Audience, "auth-audience", "", "")
	return cfg
}

// Load merges flags, the environment and defaults into one validated
// config. environ overrides the process environment when non-nil.
func Load(flags *Config, environ map[string]string) (*Config, error) {
	envCfg := &Config{}
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(envCfg, opts); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}

	cfg := &Config{}
	if flags != nil {
		*cfg = *flags
	}
	var errs error
	for _, layer := range []*Config{envCfg, Defaults()} {
		if err := mergo.Merge(cfg, layer); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if errs != nil {
		return nil, fmt.Errorf("error merging configs: %w", errs)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
