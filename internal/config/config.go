package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"

	"ask-service/internal/aierr"
)

// Environment variables recognised outside the ASK_ override scheme.
const (
	EnvPrefix     = "ASK_"
	EnvConfigPath = "ASK_CONFIG"
	EnvCredential = "OPENAI_API_KEY"

	DefaultConfigPath = "config.toml"
)

// Config is the resolved process configuration. It is built once at startup
// and passed by value afterwards.
type Config struct {
	Server   ServerConfig   `toml:"server" envPrefix:"SERVER_"`
	Provider ProviderConfig `toml:"provider" envPrefix:"PROVIDER_"`
}

// ServerConfig holds settings for the HTTP boundary.
type ServerConfig struct {
	Host            string        `toml:"host" env:"HOST"`
	Port            int           `toml:"port" env:"PORT" validate:"gte=1,lte=65535"`
	LogLevel        string        `toml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `toml:"log_format" env:"LOG_FORMAT" validate:"oneof=json text"`
	Version         string        `toml:"version" env:"VERSION" validate:"required"`
	MaxBodyBytes    int64         `toml:"max_body_bytes" env:"MAX_BODY_BYTES" validate:"gt=0"`
	RequestTimeout  time.Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProviderConfig holds the remote backend settings. An empty Token means the
// service runs in mock mode.
type ProviderConfig struct {
	Token          string        `toml:"token" env:"TOKEN"`
	Model          string        `toml:"model" env:"MODEL" validate:"required"`
	Temperature    float64       `toml:"temperature" env:"TEMPERATURE" validate:"gte=0,lte=2"`
	MaxTokens      int           `toml:"max_tokens" env:"MAX_TOKENS" validate:"gt=0"`
	BaseURL        string        `toml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
	Timeout        time.Duration `toml:"timeout" env:"TIMEOUT" validate:"gt=0"`
	SystemPrompt   string        `toml:"system_prompt" env:"SYSTEM_PROMPT"`
	MaxConcurrency int           `toml:"max_concurrency" env:"MAX_CONCURRENCY" validate:"gt=0"`
}

// HasToken reports whether a usable credential is configured.
func (p ProviderConfig) HasToken() bool {
	return strings.TrimSpace(p.Token) != ""
}

// LogValue keeps the credential out of logs.
func (p ProviderConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("token_set", p.HasToken()),
		slog.String("model", p.Model),
		slog.Float64("temperature", p.Temperature),
		slog.Int("max_tokens", p.MaxTokens),
		slog.String("base_url", p.BaseURL),
		slog.Duration("timeout", p.Timeout),
		slog.Bool("system_prompt", strings.TrimSpace(p.SystemPrompt) != ""),
		slog.Int("max_concurrency", p.MaxConcurrency),
	)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration used before any file or
// environment layer is applied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8000,
			LogLevel:        "info",
			LogFormat:       "json",
			Version:         "0.1.0",
			MaxBodyBytes:    64 << 10,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Provider: ProviderConfig{
			Model:          "gpt-4o-mini",
			Temperature:    0.7,
			MaxTokens:      1024,
			Timeout:        30 * time.Second,
			MaxConcurrency: 16,
		},
	}
}

// Load resolves configuration from the process environment.
func Load() (Config, error) {
	return Resolve(env.ToMap(os.Environ()))
}

// Resolve layers defaults, the TOML config file and environment overrides,
// then validates the result. Any failure is a config error.
func Resolve(environ map[string]string) (Config, error) {
	cfg := Default()

	path, required := DefaultConfigPath, false
	if p := strings.TrimSpace(environ[EnvConfigPath]); p != "" {
		path, required = p, true
	}
	if err := LoadFile(&cfg, path, required); err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg, environ); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes the TOML file at path over cfg. A missing file is only an
// error when required is set.
func LoadFile(cfg *Config, path string, required bool) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return aierr.Config(fmt.Sprintf("cannot load config file %s", path), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return aierr.Config(fmt.Sprintf("unknown keys in %s: %s", path, strings.Join(keys, ", ")), nil)
	}
	return nil
}

// ApplyEnv applies ASK_-prefixed overrides from environ, then the credential
// variable, which wins over every other source.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return aierr.Config("invalid environment override", err)
	}
	if key := strings.TrimSpace(environ[EnvCredential]); key != "" {
		cfg.Provider.Token = key
	}
	return nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return aierr.Config("invalid configuration", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return aierr.Config("invalid configuration: "+strings.Join(msgs, "; "), err)
}

func (c *Config) normalize() {
	c.Server.LogLevel = strings.ToLower(strings.TrimSpace(c.Server.LogLevel))
	c.Server.LogFormat = strings.ToLower(strings.TrimSpace(c.Server.LogFormat))
	c.Provider.Token = strings.TrimSpace(c.Provider.Token)
	c.Provider.BaseURL = strings.TrimSpace(c.Provider.BaseURL)
	// The openai client resolves paths relative to the base URL.
	if c.Provider.BaseURL != "" && !strings.HasSuffix(c.Provider.BaseURL, "/") {
		c.Provider.BaseURL += "/"
	}
}
