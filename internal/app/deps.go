package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"ask-service/internal/config"
	"ask-service/internal/logger"
	"ask-service/internal/provider"
	"ask-service/internal/validation"
)

// Deps bundles the runtime dependencies of the service. It is built once at
// startup and shared read-only by all handlers.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Provider provider.Provider
	Mode     provider.Mode

	closer func() error
}

// RemoteEnabled reports whether the remote backend answers questions.
func (d Deps) RemoteEnabled() bool { return d.Mode == provider.ModeRemote }

// Close releases provider resources.
func (d Deps) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}

// Build loads the optional .env file, resolves configuration and selects the
// provider. Configuration errors are fatal.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return Deps{}, fmt.Errorf("failed to resolve configuration: %w", err)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	return FromConfig(cfg, log)
}

// FromConfig selects the provider for cfg and wraps it in the validation
// pipeline.
func FromConfig(cfg config.Config, log *slog.Logger, opts ...provider.RemoteOption) (Deps, error) {
	sel, err := provider.Select(cfg.Provider, opts...)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize provider: %w", err)
	}
	if sel.RemoteEnabled() {
		log.Info("using remote provider", "provider", cfg.Provider)
	} else {
		log.Info("no credential configured; using mock provider")
	}
	return Deps{
		Config:   cfg,
		Log:      log,
		Provider: validation.Guard(sel.Provider),
		Mode:     sel.Mode,
		closer:   sel.Close,
	}, nil
}
