package provider

import (
	"ask-service/internal/aierr"
	"ask-service/internal/config"
)

// Select picks the provider for the process lifetime: Remote when a credential
// is configured, Mock otherwise. A missing credential is not an error.
func Select(cfg config.ProviderConfig, opts ...RemoteOption) (Selection, error) {
	if !cfg.HasToken() {
		return Selection{Provider: NewMock(), Mode: ModeMock}, nil
	}
	remote, err := NewRemote(cfg.Token, cfg, opts...)
	if err != nil {
		return Selection{}, aierr.Config("cannot start remote provider", err)
	}
	return Selection{Provider: remote, Mode: ModeRemote}, nil
}
