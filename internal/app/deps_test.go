package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ask-service/internal/aierr"
	"ask-service/internal/config"
	"ask-service/internal/provider"
)

func TestFromConfigWithoutCredentialUsesMock(t *testing.T) {
	deps, err := FromConfig(config.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, provider.ModeMock, deps.Mode)
	assert.False(t, deps.RemoteEnabled())
	assert.Equal(t, provider.SourceMock, deps.Provider.Name())

	_, err = deps.Provider.Ask(context.Background(), "   ")
	assert.Equal(t, aierr.KindEmptyQuestion, aierr.KindOf(err), "provider must be wrapped by validation")
}

func TestFromConfigWithCredentialUsesRemote(t *testing.T) {
	cfg := config.Default()
	cfg.Provider.Token = "sk-do-not-log"

	var buf bytes.Buffer
	deps, err := FromConfig(cfg, slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, provider.ModeRemote, deps.Mode)
	assert.True(t, deps.RemoteEnabled())
	assert.Equal(t, provider.SourceRemote, deps.Provider.Name())
	assert.NotContains(t, buf.String(), "sk-do-not-log")
}

func TestBuildFailsOnInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ASK_SERVER_PORT", "0")

	_, err := Build()
	require.Error(t, err)
	assert.Equal(t, aierr.KindConfig, aierr.KindOf(err))
}

func TestBuildWithoutEnvFileOrConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvCredential, "")
	t.Setenv("ASK_PROVIDER_TOKEN", "")
	t.Setenv(config.EnvConfigPath, "")

	deps, err := Build()
	require.NoError(t, err)
	defer deps.Close()
	assert.Equal(t, provider.ModeMock, deps.Mode)
}
