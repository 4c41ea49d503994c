package aierr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		code string
	}{
		{KindEmptyQuestion, "EMPTY_QUESTION"},
		{KindUpstreamAuth, "UPSTREAM_AUTH"},
		{KindUpstreamNetwork, "UPSTREAM_NETWORK"},
		{KindUpstreamRateLimited, "UPSTREAM_RATE_LIMITED"},
		{KindUpstreamTimeout, "UPSTREAM_TIMEOUT"},
		{KindConfig, "CONFIG_ERROR"},
		{KindInternal, "INTERNAL_ERROR"},
		{Kind(99), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.Code())
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := Wrap(KindUpstreamTimeout, "upstream did not answer in time", context.DeadlineExceeded)
	wrapped := fmt.Errorf("ask: %w", base)

	assert.Equal(t, KindUpstreamTimeout, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindUpstreamTimeout))
	assert.False(t, Is(wrapped, KindUpstreamNetwork))
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestErrorStringOmitsCause(t *testing.T) {
	err := Wrap(KindUpstreamAuth, "upstream rejected the credential", errors.New("Bearer sk-secret"))
	assert.Equal(t, "UPSTREAM_AUTH: upstream rejected the credential", err.Error())
	assert.NotContains(t, err.Error(), "sk-secret")
}
