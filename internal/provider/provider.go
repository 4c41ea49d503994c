// Package provider defines the answer-provider capability and its two
// implementations: an offline keyword-driven Mock and a Remote provider backed
// by an OpenAI-compatible chat completions API.
package provider

import (
	"context"
	"io"
)

// Source tags reported with every answer.
const (
	SourceMock   = "mock"
	SourceRemote = "openai"
)

// Answer is a provider result. It is an immutable value.
type Answer struct {
	Text                string
	Source              string
	SystemPromptApplied bool
}

// Provider turns a question into an answer. Errors are always *aierr.Error.
// Implementations must be safe for concurrent use.
type Provider interface {
	Ask(ctx context.Context, question string) (Answer, error)
	Name() string
}

// Mode is the provider variant chosen at startup.
type Mode string

const (
	ModeMock   Mode = "mock"
	ModeRemote Mode = "remote"
)

// Selection is the provider chosen once at startup.
type Selection struct {
	Provider Provider
	Mode     Mode
}

// RemoteEnabled reports whether the remote backend serves requests.
func (s Selection) RemoteEnabled() bool { return s.Mode == ModeRemote }

// Close releases resources held by the selected provider.
func (s Selection) Close() error {
	if c, ok := s.Provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
