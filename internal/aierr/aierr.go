// Package aierr defines the typed errors shared by providers, validation and
// the HTTP layer.
package aierr

import (
	"errors"
	"fmt"
)

// Kind enumerates the failure kinds a provider or the validation pipeline can report.
type Kind int

const (
	KindInternal Kind = iota
	KindEmptyQuestion
	KindUpstreamAuth
	KindUpstreamNetwork
	KindUpstreamRateLimited
	KindUpstreamTimeout
	KindConfig
)

var codes = map[Kind]string{
	KindInternal:            "INTERNAL_ERROR",
	KindEmptyQuestion:       "EMPTY_QUESTION",
	KindUpstreamAuth:        "UPSTREAM_AUTH",
	KindUpstreamNetwork:     "UPSTREAM_NETWORK",
	KindUpstreamRateLimited: "UPSTREAM_RATE_LIMITED",
	KindUpstreamTimeout:     "UPSTREAM_TIMEOUT",
	KindConfig:              "CONFIG_ERROR",
}

// Code returns the machine-readable code for k.
func (k Kind) Code() string {
	if c, ok := codes[k]; ok {
		return c
	}
	return codes[KindInternal]
}

func (k Kind) String() string { return k.Code() }

// Error is the typed failure returned by the core. Message is safe to show to
// clients; it never carries credentials.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// Code returns the machine-readable code of the error kind.
func (e *Error) Code() string { return e.Kind.Code() }

// New builds an Error of kind k.
func New(k Kind, message string) *Error {
	return &Error{Kind: k, Message: message}
}

// Wrap builds an Error of kind k that unwraps to cause. The cause is kept for
// errors.Is/As only and is not part of Error().
func Wrap(k Kind, message string, cause error) *Error {
	return &Error{Kind: k, Message: message, err: cause}
}

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// EmptyQuestion reports a question that is blank after trimming.
func EmptyQuestion() *Error {
	return New(KindEmptyQuestion, "question must not be empty")
}

// Config reports an unusable configuration; cause may be nil.
func Config(message string, cause error) *Error {
	return Wrap(KindConfig, message, cause)
}
