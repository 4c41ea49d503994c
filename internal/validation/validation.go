// Package validation gates questions before they reach a provider.
package validation

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"ask-service/internal/aierr"
	"ask-service/internal/provider"
)

var validate = validator.New()

// Question trims raw and rejects it when nothing is left. The trimmed text is
// returned unchanged otherwise; there is no length or content rule.
func Question(raw string) (string, error) {
	q := strings.TrimSpace(raw)
	if err := validate.Var(q, "required"); err != nil {
		return "", aierr.EmptyQuestion()
	}
	return q, nil
}

type guard struct {
	next provider.Provider
}

// Guard wraps p so that every question is validated first. Rejected questions
// never reach p.
func Guard(p provider.Provider) provider.Provider {
	return &guard{next: p}
}

func (g *guard) Name() string { return g.next.Name() }

func (g *guard) Ask(ctx context.Context, question string) (provider.Answer, error) {
	q, err := Question(question)
	if err != nil {
		return provider.Answer{}, err
	}
	return g.next.Ask(ctx, q)
}
