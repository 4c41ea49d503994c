package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/panjf2000/ants/v2"

	"ask-service/internal/aierr"
	"ask-service/internal/config"
)

// Remote forwards questions to an OpenAI-compatible chat completions API.
//
// It keeps only the credential and configuration. Every Ask runs on a pool
// worker that builds a fresh client, performs one exchange and discards the
// client; no client outlives a single call.
type Remote struct {
	token      string
	cfg        config.ProviderConfig
	pool       *ants.Pool
	httpClient *http.Client
	newClient  func(opts ...option.RequestOption) openai.Client
}

// RemoteOption customises a Remote.
type RemoteOption func(*Remote)

// WithHTTPClient routes upstream calls through hc.
func WithHTTPClient(hc *http.Client) RemoteOption {
	return func(r *Remote) { r.httpClient = hc }
}

// NewRemote builds a Remote with a worker pool sized by cfg.MaxConcurrency.
func NewRemote(token string, cfg config.ProviderConfig, opts ...RemoteOption) (*Remote, error) {
	if strings.TrimSpace(token) == "" {
		return nil, aierr.Config("remote provider requires a token", nil)
	}
	size := cfg.MaxConcurrency
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	r := &Remote{
		token:     token,
		cfg:       cfg,
		pool:      pool,
		newClient: openai.NewClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Remote) Name() string { return SourceRemote }

// Close releases the worker pool.
func (r *Remote) Close() error {
	r.pool.Release()
	return nil
}

type remoteResult struct {
	answer Answer
	err    error
}

// Ask sends question upstream and waits at most cfg.Timeout for the answer.
func (r *Remote) Ask(ctx context.Context, question string) (Answer, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	done := make(chan remoteResult, 1)
	err := r.pool.Submit(func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- remoteResult{err: aierr.New(aierr.KindInternal, "upstream call failed unexpectedly")}
			}
		}()
		answer, err := r.exchange(ctx, question)
		done <- remoteResult{answer: answer, err: err}
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			return Answer{}, aierr.Wrap(aierr.KindUpstreamRateLimited, "too many upstream requests in flight", err)
		}
		return Answer{}, aierr.Wrap(aierr.KindInternal, "remote provider is shut down", err)
	}

	select {
	case res := <-done:
		return res.answer, res.err
	case <-ctx.Done():
		return Answer{}, contextError(ctx.Err())
	}
}

// exchange runs on a pool worker and owns the client for its whole lifetime.
func (r *Remote) exchange(ctx context.Context, question string) (Answer, error) {
	client := r.newClient(r.clientOptions()...)

	system := strings.TrimSpace(r.cfg.SystemPrompt)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(r.cfg.Model),
		Messages:            buildMessages(system, question),
		Temperature:         openai.Float(r.cfg.Temperature),
		MaxCompletionTokens: openai.Int(int64(r.cfg.MaxTokens)),
	}, option.WithHeader("X-Client-Request-Id", uuid.NewString()))
	if err != nil {
		return Answer{}, classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Answer{}, aierr.New(aierr.KindUpstreamNetwork, "upstream returned an empty answer")
	}
	return Answer{
		Text:                resp.Choices[0].Message.Content,
		Source:              SourceRemote,
		SystemPromptApplied: system != "",
	}, nil
}

func (r *Remote) clientOptions() []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(r.token),
		option.WithMaxRetries(0),
	}
	if r.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(r.cfg.BaseURL))
	}
	if r.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(r.httpClient))
	}
	return opts
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		})
	}
	return append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(user),
			},
		},
	})
}

// classify maps client errors onto the upstream error kinds. Messages are
// built here so response bodies and headers never leak into them.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return contextError(err)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return aierr.Wrap(aierr.KindUpstreamAuth, "upstream rejected the credential", err)
		case http.StatusTooManyRequests:
			return aierr.Wrap(aierr.KindUpstreamRateLimited, "upstream rate limit exceeded", err)
		default:
			return aierr.Wrap(aierr.KindUpstreamNetwork, fmt.Sprintf("upstream responded with status %d", apiErr.StatusCode), err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return aierr.Wrap(aierr.KindUpstreamTimeout, "upstream did not answer in time", err)
	}
	var (
		urlErr *url.Error
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	if errors.As(err, &urlErr) || errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return aierr.Wrap(aierr.KindUpstreamNetwork, "upstream is unreachable", err)
	}
	return aierr.Wrap(aierr.KindUpstreamNetwork, "upstream returned an invalid response", err)
}

func contextError(err error) error {
	if errors.Is(err, context.Canceled) {
		return aierr.Wrap(aierr.KindUpstreamTimeout, "request ended before upstream answered", err)
	}
	return aierr.Wrap(aierr.KindUpstreamTimeout, "upstream did not answer in time", err)
}
