package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"

	"ask-service/internal/retry"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "askclient",
		Usage:     "Ask questions to the ask service",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "Base URL of the ask service",
				Value:   "http://localhost:8000",
				EnvVars: []string{"ASK_URL"},
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Retry attempts for rate limited or unavailable responses",
				Value: 2,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: 500 * time.Millisecond,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
				Value: 90 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Show service status and active provider",
				Action: healthCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a question",
				ArgsUsage: "<question...>",
				Action:    askCommand,
			},
		},
	}
}

type client struct {
	baseURL string
	http    *http.Client
	retries int
	delay   time.Duration
}

func newClient(c *cli.Context) *client {
	return &client{
		baseURL: strings.TrimRight(c.String("url"), "/"),
		http:    &http.Client{Timeout: c.Duration("timeout")},
		retries: c.Int("retries"),
		delay:   c.Duration("retry-delay"),
	}
}

type response struct {
	status int
	body   []byte
}

var errRetryableStatus = errors.New("retryable status")

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do sends the request, retrying transport failures and retryable statuses.
// When retries run out on a retryable status the last response is returned.
func (cl *client) do(ctx context.Context, method, path string, payload any) (response, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return response{}, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var last response
	err := retry.Do(ctx, cl.retries+1, cl.delay, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, cl.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("X-Request-Id", uuid.NewString())

		res, err := cl.http.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		last = response{status: res.StatusCode, body: data}
		if retryable(res.StatusCode) {
			return errRetryableStatus
		}
		return nil
	})
	if errors.Is(err, errRetryableStatus) {
		return last, nil
	}
	if err != nil {
		return response{}, fmt.Errorf("request to %s failed: %w", cl.baseURL+path, err)
	}
	return last, nil
}

func failure(res response) error {
	if !gjson.ValidBytes(res.body) {
		return fmt.Errorf("HTTP %d: %s", res.status, strings.TrimSpace(string(res.body)))
	}
	msg := gjson.GetBytes(res.body, "error").String()
	if code := gjson.GetBytes(res.body, "code").String(); code != "" {
		return fmt.Errorf("%s (%s, HTTP %d)", msg, code, res.status)
	}
	return fmt.Errorf("%s (HTTP %d)", msg, res.status)
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("question is required")
	}

	res, err := newClient(c).do(c.Context, http.MethodPost, "/ask", map[string]string{"question": question})
	if err != nil {
		return err
	}
	if res.status != http.StatusOK {
		return failure(res)
	}
	if !gjson.ValidBytes(res.body) {
		return errors.New("server returned invalid JSON")
	}

	fields := gjson.GetManyBytes(res.body, "answer", "source", "system_prompt_applied")
	w := c.App.Writer
	fmt.Fprintln(w, fields[0].String())
	fmt.Fprintf(w, "%s %s", color.HiBlackString("source:"), color.CyanString(fields[1].String()))
	if fields[2].Bool() {
		fmt.Fprint(w, color.HiBlackString(" (system prompt applied)"))
	}
	fmt.Fprintln(w)
	return nil
}

func healthCommand(c *cli.Context) error {
	res, err := newClient(c).do(c.Context, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	if res.status != http.StatusOK {
		return failure(res)
	}

	status := gjson.GetBytes(res.body, "status").String()
	statusText := color.GreenString(status)
	if status != "ok" {
		statusText = color.YellowString(status)
	}
	w := c.App.Writer
	fmt.Fprintf(w, "status:   %s\n", statusText)
	fmt.Fprintf(w, "version:  %s\n", gjson.GetBytes(res.body, "version").String())
	fmt.Fprintf(w, "provider: %s\n", color.CyanString(gjson.GetBytes(res.body, "provider").String()))
	fmt.Fprintf(w, "remote:   %t\n", gjson.GetBytes(res.body, "remote_enabled").Bool())
	return nil
}
