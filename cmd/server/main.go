package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"ask-service/internal/app"
	"ask-service/internal/httputil"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer              string `json:"answer"`
	Source              string `json:"source"`
	SystemPromptApplied bool   `json:"system_prompt_applied"`
}

type endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var endpoints = []endpoint{
	{http.MethodGet, "/", "this description"},
	{http.MethodGet, "/health", "service status, version and provider mode"},
	{http.MethodPost, "/ask", `answer a question: {"question": "What is Rust?"}`},
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, deps)
	stop()
	if cerr := deps.Close(); cerr != nil {
		deps.Log.Warn("failed to release provider", "err", cerr)
	}
	if err != nil {
		deps.Log.Error("server error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, deps app.Deps) error {
	srv := &http.Server{
		Addr:    deps.Config.Server.Addr(),
		Handler: routes(deps),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("ask service listening", "addr", srv.Addr, "version", deps.Config.Server.Version, "remote_enabled", deps.RemoteEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		deps.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func routes(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Config.Server.RequestTimeout)
	r.Get("/", indexHandler(deps))
	r.Get("/health", httputil.HealthHandler(deps))
	r.Post("/ask", askHandler(deps))
	return r
}

func indexHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"name":      "ask-service",
			"version":   deps.Config.Server.Version,
			"endpoints": endpoints,
		})
	}
}

func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := httputil.DecodeJSON(w, r, deps.Config.Server.MaxBodyBytes, &req); err != nil {
			httputil.Fail(deps.Log, w, err)
			return
		}

		ans, err := deps.Provider.Ask(r.Context(), req.Question)
		if err != nil {
			httputil.Fail(deps.Log.With("provider", deps.Provider.Name()), w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, askResponse{
			Answer:              ans.Text,
			Source:              ans.Source,
			SystemPromptApplied: ans.SystemPromptApplied,
		})
	}
}
