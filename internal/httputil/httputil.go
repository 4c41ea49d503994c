package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ask-service/internal/aierr"
	"ask-service/internal/app"
)

// Codes for failures detected by the HTTP layer itself.
const (
	CodeInvalidJSON      = "INVALID_JSON"
	CodeUnprocessable    = "UNPROCESSABLE_ENTITY"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	RemoteEnabled bool   `json:"remote_enabled"`
	Provider      string `json:"provider"`
}

// NewRouter creates a chi router with standard middleware (RequestID, RealIP,
// Timeout, Recoverer, Logger) and JSON 404/405 responses.
func NewRouter(log *slog.Logger, timeout time.Duration) *chi.Mux {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))
	r.Use(Recoverer(log))
	r.Use(RequestLogger(log))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "resource not found: "+r.URL.Path, CodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path, CodeMethodNotAllowed)
	})
	return r
}

// WriteJSON writes a JSON response with proper headers.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(body)
}

// WriteError writes an ErrorResponse.
func WriteError(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// HealthHandler reports liveness, version and which provider is serving.
func HealthHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:        "ok",
			Version:       deps.Config.Server.Version,
			RemoteEnabled: deps.RemoteEnabled(),
			Provider:      deps.Provider.Name(),
		})
	}
}

// RequestLogger is a lightweight HTTP logger that uses slog.
func RequestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Recoverer logs panics via slog and answers with a JSON 500.
func Recoverer(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered", "panic", rec, "path", r.URL.Path, "method", r.Method, "request_id", middleware.GetReqID(r.Context()))
					WriteError(w, http.StatusInternalServerError, "internal server error", aierr.KindInternal.Code())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BodyError describes a request body that could not be decoded.
type BodyError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *BodyError) Error() string { return e.Message }

func (e *BodyError) Unwrap() error { return e.Err }

// DecodeJSON reads a single JSON value of at most maxBytes from r into dst.
// Failures are returned as *BodyError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &BodyError{Status: http.StatusBadRequest, Code: CodeInvalidJSON, Message: "request body must contain a single JSON object", Err: err}
	}
	return nil
}

func bodyError(err error) *BodyError {
	var (
		maxErr  *http.MaxBytesError
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		return &BodyError{Status: http.StatusRequestEntityTooLarge, Code: CodePayloadTooLarge, Message: "request body is too large", Err: err}
	case errors.As(err, &typeErr):
		return &BodyError{Status: http.StatusUnprocessableEntity, Code: CodeUnprocessable, Message: "field " + typeErr.Field + " has the wrong type", Err: err}
	case errors.Is(err, io.EOF):
		return &BodyError{Status: http.StatusBadRequest, Code: CodeInvalidJSON, Message: "request body must not be empty", Err: err}
	default:
		return &BodyError{Status: http.StatusBadRequest, Code: CodeInvalidJSON, Message: "request body is not valid JSON", Err: err}
	}
}

// StatusFor maps an error to an HTTP status and machine code.
func StatusFor(err error) (int, string) {
	var be *BodyError
	if errors.As(err, &be) {
		return be.Status, be.Code
	}
	kind := aierr.KindOf(err)
	switch kind {
	case aierr.KindEmptyQuestion:
		return http.StatusBadRequest, kind.Code()
	case aierr.KindUpstreamAuth, aierr.KindUpstreamNetwork:
		return http.StatusBadGateway, kind.Code()
	case aierr.KindUpstreamRateLimited:
		return http.StatusTooManyRequests, kind.Code()
	case aierr.KindUpstreamTimeout:
		return http.StatusGatewayTimeout, kind.Code()
	default:
		return http.StatusInternalServerError, kind.Code()
	}
}

// Fail logs err and writes the matching JSON error response.
func Fail(log *slog.Logger, w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	message := "internal server error"
	var (
		be *BodyError
		ae *aierr.Error
	)
	switch {
	case errors.As(err, &be):
		message = be.Message
	case errors.As(err, &ae):
		message = ae.Message
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(context.Background(), level, "request failed", "status", status, "code", code, "err", err)
	WriteError(w, status, message, code)
}
