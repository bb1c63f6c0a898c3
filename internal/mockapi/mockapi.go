// Package mockapi serves a local stand-in for the Evo2 generation endpoint.
// It lets evoprobe be exercised end to end without an NVCF key.
package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// GeneratePath mirrors the path of the hosted endpoint.
const GeneratePath = "/v1/biology/arc/evo2-40b/generate"

// Generator produces n symbols continuing prompt.
type Generator func(prompt string, n int) string

// Options configures the mock server.
type Options struct {
	// Token, when set, is the only accepted bearer token.
	Token string
	// Generator overrides RepeatTail.
	Generator Generator
	// MaxTokens truncates every continuation, simulating a service that
	// returns fewer symbols than requested. Zero means no cap.
	MaxTokens int
	Logger    *zap.Logger
}

type generateRequest struct {
	Sequence  string `json:"sequence"`
	NumTokens int    `json:"num_tokens"`
	TopK      int    `json:"top_k"`
}

type generateResponse struct {
	Sequence  string `json:"sequence"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RepeatTail continues prompt by cycling its last 8 symbols. An empty prompt
// is continued with "N".
func RepeatTail(prompt string, n int) string {
	unit := prompt
	if len(unit) > 8 {
		unit = unit[len(unit)-8:]
	}
	if unit == "" {
		unit = "N"
	}
	var b strings.Builder
	b.Grow(n)
	for b.Len() < n {
		b.WriteString(unit)
	}
	return b.String()[:n]
}

// NewRouter returns the mock API handler.
func NewRouter(opts Options) chi.Router {
	if opts.Generator == nil {
		opts.Generator = RepeatTail
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(opts.Logger))

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(opts.Token))
		r.Post(GeneratePath, handleGenerate(opts))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

// Serve runs the mock API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, opts Options) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(opts),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func handleGenerate(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.NumTokens < 0 {
			writeError(w, http.StatusUnprocessableEntity, "num_tokens must not be negative")
			return
		}

		n := req.NumTokens
		if opts.MaxTokens > 0 && n > opts.MaxTokens {
			n = opts.MaxTokens
		}
		writeJSON(w, http.StatusOK, generateResponse{
			Sequence:  opts.Generator(req.Sequence, n),
			ElapsedMS: time.Since(start).Milliseconds(),
		})
	}
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if ww.Status() >= 400 {
				logger.Warn("client error", fields...)
			} else {
				logger.Info("request", fields...)
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
