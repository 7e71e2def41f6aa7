package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// newStdioTransport is replaced in tests so stdin stays open.
var newStdioTransport = func() mcp.Transport { return &mcp.StdioTransport{} }

// serve runs server on the configured transport until ctx is done. The
// readiness line is printed whatever the log level.
func serve(ctx context.Context, server *mcp.Server, cfg Config, logger *log.Logger) error {
	switch cfg.Transport {
	case "http":
		return serveHTTP(ctx, server, cfg, logger)
	default:
		logger.Print("WeatherXM PRO MCP server running on stdio")
		return server.Run(ctx, newStdioTransport())
	}
}

func serveHTTP(ctx context.Context, server *mcp.Server, cfg Config, logger *log.Logger) error {
	if cfg.Token == "" && cfg.JWTSecret == "" {
		logger.Warn("WEATHERXM_MCP_TOKEN and WEATHERXM_MCP_JWT_SECRET not set; /mcp is open")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(server, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Print("WeatherXM PRO MCP server running on http", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// newRouter exposes /health and the streamable MCP endpoint on /mcp.
func newRouter(server *mcp.Server, cfg Config, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(cfg.Token, cfg.JWTSecret))
		r.Handle("/mcp", mcpHandler)
		r.Handle("/mcp/*", mcpHandler)
	})

	return r
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
				"elapsed", time.Since(start),
			)
		})
	}
}

// bearerAuth accepts the static token or, when secret is set, an HS256 JWT.
// With neither configured every request passes.
func bearerAuth(token, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" && secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if ok && (validStaticToken(bearer, token) || validJWT(bearer, secret)) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		})
	}
}

func validStaticToken(bearer, token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) == 1
}

func validJWT(bearer, secret string) bool {
	if secret == "" {
		return false
	}
	parsed, err := jwt.Parse(bearer, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && parsed.Valid
}
