// Main entry point of the signup service. It loads configuration, builds the
// user registry and its handlers, sets up the HTTP router and middleware, and
// starts the server with graceful shutdown.
// @title Signup API
// @version 1.0
// @description In-memory user registry with field validation.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/user/signup-go/apperror"
	"github.com/user/signup-go/config"
	"github.com/user/signup-go/registry"
	"github.com/user/signup-go/validation"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func main() {
	// .env is a development convenience; in production variables are set directly.
	if err := godotenv.Load(); err != nil {
		logger.Warn().Err(err).Msg(".env file not found or error loading it")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	rules := validation.Rules{
		UsernameMinLength:      cfg.Validation.UsernameMinLength,
		UsernameMaxLength:      cfg.Validation.UsernameMaxLength,
		PasswordMinLength:      cfg.Validation.PasswordMinLength,
		AdminPasswordMinLength: cfg.Validation.AdminPasswordMinLength,
	}

	// The registry lives for the lifetime of the process and is handed to the
	// handlers by reference; there is no global instance.
	userRegistry := registry.NewRegistry(rules)
	userHandlers := registry.NewHandlers(userRegistry)

	r := chi.NewRouter()

	// Global middleware. Chi requires all middleware to be registered before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Panic recovery that formats the failure through the apperror system.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error().Interface("panic", rvr).Str("path", r.URL.Path).Msg("panic recovered")
					writeError(ww, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	})

	r.Route("/users", func(r chi.Router) {
		userHandlers.RegisterRoutes(r)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped gracefully")
}

// writeError is a local helper for the panic recovery middleware. It is kept
// separate from the registry package helpers to avoid pulling handler code
// into main.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}
