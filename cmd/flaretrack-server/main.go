package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flaretrack/flaretrack/internal/config"
	"github.com/flaretrack/flaretrack/internal/domain/analysis"
	"github.com/flaretrack/flaretrack/internal/domain/terminology"
	"github.com/flaretrack/flaretrack/internal/platform/auth"
	"github.com/flaretrack/flaretrack/internal/platform/db"
	"github.com/flaretrack/flaretrack/internal/platform/metrics"
	"github.com/flaretrack/flaretrack/internal/platform/middleware"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "flaretrack-server",
		Short:         "Medication reaction and flare risk signal server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(analyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the signal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns,
		db.WithApplicationName("flaretrack-server"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// MedDRA dictionary
	meddraRepo := terminology.NewBuiltinRepo()
	if cfg.MedDRASource == config.MedDRASourceDatabase {
		meddraRepo = terminology.NewMedDRARepoPG(pool)
	}
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dict, err := terminology.LoadDictionary(loadCtx, meddraRepo)
	cancel()
	if err != nil {
		logger.Error().Err(err).Str("source", cfg.MedDRASource).Msg("failed to load MedDRA dictionary")
		return err
	}
	logger.Info().Str("source", cfg.MedDRASource).Int("terms", dict.Len()).Msg("MedDRA dictionary loaded")

	// Metrics
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	// Unauthenticated endpoints
	e.GET("/health", db.HealthHandler(pool, version))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	apiV1 := e.Group("/api/v1")

	// Auth middleware
	if cfg.IsDev() {
		key, generated, err := resolveDevSigningKey(cfg.DevSigningKey)
		if err != nil {
			return err
		}
		if generated {
			logger.Warn().Msg("DEV_SIGNING_KEY not set; bearer tokens are checked against a random key")
		}
		logger.Warn().Msg("development mode: requests without a token run as the dev admin user")
		apiV1.Use(auth.DevAuthMiddleware(key))
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Domain handlers
	terminology.NewHandler(terminology.NewService(meddraRepo)).RegisterRoutes(apiV1)

	analysisSvc := analysis.NewService(analysis.NewPGStore(pool),
		analysis.WithCoder(dict),
		analysis.WithMetrics(m),
		analysis.WithLogger(logger.With().Str("component", "analysis").Logger()),
	)
	analysis.NewHandler(analysisSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// resolveDevSigningKey decodes DEV_SIGNING_KEY (hex) or generates a random
// 32-byte key. The second return value is true when a random key was
// generated.
func resolveDevSigningKey(envValue string) ([]byte, bool, error) {
	if envValue != "" {
		decoded, err := hex.DecodeString(envValue)
		if err != nil {
			return nil, false, fmt.Errorf("invalid DEV_SIGNING_KEY hex value: %w", err)
		}
		return decoded, false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate random dev signing key: %w", err)
	}
	return key, true, nil
}
