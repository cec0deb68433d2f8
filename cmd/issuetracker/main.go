// Package main is the entry point for the issue tracker HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-issue-tracker/docs" // swagger spec
	"github.com/tbourn/go-issue-tracker/internal/config"
	httpapi "github.com/tbourn/go-issue-tracker/internal/http"
	"github.com/tbourn/go-issue-tracker/internal/observability"
	"github.com/tbourn/go-issue-tracker/internal/repo"
	"github.com/tbourn/go-issue-tracker/internal/sysutil"
)

// version is set at build time using -ldflags.
var version = "dev"

// shutdownTimeout bounds graceful shutdown after SIGINT/SIGTERM.
const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := newRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. Running it without a subcommand serves HTTP.
func newRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "issuetracker",
		Short:         "Minimal issue tracker HTTP API",
		Version:       sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return runMigrate()
			},
		},
	)
	return root
}

// openStore opens the configured database and migrates the schema.
func openStore(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := observability.InstrumentDB(db); err != nil {
		closeStore(db)
		return nil, fmt.Errorf("instrument db: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeStore(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func closeStore(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(db)

	log.Info().Bool("postgres", cfg.DB.IsPostgres()).Msg("schema up to date")
	return nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version))
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
		shutdownOTel = func(context.Context) error { return nil }
	}

	db, err := openStore(cfg)
	if err != nil {
		_ = shutdownOTel(context.Background())
		return err
	}

	srv := newHTTPServer(cfg, newEngine(cfg, db))
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		closeStore(db)
		_ = shutdownOTel(context.Background())
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	return serve(ctx, srv, ln, func() {
		closeStore(db)
		if err := shutdownOTel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	})
}

// newEngine builds the Gin engine with compression and all API routes.
func newEngine(cfg config.Config, db *gorm.DB) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	httpapi.RegisterRoutes(r, db, cfg)
	return r
}

func newHTTPServer(cfg config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// serve runs srv on ln until ctx is done, then drains in-flight requests
// within shutdownTimeout and calls cleanup.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, cleanup func()) error {
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
