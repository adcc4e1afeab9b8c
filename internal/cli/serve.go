package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ocrbot/backend/internal/api"
	"github.com/ocrbot/backend/internal/config"
	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/session"
	"github.com/ocrbot/backend/internal/storage"
	"github.com/ocrbot/backend/internal/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload widget and its API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(os.Stdout)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, path, cmd.OutOrStdout())
		},
	}
}

// newEcho builds the HTTP stack: middleware, API routes and the embedded widget
func newEcho(cfg *config.AppConfig, sessions *session.Manager, store storage.Store) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, strings.EqualFold(cfg.Advanced.LogLevel, "debug"))

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasSuffix(path, "/ws")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/ws") || strings.HasSuffix(path, "/file")
		},
		ErrorMessage: "Request timeout",
	}))

	// Compression middleware
	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/ws")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	handlers := api.NewHandlers(&api.Dependencies{
		Store:    store,
		Sessions: sessions,
		Version:  version,
	})
	api.RegisterRoutes(e, handlers)

	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			return nil, fmt.Errorf("registering widget routes: %w", err)
		}
	}

	return e, nil
}

// runServer serves until ctx is cancelled, then drains requests and closes every session
func runServer(ctx context.Context, cfg *config.AppConfig, configPath string, out io.Writer) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return fmt.Errorf("invalid MaxUploadSize: %w", err)
	}

	store, err := storage.NewLocalStore(cfg.GetUploadDir(), maxUpload)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	sessions := session.NewManager(store, controllerOptions(cfg), cfg.Processing.MaxSessions)
	defer sessions.CloseAll()

	go sessions.RunCleanup(ctx,
		time.Duration(cfg.Processing.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.Processing.SessionTimeoutMinutes)*time.Minute)

	e, err := newEcho(cfg, sessions, store)
	if err != nil {
		return err
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(out, cfg, configPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "sessions", sessions.Count())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func printBanner(out io.Writer, cfg *config.AppConfig, configPath string) {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(out, "║           Telegram Bot OCR                                ║\n")
	fmt.Fprintf(out, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(out, "║  Version:    %-45s║\n", version)
	fmt.Fprintf(out, "║  Build Time: %-45s║\n", buildTime)
	fmt.Fprintf(out, "║  Mode:       %-45s║\n", cfg.Mode())
	fmt.Fprintf(out, "╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(out, "║  Config:    %-46s║\n", configPath)
	fmt.Fprintf(out, "║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Fprintf(out, "║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Fprintf(out, "╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
}
