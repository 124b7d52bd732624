package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-hotel-search/api"
	"github.com/gcbaptista/go-hotel-search/config"
	"github.com/gcbaptista/go-hotel-search/internal/analytics"
	"github.com/gcbaptista/go-hotel-search/internal/session"
	"github.com/gcbaptista/go-hotel-search/internal/source"
	"github.com/gcbaptista/go-hotel-search/internal/upstream"
	"github.com/gcbaptista/go-hotel-search/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Define command-line flags
	var (
		help        = flag.Bool("help", false, "Show help message")
		version     = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to a YAML settings file")
		port        = flag.Int("port", 0, "Port to run the server on (overrides settings and PORT)")
		upstreamURL = flag.String("upstream", "", "Base URL of the hotel backend (overrides settings)")
		dataset     = flag.String("dataset", "", "CSV file serving local hotels instead of the backend")
		logLevel    = flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
	)

	flag.Parse()

	// Handle help flag
	if *help {
		fmt.Printf("Go Hotel Search - hotel search sessions with relevance ranking\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                                  # Start server on default port 8080\n", os.Args[0])
		fmt.Printf("  %s --port 9000                      # Start server on port 9000\n", os.Args[0])
		fmt.Printf("  %s --config hotel_search.yaml       # Load settings from a file\n", os.Args[0])
		fmt.Printf("  %s --dataset data/oyo_hotels.csv    # Serve local hotels from a CSV file\n", os.Args[0])
		return
	}

	// Handle version flag
	if *version {
		fmt.Printf("Go Hotel Search v1.0.0\n")
		fmt.Printf("Live and local hotel sources with relevance, text and sort ranking\n")
		return
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	settings, err := loadSettings(*configPath)
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		settings.Server.Port = *port
	}
	if *upstreamURL != "" {
		settings.Upstream.BaseURL = *upstreamURL
	}
	if *dataset != "" {
		settings.Upstream.DatasetPath = *dataset
	}
	if problems := settings.Validate(); len(problems) > 0 {
		logger.Error("invalid settings", "problems", strings.Join(problems, "; "))
		os.Exit(1)
	}

	analyticsService := analytics.NewService(nil)
	manager, err := newSessionManager(settings, logger, analyticsService)
	if err != nil {
		logger.Error("failed to create session manager", "error", err)
		os.Exit(1)
	}
	analyticsService.SetSessionCounter(manager)
	manager.Start()
	defer manager.Stop()

	// Initialize Gin router
	router := gin.Default()

	// Setup API routes
	api.SetupRoutes(router, manager, analyticsService, settings.Server)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(settings.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	// Start the server
	logger.Info("starting server", "port", settings.Server.Port, "upstream", settings.Upstream.BaseURL, "dataset", settings.Upstream.DatasetPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		manager.Stop()
		os.Exit(1)
	}
}

// loadSettings reads the settings file when given, then applies the environment.
func loadSettings(path string) (config.Settings, error) {
	settings := config.DefaultSettings()
	if path != "" {
		var err error
		if settings, err = config.LoadSettings(path); err != nil {
			return settings, err
		}
	}
	settings.ApplyEnv()
	return settings, nil
}

// newSessionManager wires the upstream collaborators into a session manager.
func newSessionManager(settings config.Settings, logger *slog.Logger, observer services.SearchObserver) (*session.Manager, error) {
	up := settings.Upstream
	client := upstream.NewClient(up.BaseURL,
		upstream.WithHTTPClient(&http.Client{Timeout: up.Timeout + time.Second}),
		upstream.WithPaths(up.LivePath, up.RefreshPath, up.LocalPath),
		upstream.WithRateLimit(up.RateLimit, up.RateBurst),
		upstream.WithRetry(up.MaxAttempts, up.RetryDelay),
		upstream.WithLogger(logger),
	)

	var local services.LocalSource = client
	if up.DatasetPath != "" {
		dataset := upstream.NewDataset(up.DatasetPath, logger)
		if _, err := dataset.Size(); err != nil {
			return nil, err
		}
		local = dataset
	}

	return session.NewManager(client, local,
		session.WithLogger(logger),
		session.WithDefaultView(settings.Ranking.View()),
		session.WithIdleTTL(settings.Sessions.IdleTTL, settings.Sessions.CleanupInterval),
		session.WithControllerOptions(
			source.WithLogger(logger),
			source.WithTimeout(up.Timeout),
			source.WithObserver(observer),
		),
	)
}

func newLogger(levelStr string) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
