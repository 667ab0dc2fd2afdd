package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"pdfpro/api"
	"pdfpro/artifact"
	"pdfpro/config"
	"pdfpro/pdf"
	"pdfpro/transform"
)

// Version information (set during build)
var Version = "dev"

const (
	// ServerReadTimeout is the HTTP server read timeout; uploads can be large
	ServerReadTimeout = 5 * time.Minute

	// ServerWriteTimeout covers transform time plus streaming the result
	ServerWriteTimeout = 5 * time.Minute

	// ServerIdleTimeout is the HTTP server idle timeout
	ServerIdleTimeout = 60 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful shutdown
	GracefulShutdownTimeout = 10 * time.Second
)

func main() {
	// A missing .env file is fine; real environment variables still apply
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetLevel(parseLogLevel(os.Getenv("LOG_LEVEL")))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := &cli.App{
		Name:    "pdfpro",
		Usage:   "HTTP service for PDF transformations",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"PDFPRO_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "Port to listen on",
				EnvVars: []string{"PORT"},
			},
			&cli.Int64Flag{
				Name:    "max-file-size",
				Value:   config.DefaultMaxFileSize,
				Usage:   "Maximum size of one uploaded file in bytes",
				EnvVars: []string{"MAX_FILE_SIZE"},
			},
			&cli.IntFlag{
				Name:    "max-files",
				Value:   config.DefaultMaxFiles,
				Usage:   "Maximum number of files per request",
				EnvVars: []string{"MAX_FILES"},
			},
			&cli.StringFlag{
				Name:    "upload-dir",
				Value:   config.DefaultUploadDir,
				Usage:   "Directory for uploaded inputs",
				EnvVars: []string{"UPLOAD_DIR"},
			},
			&cli.StringFlag{
				Name:    "temp-dir",
				Value:   config.DefaultTempDir,
				Usage:   "Directory for generated outputs",
				EnvVars: []string{"TEMP_DIR"},
			},
			&cli.DurationFlag{
				Name:    "retention",
				Value:   artifact.DefaultRetention,
				Usage:   "Age after which leftover files are swept",
				EnvVars: []string{"RETENTION"},
			},
			&cli.DurationFlag{
				Name:    "sweep-interval",
				Value:   artifact.DefaultSweepInterval,
				Usage:   "Interval between sweeps of leftover files",
				EnvVars: []string{"SWEEP_INTERVAL"},
			},
			&cli.StringFlag{
				Name:    "image-fallback",
				Value:   pdf.FallbackTranscode,
				Usage:   "Handling of GIF/WEBP images: transcode or skip",
				EnvVars: []string{"IMAGE_FALLBACK"},
			},
			&cli.StringFlag{
				Name:    "rasterizer",
				Value:   pdf.DefaultRasterizer,
				Usage:   "Rasterizer binary used for PDF to image conversion",
				EnvVars: []string{"RASTERIZER"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   config.DefaultLogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   config.DefaultLogFormat,
				Usage:   "Log format (text or json)",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringSliceFlag{
				Name:    "cors-origins",
				Value:   cli.NewStringSlice("*"),
				Usage:   "Allowed CORS origins",
				EnvVars: []string{"CORS_ORIGINS"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			configureLogger(logger, cfg)
			return serve(c.Context, cfg, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.WithError(err).Fatal("pdfpro exited with error")
	}
}

// loadConfig layers the YAML file over the defaults, then any flag or environment
// variable that was explicitly set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	if c.IsSet("max-file-size") {
		cfg.MaxFileSize = c.Int64("max-file-size")
	}
	if c.IsSet("max-files") {
		cfg.MaxFiles = c.Int("max-files")
	}
	if c.IsSet("upload-dir") {
		cfg.UploadDir = c.String("upload-dir")
	}
	if c.IsSet("temp-dir") {
		cfg.TempDir = c.String("temp-dir")
	}
	if c.IsSet("retention") {
		cfg.Retention = c.Duration("retention")
	}
	if c.IsSet("sweep-interval") {
		cfg.SweepInterval = c.Duration("sweep-interval")
	}
	if c.IsSet("image-fallback") {
		cfg.ImageFallback = c.String("image-fallback")
	}
	if c.IsSet("rasterizer") {
		cfg.Rasterizer = c.String("rasterizer")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if c.IsSet("cors-origins") {
		cfg.CORSOrigins = c.StringSlice("cors-origins")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	logger.SetLevel(parseLogLevel(cfg.LogLevel))
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

// parseLogLevel returns the logrus level for s, defaulting to InfoLevel.
func parseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	artifacts, err := artifact.NewManager(artifact.Options{
		UploadDir: cfg.UploadDir,
		TempDir:   cfg.TempDir,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("artifact directories: %w", err)
	}

	// A missing rasterizer only disables PDF to image conversion
	rasterizer := pdf.NewRasterizer(cfg.Rasterizer)
	if rasterizer.Available() {
		logger.WithField("rasterizer", cfg.Rasterizer).Info("Rasterizer is available")
	} else {
		logger.WithField("rasterizer", cfg.Rasterizer).Warn("Rasterizer not found, PDF to image conversion is disabled")
	}

	dispatcher := transform.NewDispatcher(transform.Options{
		Artifacts:     artifacts,
		Rasterizer:    rasterizer,
		ImageFallback: cfg.ImageFallback,
		Logger:        logger,
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = api.MultipartMemory
	r.Use(gin.Recovery(), api.RequestLogger(logger))

	api.SetupRoutes(r, api.NewHandler(&api.Config{
		MaxFileSize:    cfg.MaxFileSize,
		MaxFiles:       cfg.MaxFiles,
		MaxRequestSize: cfg.MaxRequestSize(),
		CORSOrigins:    cfg.CORSOrigins,
	}, artifacts, dispatcher, logger))

	go artifacts.RunSweeper(ctx, cfg.SweepInterval, cfg.Retention)

	// Create HTTP server with timeout settings
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  ServerReadTimeout,
		WriteTimeout: ServerWriteTimeout,
		IdleTimeout:  ServerIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":          srv.Addr,
			"max_file_size": humanize.IBytes(uint64(cfg.MaxFileSize)),
			"max_files":     cfg.MaxFiles,
			"upload_dir":    cfg.UploadDir,
			"temp_dir":      cfg.TempDir,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}
