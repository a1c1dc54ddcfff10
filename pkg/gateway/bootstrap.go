package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deezl/deezl-backend/pkg/cache"
	"github.com/deezl/deezl-backend/pkg/client"
	"github.com/deezl/deezl-backend/pkg/extractor"
	"github.com/deezl/deezl-backend/pkg/logger"
)

// Config represents the configuration for gateway initialization.
type Config struct {
	// YtDlpPath is the path to the yt-dlp executable (defaults to "yt-dlp").
	YtDlpPath string
	// TimeoutSec bounds one extractor run in seconds (defaults to 60).
	TimeoutSec int
	// CacheTTL is the freshness window of resolved results (defaults to 30m).
	CacheTTL time.Duration
	// AutoInstall downloads a standalone yt-dlp into InstallDir when YtDlpPath does not run.
	AutoInstall bool
	// InstallDir is where an auto-installed yt-dlp is kept (defaults to ./bin).
	InstallDir string
	// ProxyURL is used for the auto-install download only.
	ProxyURL string
	// Debug enables verbose logging.
	Debug bool
	// JSONLogs switches the log handler to JSON.
	JSONLogs bool
}

// New creates a ready-to-use Service instance with all necessary dependencies.
func New(cfg Config) (*Service, error) {
	logger.SetupGlobal(cfg.Debug, false, cfg.JSONLogs)

	if cfg.YtDlpPath == "" {
		cfg.YtDlpPath = extractor.DefaultBinary
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = int(extractor.DefaultTimeout / time.Second)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.InstallDir == "" {
		cfg.InstallDir = "./bin"
	}

	if cfg.AutoInstall {
		httpClient, err := client.NewHttpClient(client.Options{ProxyURL: cfg.ProxyURL})
		if err != nil {
			return nil, fmt.Errorf("failed to init http client: %w", err)
		}
		in := &extractor.Installer{Client: httpClient, Dir: cfg.InstallDir}
		realPath, err := in.EnsureBinary(cfg.YtDlpPath)
		if err != nil {
			return nil, fmt.Errorf("yt-dlp check failed: %w", err)
		}
		cfg.YtDlpPath = realPath
	}

	ex := extractor.New(cfg.YtDlpPath, time.Duration(cfg.TimeoutSec)*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if version, err := ex.Version(ctx); err != nil {
		slog.Warn("yt-dlp is not runnable, extraction requests will fail", "path", ex.Path, "err", err)
	} else {
		slog.Info("Extractor ready", "path", ex.Path, "version", version, "timeout", ex.Timeout, "cache_ttl", cfg.CacheTTL)
	}

	return NewService(ex, cache.New(cfg.CacheTTL)), nil
}
