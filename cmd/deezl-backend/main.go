package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/deezl/deezl-backend/pkg/api"
	"github.com/deezl/deezl-backend/pkg/gateway"
	"github.com/deezl/deezl-backend/pkg/models"
	"github.com/deezl/deezl-backend/pkg/utils"
)

func main() {
	portFlag := flag.Int("port", envInt("PORT", 3001), "Port for API server (env PORT)")
	ytdlpPath := flag.String("ytdlp", envString("YTDLP_PATH", "yt-dlp"), "Path to yt-dlp binary (env YTDLP_PATH)")
	timeoutFlag := flag.Int("timeout", envInt("EXTRACT_TIMEOUT", 60), "Max seconds per yt-dlp run (env EXTRACT_TIMEOUT)")
	cacheTTL := flag.Duration("cache-ttl", envDuration("CACHE_TTL", 30*time.Minute), "Freshness window of cached results (env CACHE_TTL)")
	originsFlag := flag.String("origins", envString("CORS_ORIGINS", strings.Join(api.DefaultOrigins, ",")), "Comma separated CORS origins (env CORS_ORIGINS)")
	autoInstall := flag.Bool("auto-install", false, "Download a standalone yt-dlp if the configured one does not run")
	installDir := flag.String("install-dir", "./bin", "Where an auto-installed yt-dlp is kept")
	proxyFlag := flag.String("proxy", os.Getenv("HTTPS_PROXY"), "Proxy for the yt-dlp download")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	jsonLogs := flag.Bool("log-json", false, "Log as JSON")

	urlFlag := flag.String("url", "", "Resolve a single YouTube URL or ID and exit")
	qualityFlag := flag.String("quality", models.DefaultQuality, "Format selector for -url")

	flag.Parse()

	svc, err := gateway.New(gateway.Config{
		YtDlpPath:   *ytdlpPath,
		TimeoutSec:  *timeoutFlag,
		CacheTTL:    *cacheTTL,
		AutoInstall: *autoInstall,
		InstallDir:  *installDir,
		ProxyURL:    *proxyFlag,
		Debug:       *debugFlag,
		JSONLogs:    *jsonLogs,
	})
	if err != nil {
		fmt.Printf("Initialization failed: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// CLI
	if *urlFlag != "" {
		vidID := utils.ExtractVideoID(*urlFlag)
		if vidID == "" {
			slog.Error("Could not extract video ID", "url", *urlFlag)
			os.Exit(1)
		}
		if !utils.ValidQuality(*qualityFlag) {
			slog.Error("Invalid quality selector", "quality", *qualityFlag)
			os.Exit(1)
		}

		audioURL, _, err := svc.ResolveAudio(ctx, vidID, *qualityFlag)
		if err != nil {
			slog.Error("Failed to resolve audio", "vid", vidID, "err", err)
			os.Exit(1)
		}
		fmt.Println(audioURL)
		return
	}

	// API Server
	srv := &api.Server{
		Port:           *portFlag,
		Resolver:       svc,
		AllowedOrigins: splitList(*originsFlag),
	}
	if err := srv.Start(ctx); err != nil {
		slog.Error("Server crashed", "err", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", key, v, err)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", key, v, err)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
