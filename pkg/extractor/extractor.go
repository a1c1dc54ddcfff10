package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/deezl/deezl-backend/pkg/models"
	"github.com/deezl/deezl-backend/pkg/utils"
)

const (
	DefaultBinary  = "yt-dlp"
	DefaultTimeout = 60 * time.Second

	// how long Wait keeps reading pipes after the process was killed
	waitDelay = 2 * time.Second
)

// Extractor runs yt-dlp as a subprocess, one process per call.
// Calls are independent and may run concurrently.
type Extractor struct {
	Path    string
	Timeout time.Duration
}

func New(path string, timeout time.Duration) *Extractor {
	if path == "" {
		path = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{Path: path, Timeout: timeout}
}

// AudioArgs is the argument vector for direct URL resolution.
func AudioArgs(videoID, quality string) []string {
	if quality == "" {
		quality = models.DefaultQuality
	}
	return []string{
		"--get-url",
		"--format", quality,
		"--no-playlist",
		"--no-warnings",
		utils.WatchURL(videoID),
	}
}

// MetadataArgs is the argument vector for a single JSON dump.
func MetadataArgs(videoID string) []string {
	return []string{
		"--dump-json",
		"--no-playlist",
		"--no-warnings",
		utils.WatchURL(videoID),
	}
}

// AudioURL resolves the direct streaming URL for the given format selector.
// When yt-dlp prints several URLs the first one wins.
func (e *Extractor) AudioURL(ctx context.Context, videoID, quality string) (string, error) {
	out, err := e.run(ctx, AudioArgs(videoID, quality))
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		if u := strings.TrimSpace(line); u != "" {
			return u, nil
		}
	}
	return "", ErrNoOutput
}

// Metadata dumps and projects the video's metadata document.
func (e *Extractor) Metadata(ctx context.Context, videoID string) (*models.Metadata, error) {
	out, err := e.run(ctx, MetadataArgs(videoID))
	if err != nil {
		return nil, err
	}
	return ParseMetadata([]byte(out))
}

// Version asks the binary for its version; used to check it is runnable.
func (e *Extractor) Version(ctx context.Context) (string, error) {
	return e.run(ctx, []string{"--version"})
}

// run returns trimmed stdout of a successful run, ErrNoOutput when that is
// empty, or one of the typed failures.
func (e *Extractor) run(ctx context.Context, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.Path, args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		slog.Error("yt-dlp spawn error", "path", e.Path, "err", err)
		return "", &SpawnError{Path: e.Path, Err: err}
	}

	err := cmd.Wait()
	slog.Debug("yt-dlp finished", "args", args, "elapsed", time.Since(start), "err", err)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Error("yt-dlp timed out", "timeout", e.Timeout, "stderr", stderr.String())
		return "", &TimeoutError{After: e.Timeout}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			slog.Error("yt-dlp error", "code", exitErr.ExitCode(), "stderr", stderr.String())
			return "", &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("yt-dlp wait: %w", err)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", ErrNoOutput
	}
	return out, nil
}
