package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/deezl/deezl-backend/pkg/client"
)

const releaseBase = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/"

// Installer makes sure a runnable yt-dlp exists, downloading the standalone
// release build into Dir when the requested binary does not work.
type Installer struct {
	Client client.HTTPClient
	Dir    string
	// ReleaseURL overrides the per-OS download location.
	ReleaseURL string
}

// ReleaseAsset returns the standalone asset name for an OS.
func ReleaseAsset(goos string) (string, error) {
	switch goos {
	case "linux":
		return "yt-dlp_linux", nil
	case "darwin":
		return "yt-dlp_macos", nil
	case "windows":
		return "yt-dlp.exe", nil
	default:
		return "", fmt.Errorf("auto-download not supported for OS: %s", goos)
	}
}

// EnsureBinary returns a path to a working yt-dlp.
func (in *Installer) EnsureBinary(requestedPath string) (string, error) {
	if isWorking(requestedPath) {
		slog.Debug("yt-dlp found and working", "path", requestedPath)
		return requestedPath, nil
	}

	slog.Warn("yt-dlp not found or invalid. Attempting to download standalone release...", "path", requestedPath)

	downloadURL := in.ReleaseURL
	fileName := "yt-dlp"
	if runtime.GOOS == "windows" {
		fileName = "yt-dlp.exe"
	}
	if downloadURL == "" {
		asset, err := ReleaseAsset(runtime.GOOS)
		if err != nil {
			return "", err
		}
		downloadURL = releaseBase + asset
	}

	dir := in.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create install dir: %w", err)
	}
	localPath, err := filepath.Abs(filepath.Join(dir, fileName))
	if err != nil {
		return "", fmt.Errorf("invalid install dir: %w", err)
	}

	if _, err := os.Stat(localPath); err == nil {
		if isWorking(localPath) {
			slog.Info("Found previously installed yt-dlp", "path", localPath)
			return localPath, nil
		}
		if remErr := os.Remove(localPath); remErr != nil {
			slog.Warn("Failed to delete a broken yt-dlp executable", "path", localPath, "err", remErr)
		}
	}

	slog.Info("Downloading yt-dlp...", "url", downloadURL)
	if err := downloadFile(in.Client, downloadURL, localPath); err != nil {
		return "", fmt.Errorf("failed to download yt-dlp: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(localPath, 0755); err != nil {
			return "", fmt.Errorf("failed to chmod yt-dlp: %w", err)
		}
	}

	if isWorking(localPath) {
		slog.Info("yt-dlp installed successfully", "path", localPath)
		return localPath, nil
	}

	return "", fmt.Errorf("downloaded yt-dlp is not working")
}

func isWorking(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := New(path, 30*time.Second).Version(ctx)
	return err == nil
}

func downloadFile(c client.HTTPClient, url string, dest string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func(Body io.ReadCloser) {
		cerr := Body.Close()
		if cerr != nil {
			slog.Warn("Failed to close response body", "error", cerr)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status: %d", resp.StatusCode)
	}

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
