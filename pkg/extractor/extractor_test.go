package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeYtDlp writes a POSIX shell stand-in for yt-dlp that records its
// arguments next to itself and then runs body.
func fakeYtDlp(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake extractor is a shell script")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "yt-dlp")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > \"$(dirname \"$0\")/args\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func recordedArgs(t *testing.T, binPath string) []string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(filepath.Dir(binPath), "args"))
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func TestAudioURLFirstLine(t *testing.T) {
	bin := fakeYtDlp(t, `echo "https://rr1.example/audio?sig=1"; echo "https://rr1.example/video?sig=2"`)
	ex := New(bin, 5*time.Second)

	u, err := ex.AudioURL(context.Background(), "dQw4w9WgXcQ", "bestaudio")
	require.NoError(t, err)
	assert.Equal(t, "https://rr1.example/audio?sig=1", u)

	assert.Equal(t, []string{
		"--get-url",
		"--format", "bestaudio",
		"--no-playlist",
		"--no-warnings",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, recordedArgs(t, bin))
}

func TestAudioURLDefaultsQuality(t *testing.T) {
	bin := fakeYtDlp(t, `echo "https://rr1.example/a"`)

	_, err := New(bin, 5*time.Second).AudioURL(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	assert.Equal(t, "bestaudio", recordedArgs(t, bin)[2])
}

func TestAudioURLEmptyOutput(t *testing.T) {
	bin := fakeYtDlp(t, `printf '  \n\n'`)

	_, err := New(bin, 5*time.Second).AudioURL(context.Background(), "dQw4w9WgXcQ", "bestaudio")
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestAudioURLNonZeroExit(t *testing.T) {
	bin := fakeYtDlp(t, `echo "https://ignored.example"; echo "ERROR: [youtube] dQw4w9WgXcQ: Video unavailable" >&2; exit 1`)

	_, err := New(bin, 5*time.Second).AudioURL(context.Background(), "dQw4w9WgXcQ", "bestaudio")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Stderr, "Video unavailable")
	assert.Equal(t, "yt-dlp failed with code 1: ERROR: [youtube] dQw4w9WgXcQ: Video unavailable", exitErr.Summary())
}

func TestSpawnError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-yt-dlp")

	_, err := New(missing, 5*time.Second).AudioURL(context.Background(), "dQw4w9WgXcQ", "bestaudio")

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, missing, spawnErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTimeout(t *testing.T) {
	bin := fakeYtDlp(t, `exec sleep 10`)

	start := time.Now()
	_, err := New(bin, 200*time.Millisecond).AudioURL(context.Background(), "dQw4w9WgXcQ", "bestaudio")

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 200*time.Millisecond, timeoutErr.After)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestMetadataSuccess(t *testing.T) {
	bin := fakeYtDlp(t, `cat <<'EOF'
{"id":"dQw4w9WgXcQ","title":"Never Gonna Give You Up","uploader":"Rick Astley","duration":212,"view_count":1500000000,"formats":[{"format_id":"140","ext":"m4a","quality":3,"filesize":3433514,"acodec":"mp4a.40.2"}]}
EOF`)

	meta, err := New(bin, 5*time.Second).Metadata(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	assert.Equal(t, "Never Gonna Give You Up", *meta.Title)
	assert.Equal(t, "212", meta.Duration.String())
	require.Len(t, meta.Formats, 1)
	assert.Equal(t, "140", *meta.Formats[0].FormatID)

	assert.Equal(t, []string{
		"--dump-json",
		"--no-playlist",
		"--no-warnings",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, recordedArgs(t, bin))
}

func TestMetadataParseError(t *testing.T) {
	bin := fakeYtDlp(t, `echo "this is not json"`)

	_, err := New(bin, 5*time.Second).Metadata(context.Background(), "dQw4w9WgXcQ")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestMetadataNonZeroExit(t *testing.T) {
	bin := fakeYtDlp(t, `echo "ERROR: Private video" >&2; exit 2`)

	_, err := New(bin, 5*time.Second).Metadata(context.Background(), "dQw4w9WgXcQ")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestMetadataEmptyOutput(t *testing.T) {
	bin := fakeYtDlp(t, `true`)

	_, err := New(bin, 5*time.Second).Metadata(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestNewDefaults(t *testing.T) {
	ex := New("", 0)
	assert.Equal(t, DefaultBinary, ex.Path)
	assert.Equal(t, DefaultTimeout, ex.Timeout)
}

func TestExitErrorSummaryWithoutStderr(t *testing.T) {
	err := &ExitError{Code: 101}
	assert.Equal(t, "yt-dlp failed with code 101", err.Summary())
}

func TestExitErrorSummaryTruncates(t *testing.T) {
	err := &ExitError{Code: 1, Stderr: "first\n" + strings.Repeat("x", 300) + "\n"}
	summary := err.Summary()
	assert.True(t, strings.HasSuffix(summary, "..."))
	assert.NotContains(t, summary, "first")
}
