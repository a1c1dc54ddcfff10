package extractor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoOutput means the extractor exited cleanly but printed nothing usable.
var ErrNoOutput = errors.New("extractor produced no output")

// ExitError is a run that finished with a non-zero exit code.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("yt-dlp failed with code %d: %s", e.Code, strings.TrimSpace(e.Stderr))
}

// Summary is the client-facing form: the exit code and the last stderr line.
func (e *ExitError) Summary() string {
	line := lastLine(e.Stderr)
	if line == "" {
		return fmt.Sprintf("yt-dlp failed with code %d", e.Code)
	}
	return fmt.Sprintf("yt-dlp failed with code %d: %s", e.Code, truncate(line, 200))
}

// SpawnError means the process never started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ParseError means the tool ran but its output was not a metadata document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to parse metadata: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TimeoutError is a run killed after exceeding the configured deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("yt-dlp timed out after %s", e.After)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
