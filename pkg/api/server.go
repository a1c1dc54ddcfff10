package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/deezl/deezl-backend/pkg/extractor"
	"github.com/deezl/deezl-backend/pkg/models"
	"github.com/deezl/deezl-backend/pkg/utils"
)

const (
	msgAudioNotFound    = "Audio URL not found"
	msgMetadataNotFound = "Metadata not found"
	msgStreamNotFound   = "Audio stream not found"
	msgEndpointNotFound = "Endpoint not found"
	msgInternal         = "Internal server error"
	msgInvalidVideoID   = "Invalid video ID"
	msgInvalidQuality   = "Invalid quality selector"
)

// DefaultOrigins are the local development frontends allowed by CORS.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Resolver is what the HTTP layer needs from the resolution service.
type Resolver interface {
	ResolveAudio(ctx context.Context, videoID, quality string) (string, bool, error)
	ResolveMetadata(ctx context.Context, videoID string) (*models.Metadata, bool, error)
	ResolveStream(ctx context.Context, videoID string) (string, error)
}

type Server struct {
	Port           int
	Resolver       Resolver
	AllowedOrigins []string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/audio/{videoId}", s.handleAudio)
	mux.HandleFunc("GET /api/metadata/{videoId}", s.handleMetadata)
	mux.HandleFunc("GET /api/stream/{videoId}", s.handleStream)
	mux.HandleFunc("/", s.handleNotFound)

	origins := s.AllowedOrigins
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	var h http.Handler = mux
	h = recoverer(h)
	h = securityHeaders(h)
	h = cors(origins)(h)
	h = compress(h)
	h = accessLog(h)
	h = requestID(h)
	return h
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.Port))
		slog.Info("Endpoints", "health", "/health", "audio", "/api/audio/:videoId", "metadata", "/api/metadata/:videoId", "stream", "/api/stream/:videoId")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	s.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "OK",
		Timestamp: now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	vidID := r.PathValue("videoId")
	quality := r.URL.Query().Get("quality")
	if quality == "" {
		quality = models.DefaultQuality
	}
	if !utils.ValidVideoID(vidID) {
		s.respondJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msgInvalidVideoID, VideoID: vidID})
		return
	}
	if !utils.ValidQuality(quality) {
		s.respondJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msgInvalidQuality, VideoID: vidID})
		return
	}

	audioURL, cached, err := s.Resolver.ResolveAudio(r.Context(), vidID, quality)
	if err != nil {
		status, msg := failureStatus(err, msgAudioNotFound)
		logFailure(r, "Audio extraction error", vidID, status, err)
		s.respondJSON(w, status, models.ErrorResponse{Error: msg, VideoID: vidID})
		return
	}

	s.respondJSON(w, http.StatusOK, models.AudioResponse{
		Success:  true,
		AudioURL: audioURL,
		Cached:   cached,
		VideoID:  vidID,
	})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	vidID := r.PathValue("videoId")
	if !utils.ValidVideoID(vidID) {
		s.respondJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msgInvalidVideoID, VideoID: vidID})
		return
	}

	meta, cached, err := s.Resolver.ResolveMetadata(r.Context(), vidID)
	if err != nil {
		status, msg := failureStatus(err, msgMetadataNotFound)
		logFailure(r, "Metadata extraction error", vidID, status, err)
		s.respondJSON(w, status, models.ErrorResponse{Error: msg, VideoID: vidID})
		return
	}

	s.respondJSON(w, http.StatusOK, models.MetadataResponse{
		Success:  true,
		Metadata: meta,
		Cached:   cached,
		VideoID:  vidID,
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	vidID := r.PathValue("videoId")
	if !utils.ValidVideoID(vidID) {
		s.respondJSON(w, http.StatusBadRequest, models.StreamError{Error: msgInvalidVideoID})
		return
	}

	audioURL, err := s.Resolver.ResolveStream(r.Context(), vidID)
	if err != nil {
		status, msg := failureStatus(err, msgStreamNotFound)
		logFailure(r, "Stream error", vidID, status, err)
		s.respondJSON(w, status, models.StreamError{Error: msg})
		return
	}

	http.Redirect(w, r, audioURL, http.StatusFound)
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusNotFound, models.ErrorResponse{Error: msgEndpointNotFound})
}

// failureStatus maps an extraction failure to its HTTP status and client message.
func failureStatus(err error, notFoundMsg string) (int, string) {
	var (
		exitErr    *extractor.ExitError
		spawnErr   *extractor.SpawnError
		parseErr   *extractor.ParseError
		timeoutErr *extractor.TimeoutError
	)
	switch {
	case errors.Is(err, extractor.ErrNoOutput):
		return http.StatusNotFound, notFoundMsg
	case errors.As(err, &exitErr):
		return http.StatusInternalServerError, exitErr.Summary()
	case errors.As(err, &parseErr):
		return http.StatusInternalServerError, parseErr.Error()
	case errors.As(err, &timeoutErr):
		return http.StatusInternalServerError, timeoutErr.Error()
	case errors.As(err, &spawnErr):
		return http.StatusInternalServerError, "yt-dlp could not be started"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func logFailure(r *http.Request, msg, vidID string, status int, err error) {
	l := loggerFrom(r.Context())
	if status == http.StatusNotFound {
		l.Info(msg, "vid", vidID, "status", status)
		return
	}
	l.Error(msg, "vid", vidID, "status", status, "err", err)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	jerr := enc.Encode(data)
	if jerr != nil {
		slog.Error("JSON encoding failed", "error", jerr)
	}
}
