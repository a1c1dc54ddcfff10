package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/deezl/deezl-backend/pkg/models"
)

// Extractor is the subprocess side of resolution.
type Extractor interface {
	AudioURL(ctx context.Context, videoID, quality string) (string, error)
	Metadata(ctx context.Context, videoID string) (*models.Metadata, error)
}

// Store holds successful results between requests.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Clear()
}

// Service answers resolution requests from the cache when it can and
// runs the extractor otherwise. Failures are never stored.
type Service struct {
	Extractor Extractor
	Cache     Store
	group     singleflight.Group
}

func NewService(ex Extractor, store Store) *Service {
	return &Service{Extractor: ex, Cache: store}
}

// ResolveAudio returns the direct audio URL and whether it came from the cache.
func (s *Service) ResolveAudio(ctx context.Context, videoID, quality string) (string, bool, error) {
	if quality == "" {
		quality = models.DefaultQuality
	}
	req := models.ExtractionRequest{VideoID: videoID, Operation: models.OpAudio, Quality: quality}
	key := req.CacheKey()

	if v, ok := s.Cache.Get(key); ok {
		if u, ok := v.(string); ok {
			slog.Debug("Cache hit", "key", key)
			return u, true, nil
		}
	}

	slog.Info("Extracting audio URL", "vid", videoID, "quality", quality)
	v, err := s.do(ctx, req, func(ctx context.Context) (any, error) {
		u, err := s.Extractor.AudioURL(ctx, videoID, quality)
		if err != nil {
			return nil, err
		}
		s.Cache.Set(key, u)
		return u, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}

// ResolveMetadata returns the projected metadata and whether it came from the cache.
func (s *Service) ResolveMetadata(ctx context.Context, videoID string) (*models.Metadata, bool, error) {
	req := models.ExtractionRequest{VideoID: videoID, Operation: models.OpMetadata}
	key := req.CacheKey()

	if v, ok := s.Cache.Get(key); ok {
		if m, ok := v.(*models.Metadata); ok {
			slog.Debug("Cache hit", "key", key)
			return m, true, nil
		}
	}

	slog.Info("Extracting metadata", "vid", videoID)
	v, err := s.do(ctx, req, func(ctx context.Context) (any, error) {
		m, err := s.Extractor.Metadata(ctx, videoID)
		if err != nil {
			return nil, err
		}
		s.Cache.Set(key, m)
		return m, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*models.Metadata), false, nil
}

// ResolveStream always runs the extractor for the best audio format.
// It neither reads nor fills the cache.
func (s *Service) ResolveStream(ctx context.Context, videoID string) (string, error) {
	req := models.ExtractionRequest{VideoID: videoID, Operation: models.OpStream, Quality: models.DefaultQuality}

	slog.Info("Resolving stream", "vid", videoID)
	v, err := s.do(ctx, req, func(ctx context.Context) (any, error) {
		return s.Extractor.AudioURL(ctx, videoID, models.DefaultQuality)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// do coalesces identical in-flight requests into one extractor run. The run is
// detached from the caller's cancellation so a disconnecting client does not
// kill work other callers wait on; the extractor's own timeout still applies.
func (s *Service) do(ctx context.Context, req models.ExtractionRequest, fn func(context.Context) (any, error)) (any, error) {
	key := req.FlightKey()
	runCtx := context.WithoutCancel(ctx)

	ch := s.group.DoChan(key, func() (any, error) {
		return fn(runCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("Request coalesced with in-flight extraction", "key", key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s: %w", key, ctx.Err())
	}
}
