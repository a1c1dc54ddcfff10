package models

import (
	"encoding/json"
	"fmt"
)

// DefaultQuality is the format selector used when a request names none.
const DefaultQuality = "bestaudio"

type Operation string

const (
	OpAudio    Operation = "audio"
	OpMetadata Operation = "metadata"
	OpStream   Operation = "stream"
)

// ExtractionRequest describes one resolution asked for by an HTTP call.
type ExtractionRequest struct {
	VideoID   string
	Operation Operation
	Quality   string
}

// CacheKey derives the result cache key. Stream requests have no key of their own.
func (r ExtractionRequest) CacheKey() string {
	switch r.Operation {
	case OpAudio:
		return fmt.Sprintf("audio_%s_%s", r.VideoID, r.quality())
	case OpMetadata:
		return "metadata_" + r.VideoID
	default:
		return ""
	}
}

// FlightKey identifies in-flight work so identical concurrent requests share one extractor run.
func (r ExtractionRequest) FlightKey() string {
	if key := r.CacheKey(); key != "" {
		return key
	}
	return fmt.Sprintf("%s_%s_%s", r.Operation, r.VideoID, r.quality())
}

func (r ExtractionRequest) quality() string {
	if r.Quality == "" {
		return DefaultQuality
	}
	return r.Quality
}

// Metadata is the reduced projection of the extractor's JSON dump.
// Fields the extractor did not report stay empty and are omitted on output;
// numbers are kept in the extractor's own notation.
type Metadata struct {
	Title       *string     `json:"title,omitempty"`
	Uploader    *string     `json:"uploader,omitempty"`
	Duration    json.Number `json:"duration,omitempty"`
	Thumbnail   *string     `json:"thumbnail,omitempty"`
	Description *string     `json:"description,omitempty"`
	UploadDate  *string     `json:"upload_date,omitempty"`
	ViewCount   json.Number `json:"view_count,omitempty"`
	LikeCount   json.Number `json:"like_count,omitempty"`
	Formats     []Format    `json:"formats,omitempty"`
}

// Format is one entry of the extractor's format list. Quality is a number for
// most sites but not all, so it passes through as raw JSON.
type Format struct {
	FormatID *string         `json:"format_id,omitempty"`
	Ext      *string         `json:"ext,omitempty"`
	Quality  json.RawMessage `json:"quality,omitempty"`
	Filesize json.Number     `json:"filesize,omitempty"`
}

type AudioResponse struct {
	Success  bool   `json:"success"`
	AudioURL string `json:"audioUrl"`
	Cached   bool   `json:"cached"`
	VideoID  string `json:"videoId"`
}

type MetadataResponse struct {
	Success  bool      `json:"success"`
	Metadata *Metadata `json:"metadata"`
	Cached   bool      `json:"cached"`
	VideoID  string    `json:"videoId"`
}

// ErrorResponse is the failure body. VideoID is omitted for routes without one.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	VideoID string `json:"videoId,omitempty"`
}

// StreamError is the bare failure body of the stream route.
type StreamError struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
