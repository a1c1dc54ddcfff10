package extractor

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/deezl/deezl-backend/pkg/models"
)

// dumpJSON mirrors the part of yt-dlp's --dump-json document we keep.
// Everything else in the document is dropped by decoding.
type dumpJSON struct {
	Title       *string     `json:"title"`
	Uploader    *string     `json:"uploader"`
	Duration    json.Number `json:"duration"`
	Thumbnail   *string     `json:"thumbnail"`
	Description *string     `json:"description"`
	UploadDate  *string     `json:"upload_date"`
	ViewCount   json.Number `json:"view_count"`
	LikeCount   json.Number `json:"like_count"`
	Formats     []struct {
		FormatID *string         `json:"format_id"`
		Ext      *string         `json:"ext"`
		Quality  json.RawMessage `json:"quality"`
		Filesize json.Number     `json:"filesize"`
	} `json:"formats"`
}

// ParseMetadata decodes one yt-dlp JSON record and projects it onto
// models.Metadata. Anything other than a single JSON object is a ParseError.
func ParseMetadata(raw []byte) (*models.Metadata, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrNoOutput
	}
	if raw[0] != '{' {
		return nil, &ParseError{Err: errors.New("output is not a JSON object")}
	}

	var data dumpJSON
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&data); err != nil {
		return nil, &ParseError{Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Err: errors.New("more than one JSON record in output")}
	}

	meta := &models.Metadata{
		Title:       data.Title,
		Uploader:    data.Uploader,
		Duration:    data.Duration,
		Thumbnail:   data.Thumbnail,
		Description: data.Description,
		UploadDate:  data.UploadDate,
		ViewCount:   data.ViewCount,
		LikeCount:   data.LikeCount,
	}
	if len(data.Formats) > 0 {
		meta.Formats = make([]models.Format, 0, len(data.Formats))
		for _, f := range data.Formats {
			meta.Formats = append(meta.Formats, models.Format{
				FormatID: f.FormatID,
				Ext:      f.Ext,
				Quality:  f.Quality,
				Filesize: f.Filesize,
			})
		}
	}
	return meta, nil
}
