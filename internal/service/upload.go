// Package service contains the business logic layer.
//
// This file stores face and palm images submitted with predictions, along
// with a JPEG thumbnail of each.
package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/jyotai/internal/storage"
	"github.com/disintegration/imaging"
)

const (
	// MaxUploadBytes caps decoded image uploads.
	MaxUploadBytes = 10 * 1024 * 1024

	// ThumbnailMaxSize bounds thumbnail width and height in pixels.
	ThumbnailMaxSize = 320

	// ThumbnailJPEGQuality is the encoding quality of thumbnails.
	ThumbnailJPEGQuality = 85
)

var errNotImage = errors.New("data is not a supported image")

// =============================================================================
// Thumbnails
// =============================================================================

// ThumbnailProcessor handles thumbnail generation from images.
type ThumbnailProcessor interface {
	// GenerateThumbnail returns a JPEG that fits within maxWidth x maxHeight,
	// plus the original width and height.
	GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error)
}

type imagingProcessor struct{}

// NewImagingProcessor creates a new thumbnail processor using the imaging library.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{}
}

func (p *imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()

	thumbnail := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(ThumbnailJPEGQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// =============================================================================
// Uploads
// =============================================================================

// UploadResult holds the keys written for one image.
type UploadResult struct {
	ImageKey     string `json:"image_key"`
	ThumbnailKey string `json:"thumbnail_key,omitempty"`
	ContentType  string `json:"content_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// UploadService persists prediction images to object storage.
type UploadService struct {
	storage    storage.Storage
	thumbnails ThumbnailProcessor
	logger     *slog.Logger
}

// NewUploadService creates an UploadService.
func NewUploadService(store storage.Storage, thumbnails ThumbnailProcessor, logger *slog.Logger) *UploadService {
	return &UploadService{storage: store, thumbnails: thumbnails, logger: logger}
}

// StoreImage decodes a base64 image (optionally a data URI) and stores it
// with a thumbnail. A thumbnail failure keeps the original upload.
func (s *UploadService) StoreImage(ctx context.Context, predictionID, data string) (*UploadResult, error) {
	raw, contentType, err := decodeImageData(data)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		ImageKey:    storage.UploadKey(predictionID, contentType),
		ContentType: contentType,
	}
	if _, err := storage.PutBytes(ctx, s.storage, result.ImageKey, raw, contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	thumb, w, h, err := s.thumbnails.GenerateThumbnail(bytes.NewReader(raw), ThumbnailMaxSize, ThumbnailMaxSize)
	if err != nil {
		s.logger.Warn("Thumbnail generation failed", "prediction_id", predictionID, "error", err)
		return result, nil
	}

	thumbKey := storage.ThumbnailKey(predictionID)
	if _, err := storage.PutBytes(ctx, s.storage, thumbKey, thumb, "image/jpeg"); err != nil {
		s.logger.Warn("Thumbnail upload failed", "prediction_id", predictionID, "error", err)
		return result, nil
	}

	result.ThumbnailKey = thumbKey
	result.Width, result.Height = w, h
	return result, nil
}

// decodeImageData accepts raw base64 or a data URI and returns the bytes and
// sniffed content type. Anything that is not an accepted image is rejected.
func decodeImageData(data string) ([]byte, string, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		comma := strings.IndexByte(data, ',')
		if comma < 0 || !strings.Contains(data[:comma], ";base64") {
			return nil, "", errNotImage
		}
		data = data[comma+1:]
	}

	if base64.StdEncoding.DecodedLen(len(data)) > MaxUploadBytes {
		return nil, "", fmt.Errorf("%w: exceeds %d bytes", storage.ErrTooLarge, MaxUploadBytes)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(data)
		if err != nil {
			return nil, "", errNotImage
		}
	}

	contentType := http.DetectContentType(raw)
	if !storage.IsAllowedImageType(contentType) {
		return nil, "", errNotImage
	}
	return raw, contentType, nil
}
