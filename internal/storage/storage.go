// Package storage stores generated artifacts and user uploads.
//
// Two backends implement Storage:
// - LocalStorage keeps files on disk and serves them under LOCAL_STORAGE_URL
// - R2Storage writes to Cloudflare R2 (or any S3-compatible endpoint)
//
// Keys are slash-separated paths grouped by prediction:
// predictions/{predictionID}/{reports|memes|uploads|thumbnails}/{uuid}.{ext}
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for file storage operations.
type Storage interface {
	// Put stores data at key. Without opts.Overwrite an existing key fails
	// with ErrKeyExists.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for the object. A zero expires asks for a permanent
	// public URL when the backend has one; otherwise the URL is presigned.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string // Detected from the key when empty
	MaxSize     int64  // Zero means no limit
	Overwrite   bool
	Public      bool // Sets a public-read ACL on R2
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "./storage".
	BasePath string

	// BaseURL is the public URL prefix for files, e.g. "http://localhost:8080/files".
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's public domain. When empty every URL is presigned.
	PublicURL string

	// Endpoint overrides the R2 endpoint derived from AccountID, for other
	// S3-compatible services.
	Endpoint string

	// Region defaults to "auto".
	Region string
}

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderR2 identifies the Cloudflare R2 storage provider.
	ProviderR2 = "r2"
)

// =============================================================================
// Helpers
// =============================================================================

// PutBytes stores data with overwrite enabled and returns its size.
func PutBytes(ctx context.Context, s Storage, key string, data []byte, contentType string) (int64, error) {
	err := s.Put(ctx, key, bytes.NewReader(data), PutOptions{
		ContentType: contentType,
		Overwrite:   true,
	})
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// =============================================================================
// Key Generation
// =============================================================================

// Artifact kinds used as key segments.
const (
	KindReport    = "reports"
	KindMeme      = "memes"
	KindUpload    = "uploads"
	KindThumbnail = "thumbnails"
)

// Key builds predictions/{predictionID}/{kind}/{uuid}{ext}. ext may be given
// with or without its leading dot.
func Key(predictionID, kind, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("predictions/%s/%s/%s%s", sanitizeSegment(predictionID), kind, uuid.New(), ext)
}

// ReportKey returns a key for a generated PDF report.
func ReportKey(predictionID string) string {
	return Key(predictionID, KindReport, "pdf")
}

// MemeKey returns a key for a generated SVG meme.
func MemeKey(predictionID string) string {
	return Key(predictionID, KindMeme, "svg")
}

// UploadKey returns a key for an uploaded face or palm image.
func UploadKey(predictionID, contentType string) string {
	return Key(predictionID, KindUpload, extensionForContentType(contentType))
}

// ThumbnailKey returns a key for the JPEG thumbnail of an upload.
func ThumbnailKey(predictionID string) string {
	return Key(predictionID, KindThumbnail, "jpg")
}

// sanitizeSegment keeps identifiers from introducing extra path segments.
func sanitizeSegment(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
