package storage

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectContentType determines the MIME type of an object.
//
// An explicit type wins, then the key's extension, then sniffing the first
// bytes of data. Unknown content is "application/octet-stream".
func DetectContentType(providedType, key string, head []byte) string {
	if providedType != "" {
		return providedType
	}

	switch ext := strings.ToLower(filepath.Ext(key)); ext {
	case ".svg":
		return "image/svg+xml"
	case "":
	default:
		if contentType := mime.TypeByExtension(ext); contentType != "" {
			return contentType
		}
	}

	if len(head) > 0 {
		return http.DetectContentType(head)
	}
	return "application/octet-stream"
}

// AllowedImageTypes are the formats accepted for face and palm uploads.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// baseType strips parameters and normalizes case.
func baseType(contentType string) string {
	return strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
}

// IsAllowedImageType reports whether contentType is an accepted upload format.
func IsAllowedImageType(contentType string) bool {
	return AllowedImageTypes[baseType(contentType)]
}

// extensionForContentType returns a file extension for a MIME type.
func extensionForContentType(contentType string) string {
	switch baseType(contentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	case "application/pdf":
		return ".pdf"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
