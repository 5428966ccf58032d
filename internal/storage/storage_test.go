package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	key := ReportKey("pred_1712345678901_abc123")

	if _, err := PutBytes(ctx, s, key, []byte("%PDF-1.3"), "application/pdf"); err != nil {
		t.Fatalf("PutBytes() error = %v", err)
	}

	exists, err := s.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v; want true, nil", exists, err)
	}

	rc, info, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "%PDF-1.3" {
		t.Errorf("Get() body = %q", got)
	}
	if info.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q, want application/pdf", info.ContentType)
	}

	url, err := s.URL(ctx, key, 0)
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	if url != "http://localhost:8080/files/"+key {
		t.Errorf("URL() = %q", url)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}

func TestLocalStorage_PutWithoutOverwrite(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	key := "predictions/x/memes/a.svg"

	if err := s.Put(ctx, key, strings.NewReader("<svg/>"), PutOptions{}); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	err := s.Put(ctx, key, strings.NewReader("<svg/>"), PutOptions{})
	if !errors.Is(err, ErrKeyExists) {
		t.Errorf("second Put() error = %v, want ErrKeyExists", err)
	}
}

func TestLocalStorage_MaxSize(t *testing.T) {
	s := newLocal(t)
	err := s.Put(context.Background(), "big.bin", bytes.NewReader(make([]byte, 11)), PutOptions{MaxSize: 10})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Put() error = %v, want ErrTooLarge", err)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s := newLocal(t)
	for _, key := range []string{"", "../etc/passwd", "a/../../b"} {
		_, _, err := s.Get(context.Background(), key)
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		prefix string
		suffix string
	}{
		{"report", ReportKey("pred_1"), "predictions/pred_1/reports/", ".pdf"},
		{"meme", MemeKey("pred_1"), "predictions/pred_1/memes/", ".svg"},
		{"upload", UploadKey("pred_1", "image/png"), "predictions/pred_1/uploads/", ".png"},
		{"thumbnail", ThumbnailKey("pred_1"), "predictions/pred_1/thumbnails/", ".jpg"},
		{"sanitized", ReportKey("../evil"), "predictions/__evil/reports/", ".pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.key, tt.prefix) || !strings.HasSuffix(tt.key, tt.suffix) {
				t.Errorf("key = %q, want %q...%q", tt.key, tt.prefix, tt.suffix)
			}
		})
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		provided, key string
		head          []byte
		want          string
	}{
		{"text/plain", "a.pdf", nil, "text/plain"},
		{"", "a.pdf", nil, "application/pdf"},
		{"", "a.svg", nil, "image/svg+xml"},
		{"", "noext", []byte("%PDF-1.4"), "application/pdf"},
		{"", "noext", nil, "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := DetectContentType(tt.provided, tt.key, tt.head); got != tt.want {
			t.Errorf("DetectContentType(%q, %q) = %q, want %q", tt.provided, tt.key, got, tt.want)
		}
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&StorageError{Op: "Put", Key: "../x", Err: ErrInvalidKey}, true},
		{&StorageError{Op: "Put", Key: "a.pdf", Err: ErrTooLarge}, true},
		{&StorageError{Op: "Put", Key: "a.pdf", Err: ErrAccessDenied}, true},
		{&StorageError{Op: "Get", Key: "a.pdf", Err: ErrNotFound}, false},
		{errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		if got := IsPermanent(tt.err); got != tt.want {
			t.Errorf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
