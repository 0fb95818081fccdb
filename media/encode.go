// Package media reads local images into API payloads and keeps downloaded
// blobs addressable by local URLs.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the maximum size of an uploaded logo (20MB)
const MaxFileSize = 20 * 1024 * 1024

// DefaultImageMIMEType is used when the format is implicit
const DefaultImageMIMEType = "image/png"

// SupportedImageTypes lists the logo file extensions accepted for upload
var SupportedImageTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// Payload is a base64 body ready to send inline.
type Payload struct {
	Base64   string
	MIMEType string
	Size     int64
}

// ReadError reports a local file that could not be turned into a payload.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// EncodeFileAsPayload reads path and returns its base64 body without any
// data-URL prefix.
func EncodeFileAsPayload(ctx context.Context, path string) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, &ReadError{Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return Payload{}, &ReadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return Payload{}, &ReadError{Path: path, Err: fmt.Errorf("path is a directory, not a file")}
	}
	if info.Size() > MaxFileSize {
		return Payload{}, &ReadError{Path: path, Err: fmt.Errorf("file size %d exceeds maximum %d bytes (20MB)", info.Size(), MaxFileSize)}
	}

	mimeType := DetectMIMEType(path)
	if mimeType == "" {
		return Payload{}, &ReadError{Path: path, Err: fmt.Errorf("unsupported image format: %s", filepath.Ext(path))}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, &ReadError{Path: path, Err: err}
	}
	if len(data) == 0 {
		return Payload{}, &ReadError{Path: path, Err: fmt.Errorf("file is empty")}
	}

	return Payload{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
		Size:     int64(len(data)),
	}, nil
}

// StripDataURLPrefix returns the base64 body of a data URL. Plain base64 is
// returned unchanged.
func StripDataURLPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return s
}

// DetectMIMEType returns the MIME type for a supported image path, or ""
func DetectMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

// IsImageFile checks if a file has a supported image extension
func IsImageFile(path string) bool {
	return DetectMIMEType(path) != ""
}

// ExtensionFor maps a MIME type to a file extension.
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}

// FormatSize formats a byte size as a human-readable string
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
