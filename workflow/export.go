package workflow

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"logomotion/media"
)

// ErrNoStore is returned when exporting without an object store.
var ErrNoStore = errors.New("no object store configured")

// exportName builds a timestamped file name for an artifact.
func exportName(kind string, now time.Time, ext string) string {
	return fmt.Sprintf("logomotion-%s-%s%s", kind, now.Format("20060102-150405"), ext)
}

// SaveVideo copies the current video into dir and returns the new path. The
// object URL stays valid.
func (c *Controller) SaveVideo(dir string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.video == nil {
		return "", &ValidationError{Message: "There is no video to save yet."}
	}
	if c.store == nil {
		return "", ErrNoStore
	}

	ext := filepath.Ext(c.video.Path)
	if ext == "" {
		ext = ".mp4"
	}
	dst := filepath.Join(dir, exportName("video", time.Now(), ext))
	path, err := c.store.Export(c.video.URL, dst)
	if err != nil {
		return "", fmt.Errorf("failed to save video: %w", err)
	}
	c.logger.Info("video saved", zap.String("path", path))
	return path, nil
}

// SaveLogo decodes the current logo into dir and returns the new path.
func (c *Controller) SaveLogo(dir string) (string, error) {
	c.mu.Lock()
	logo := c.logo
	c.mu.Unlock()

	if logo == nil {
		return "", &ValidationError{Message: "There is no logo to save yet."}
	}

	data, err := base64.StdEncoding.DecodeString(logo.Base64)
	if err != nil {
		return "", fmt.Errorf("failed to decode logo: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dst := filepath.Join(dir, exportName("logo", time.Now(), media.ExtensionFor(logo.MIMEType)))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save logo: %w", err)
	}
	c.logger.Info("logo saved", zap.String("path", dst))
	return dst, nil
}
