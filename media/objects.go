package media

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownObject is returned for URLs the store did not issue or already
// released.
var ErrUnknownObject = errors.New("unknown object url")

// ObjectStore writes blobs to a directory and hands out file:// URLs for
// them, the terminal counterpart of a browser object URL.
type ObjectStore struct {
	dir     string
	ownsDir bool
	logger  *zap.Logger

	mu      sync.Mutex
	objects map[string]string // url -> path
}

// NewObjectStore creates a store rooted at dir. An empty dir creates a
// private temp dir that Close removes.
func NewObjectStore(dir string, logger *zap.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	owns := false
	if dir == "" {
		tmp, err := os.MkdirTemp("", "logomotion-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create object dir: %w", err)
		}
		dir = tmp
		owns = true
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object dir: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}

	return &ObjectStore{
		dir:     abs,
		ownsDir: owns,
		logger:  logger,
		objects: make(map[string]string),
	}, nil
}

// Dir returns the directory holding the objects.
func (s *ObjectStore) Dir() string { return s.dir }

// Put stores data and returns its URL.
func (s *ObjectStore) Put(data []byte, mimeType string) (string, error) {
	path := filepath.Join(s.dir, uuid.NewString()+ExtensionFor(mimeType))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	u := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()

	s.mu.Lock()
	s.objects[u] = path
	s.mu.Unlock()

	s.logger.Debug("object stored",
		zap.String("url", u),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", len(data)))
	return u, nil
}

// Path resolves a URL issued by Put.
func (s *ObjectStore) Path(u string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.objects[u]
	return p, ok
}

// Release deletes the object behind u; the URL stops resolving.
func (s *ObjectStore) Release(u string) error {
	s.mu.Lock()
	path, ok := s.objects[u]
	delete(s.objects, u)
	s.mu.Unlock()

	if !ok {
		return ErrUnknownObject
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release object: %w", err)
	}
	s.logger.Debug("object released", zap.String("url", u))
	return nil
}

// Export copies the object behind u to dst and returns dst. The object stays
// live.
func (s *ObjectStore) Export(u, dst string) (string, error) {
	src, ok := s.Path(u)
	if !ok {
		return "", ErrUnknownObject
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open object: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy object: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}

	s.logger.Info("object exported", zap.String("url", u), zap.String("path", dst))
	return dst, nil
}

// Len returns the number of live objects.
func (s *ObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Close releases every object and removes the directory if the store made it.
func (s *ObjectStore) Close() error {
	s.mu.Lock()
	urls := make([]string, 0, len(s.objects))
	for u := range s.objects {
		urls = append(urls, u)
	}
	s.mu.Unlock()

	var errs []error
	for _, u := range urls {
		if err := s.Release(u); err != nil {
			errs = append(errs, err)
		}
	}
	if s.ownsDir {
		if err := os.RemoveAll(s.dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
