package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oneclickretail/oneclick-backend/pkg/config"
	"github.com/oneclickretail/oneclick-backend/pkg/logger"
	"go.uber.org/multierr"
)

// Store persists uploaded product images on the local filesystem under
// root/<category>/<filename> and serves them back at publicPrefix.
type Store struct {
	root         string
	publicPrefix string
	maxBytes     int64
	logg         *logger.Logger
}

var errFilenameRequired = errors.New("filename is required")

func NewStore(cfg config.UploadsConfig, logg *logger.Logger) (*Store, error) {
	root := strings.TrimSpace(cfg.Dir)
	if root == "" {
		return nil, errors.New("uploads dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}

	prefix := strings.TrimSpace(cfg.PublicPrefix)
	if prefix == "" {
		prefix = "/uploads"
	}
	prefix = "/" + strings.Trim(prefix, "/")

	maxBytes := int64(cfg.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}

	return &Store{
		root:         root,
		publicPrefix: prefix,
		maxBytes:     maxBytes,
		logg:         logg,
	}, nil
}

// Root returns the filesystem directory files are written under.
func (s *Store) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// MaxBytes returns the per-file upload limit in bytes.
func (s *Store) MaxBytes() int64 {
	if s == nil {
		return 0
	}
	return s.maxBytes
}

// Save writes the reader's contents under category/filename and returns the
// public URL path for the stored file.
func (s *Store) Save(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	if s == nil {
		return "", errors.New("store not initialized")
	}
	name := SanitizeFilename(filename)
	if name == "" {
		return "", errFilenameRequired
	}
	dir := filepath.Join(s.root, sanitizeSegment(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating category dir: %w", err)
	}

	dst := filepath.Join(dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = fmt.Errorf("file %s exceeds %d bytes", name, s.maxBytes)
	}
	if err != nil {
		if rmErr := os.Remove(dst); rmErr != nil && s.logg != nil {
			s.logg.Warn(ctx, "failed to remove partial upload")
		}
		return "", err
	}

	return s.PublicPath(category, name), nil
}

// Delete removes the stored files for the given public paths. Missing files
// are not an error; other failures are aggregated.
func (s *Store) Delete(ctx context.Context, publicPaths ...string) error {
	if s == nil {
		return errors.New("store not initialized")
	}
	var errs error
	for _, p := range publicPaths {
		rel, ok := s.relativePath(p)
		if !ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, rel)); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, fmt.Errorf("removing %s: %w", rel, err))
		}
	}
	return errs
}

// PublicPath builds the URL path a stored file is served at.
func (s *Store) PublicPath(category, filename string) string {
	if s == nil {
		return ""
	}
	segment := sanitizeSegment(category)
	if segment == "" {
		return path.Join(s.publicPrefix, SanitizeFilename(filename))
	}
	return path.Join(s.publicPrefix, segment, SanitizeFilename(filename))
}

func (s *Store) relativePath(publicPath string) (string, bool) {
	p := strings.TrimSpace(publicPath)
	if p == "" {
		return "", false
	}
	if !strings.HasPrefix(p, s.publicPrefix+"/") {
		return "", false
	}
	rel := strings.TrimPrefix(p, s.publicPrefix+"/")
	rel = path.Clean(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return filepath.FromSlash(rel), true
}

// SanitizeFilename strips any path components and unsafe characters from an
// uploaded filename.
func SanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	return cleaned
}

func sanitizeSegment(segment string) string {
	return SanitizeFilename(strings.ToLower(segment))
}
