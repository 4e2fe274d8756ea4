package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuongbtq/list-import/internal/domain"
)

// LocalSource serves objects from a directory tree: <base_dir>/<container>/<key>
type LocalSource struct {
	baseDir string
	logger  *slog.Logger
}

// NewLocalSource creates a source rooted at baseDir
func NewLocalSource(baseDir string, logger *slog.Logger) *LocalSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalSource{baseDir: baseDir, logger: logger}
}

// Open opens the object file, enforcing maxBytes against its size on disk
func (s *LocalSource) Open(ctx context.Context, container, key string, maxBytes int64) (*Object, error) {
	path, err := s.resolve(container, key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, path)
		}
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file %s: %w", path, err)
	}

	if maxBytes > 0 && info.Size() > maxBytes {
		file.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", domain.ErrObjectTooLarge, path, info.Size(), maxBytes)
	}

	return &Object{
		Body: newLimitedBody(file, maxBytes),
		Size: info.Size(),
	}, nil
}

// Delete removes the object file
func (s *LocalSource) Delete(ctx context.Context, container, key string) error {
	path, err := s.resolve(container, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove file %s: %w", path, err)
	}
	s.logger.Debug("Deleted source object", slog.String("path", path))
	return nil
}

// resolve joins the reference onto the base dir, refusing paths that escape it
func (s *LocalSource) resolve(container, key string) (string, error) {
	path := filepath.Join(s.baseDir, container, key)
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrObjectNotFound, container, key)
	}
	return path, nil
}
