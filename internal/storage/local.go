package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage serves sample files from a directory. It is meant for
// development: links are plain URLs under BaseURL and never expire.
type LocalStorage struct {
	basePath string
	baseURL  string
	logger   *slog.Logger
}

// NewLocalStorage creates a LocalStorage, creating the base directory if
// needed.
func NewLocalStorage(cfg LocalConfig, logger *slog.Logger) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	logger.Info("initialized local storage",
		"base_path", absPath,
		"base_url", baseURL,
	)

	return &LocalStorage{
		basePath: absPath,
		baseURL:  baseURL,
		logger:   logger,
	}, nil
}

// URL returns BaseURL/key. expires is ignored.
func (s *LocalStorage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.resolvePath(key); err != nil {
		return "", &StorageError{Op: "URL", Key: key, Err: err}
	}

	u := s.baseURL + "/" + (&url.URL{Path: key}).EscapedPath()
	return u, nil
}

// Exists checks for a regular file at key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	filePath, err := s.resolvePath(key)
	if err != nil {
		return false, &StorageError{Op: "Exists", Key: key, Err: err}
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &StorageError{Op: "Exists", Key: key, Err: fmt.Errorf("failed to stat file: %w", err)}
	}
	return info.Mode().IsRegular(), nil
}

// Handler serves the stored files as downloads. Mount it under the path of
// BaseURL with http.StripPrefix.
func (s *LocalStorage) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.basePath))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")
		if _, err := s.resolvePath(key); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", ContentTypeFor(key))
		w.Header().Set("Content-Disposition", contentDisposition(key))
		files.ServeHTTP(w, r)
	})
}

// resolvePath maps key to a path inside basePath.
func (s *LocalStorage) resolvePath(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	absPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if absPath != s.basePath && !strings.HasPrefix(absPath, s.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return absPath, nil
}

var _ Storage = (*LocalStorage)(nil)
