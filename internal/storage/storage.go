// Package storage hands out download links for sample audio files and stems
// archives.
//
// Two providers implement Storage:
//   - LocalStorage: files in a directory, served by this process (development)
//   - R2Storage: objects in a Cloudflare R2 bucket, linked by presigned URL
//
// Object keys are stored on each sample row; this package never invents keys.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
)

// Storage defines the read-side operations the download path needs.
type Storage interface {
	// URL returns a link to download the object at key. R2 links are
	// presigned and stop working after expires; local links do not expire.
	// The link asks the browser to save the file under its base name.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// DefaultURLExpiry is used when a caller passes a zero expiry.
const DefaultURLExpiry = 15 * time.Minute

// Provider names accepted by STORAGE_PROVIDER.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory holding sample files.
	// Example: "./storage" or "/var/lib/samplebase/files"
	BasePath string

	// BaseURL is the public URL prefix the files are served under.
	// Example: "http://localhost:8080/files"
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Region is required by the AWS SDK. R2 ignores it; defaults to "auto".
	Region string

	// Endpoint overrides the account endpoint, for S3-compatible test servers.
	Endpoint string
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// New builds the configured provider.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(cfg.R2, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// validateKey rejects empty keys, absolute keys and keys that climb out of
// the storage root.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// downloadName is the file name offered to the browser for key.
func downloadName(key string) string {
	return path.Base(key)
}
