package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	cfg "github.com/vhu/portal/internal/config"
)

var (
	// ErrInvalidPath rejects keys that are malformed or escape the storage root.
	ErrInvalidPath = errors.New("invalid storage path")
	// ErrIO marks a failed physical read, write or move.
	ErrIO = errors.New("storage i/o failure")
	// ErrEmptyFile rejects zero-byte uploads.
	ErrEmptyFile = fmt.Errorf("%w: empty file", ErrIO)
)

// Store defines physical file operations on keys relative to the storage
// root. It knows nothing about ownership.
type Store interface {
	// Put writes body under folder with a collision-resistant name derived
	// from filename and returns the new key.
	Put(ctx context.Context, folder, filename string, body io.Reader) (string, error)

	// Move relocates key into destFolder keeping its file name and returns
	// the new key. It returns "" and no error when key does not exist, so
	// that a retried move is treated as already done. An existing file at
	// the destination is overwritten.
	Move(ctx context.Context, key, destFolder string) (string, error)

	// Delete removes key. Missing files and failures are logged, never returned.
	Delete(ctx context.Context, key string)

	// Exists reports whether a file is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Serve writes the file at key to an HTTP response.
	Serve(w http.ResponseWriter, r *http.Request, key string)

	// Type returns the backend identifier ("local", "s3").
	Type() string
}

// New creates the store selected by STORAGE_DRIVER.
func New(c *cfg.Config) (Store, error) {
	switch c.StorageDriver {
	case "", "local":
		return NewLocalStore(c.UploadDir)
	case "s3":
		return NewS3Store(context.Background(), S3Config{
			Region:        c.S3Region,
			Bucket:        c.S3Bucket,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Endpoint:      c.S3Endpoint,
			PresignExpiry: c.S3PresignExpiry,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
