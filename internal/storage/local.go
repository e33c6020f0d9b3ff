package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// LocalStore implements Store on a directory of the local filesystem.
type LocalStore struct {
	root string
	fs   billy.Filesystem
}

// NewLocalStore creates the root and staging directories if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", root, err)
	}

	s := &LocalStore{
		root: root,
		fs:   osfs.New(root),
	}
	if err := s.fs.MkdirAll(StagingFolder, 0755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	slog.Info("initialized local storage", "root", root)
	return s, nil
}

// key validates a caller-supplied key against the root before any
// filesystem call.
func (s *LocalStore) key(candidate string) (string, error) {
	if _, err := Resolve(s.root, candidate); err != nil {
		return "", err
	}
	return Key(candidate)
}

// Put writes to a temp file in folder and renames it into place.
func (s *LocalStore) Put(_ context.Context, folder, filename string, body io.Reader) (string, error) {
	dir, err := s.key(folder)
	if err != nil {
		return "", err
	}
	key := path.Join(dir, UniqueName(filename))

	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrIO, dir, err)
	}

	tmp, err := s.fs.TempFile(dir, ".upload-")
	if err != nil {
		return "", fmt.Errorf("%w: create temp in %s: %v", ErrIO, dir, err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, body)
	if err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("%w: write %s: %v", ErrIO, key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("%w: close temp for %s: %v", ErrIO, key, err)
	}
	if n == 0 {
		_ = s.fs.Remove(tmpName)
		return "", ErrEmptyFile
	}

	if err := s.fs.Rename(tmpName, key); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("%w: rename temp to %s: %v", ErrIO, key, err)
	}

	return key, nil
}

func (s *LocalStore) Move(_ context.Context, key, destFolder string) (string, error) {
	src, err := s.key(key)
	if err != nil {
		return "", err
	}
	dir, err := s.key(destFolder)
	if err != nil {
		return "", err
	}

	if _, err := s.fs.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: stat %s: %v", ErrIO, src, err)
	}

	dst := path.Join(dir, path.Base(src))
	if dst == src {
		return dst, nil
	}

	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrIO, dir, err)
	}
	if err := s.fs.Rename(src, dst); err != nil {
		// Lost a race with another mover.
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: move %s to %s: %v", ErrIO, src, dst, err)
	}

	slog.Debug("moved file", "from", src, "to", dst)
	return dst, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}
	k, err := s.key(key)
	if err != nil {
		slog.Warn("refusing to delete file", "storage_key", key, "error", err)
		return
	}
	err = s.fs.Remove(k)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to delete file", "storage_key", k, "error", err)
	}
}

func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	k, err := s.key(key)
	if err != nil {
		return false, err
	}
	info, err := s.fs.Stat(k)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", ErrIO, k, err)
	}
	return !info.IsDir(), nil
}

func (s *LocalStore) Serve(w http.ResponseWriter, r *http.Request, key string) {
	k, err := s.key(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	info, err := s.fs.Stat(k)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	f, err := s.fs.Open(k)
	if err != nil {
		slog.Error("failed to open file", "storage_key", k, "error", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *LocalStore) Type() string {
	return "local"
}
