package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolve maps a slash-separated path relative to root onto an absolute
// filesystem path. The result always lies strictly inside root.
func Resolve(root, candidate string) (string, error) {
	if candidate == "" || strings.ContainsAny(candidate, "\x00\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, candidate)
	}
	if strings.HasPrefix(candidate, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, candidate)
	}
	for _, segment := range strings.Split(candidate, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q leaves the storage root", ErrInvalidPath, candidate)
		}
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: root %q: %v", ErrInvalidPath, root, err)
	}

	full := filepath.Join(rootAbs, filepath.FromSlash(candidate))
	prefix := rootAbs
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if full == rootAbs || !strings.HasPrefix(full, prefix) {
		return "", fmt.Errorf("%w: %q leaves the storage root", ErrInvalidPath, candidate)
	}
	return full, nil
}

// Key validates candidate like Resolve and returns it in normalized,
// slash-separated form, suitable as a storage key or object name.
func Key(candidate string) (string, error) {
	full, err := Resolve(string(filepath.Separator), candidate)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(filepath.ToSlash(full), "/"), nil
}
