package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

// FileConstraints lists the content types an upload kind may have and,
// per type, the file extensions that may carry it.
type FileConstraints struct {
	Types   map[string][]string
	MaxSize int64
}

var (
	// ImageConstraints covers thumbnails, slides, logos, icons and images
	// embedded in article content.
	ImageConstraints = FileConstraints{
		Types: map[string][]string{
			"image/jpeg": {".jpg", ".jpeg"},
			"image/png":  {".png"},
			"image/gif":  {".gif"},
			"image/webp": {".webp"},
		},
		MaxSize: 5 << 20, // 5MB
	}

	// DocumentConstraints covers attachments linked from article content.
	DocumentConstraints = FileConstraints{
		Types: map[string][]string{
			"application/pdf": {".pdf"},
		},
		MaxSize: 10 << 20, // 10MB
	}
)

// ValidateFile checks an upload against one or more constraint sets and
// returns the MIME type sniffed from its content. The first set that
// accepts the sniffed type decides; extension and size must match it.
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) (string, error) {
	if len(constraints) == 0 {
		return "", errors.New("no file constraints provided")
	}
	if header.Size == 0 {
		return "", errors.New("file is empty")
	}

	detected, err := sniff(header)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))

	for _, c := range constraints {
		exts, ok := c.Types[detected]
		if !ok {
			continue
		}
		if !slices.Contains(exts, ext) {
			return "", fmt.Errorf("invalid file extension %q for %s", ext, detected)
		}
		if header.Size > c.MaxSize {
			return "", fmt.Errorf("file too large: maximum size is %d MB", c.MaxSize>>20)
		}
		return detected, nil
	}

	return "", fmt.Errorf("invalid file type (detected: %s)", detected)
}

// sniff reads the leading bytes of the upload. The declared Content-Type
// of the part is ignored since the client controls it.
func sniff(header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
