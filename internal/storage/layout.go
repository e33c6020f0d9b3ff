package storage

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/vhu/portal/internal/slug"
)

// StagingFolder holds uploads that are not attached to any record yet.
const StagingFolder = "temp"

// UploadsPath is the URL path under which stored files are served.
const UploadsPath = "/uploads/"

const maxNameLength = 80

var (
	unsafeNameRunes = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	validExtension  = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)
)

// OwnerFolder is the permanent folder of an owning record:
// <kind>/<ownerID> for direct references, <kind>/<ownerID>/images for
// assets referenced from rich text.
func OwnerFolder(kind string, ownerID int64, content bool) string {
	folder := kind + "/" + strconv.FormatInt(ownerID, 10)
	if content {
		folder += "/images"
	}
	return folder
}

// PublicURL derives the externally resolvable URL of a storage key.
func PublicURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + UploadsPath + key
}

// UniqueName prefixes the sanitized original name with a random identifier.
func UniqueName(original string) string {
	return uuid.NewString() + "_" + SanitizeFilename(original)
}

// SanitizeFilename strips directories and diacritics and collapses
// everything outside [A-Za-z0-9_-] into single dashes.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = slug.Fold(name)

	ext := strings.ToLower(path.Ext(name))
	base := strings.TrimSuffix(name, path.Ext(name))
	if !validExtension.MatchString(ext) {
		ext = ""
		base = name
	}

	base = strings.Trim(unsafeNameRunes.ReplaceAllString(base, "-"), "-")
	if len(base) > maxNameLength {
		base = strings.TrimRight(base[:maxNameLength], "-")
	}
	if base == "" {
		base = "file"
	}
	return base + ext
}
