package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/vhu/portal/internal/metrics"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/storage"
)

// assetRefPattern matches URLs of staged files and of files in any
// owner's content folder, either absolute with an http(s) origin or
// root-relative. Group 1 is the storage key.
var assetRefPattern = regexp.MustCompile(`(?:https?://[^\s"'()<>/]+)?` + regexp.QuoteMeta(storage.UploadsPath) +
	`((?:` + storage.StagingFolder + `|[a-z_]+/\d+/images)/[^\s"'()<>?#]+)`)

// Rewriter promotes the staged files referenced from rich text and points
// the references at their permanent location.
type Rewriter struct {
	assets   repository.AssetRepository
	promoter *Promoter
	baseURL  string
}

func NewRewriter(assets repository.AssetRepository, promoter *Promoter, baseURL string) *Rewriter {
	return &Rewriter{
		assets:   assets,
		promoter: promoter,
		baseURL:  baseURL,
	}
}

// Rewrite returns text with every staging reference replaced by the
// promoted asset's URL. Everything else, permanent references included,
// is copied unchanged. Unowned assets referenced from the owner's own
// content folder are adopted again.
func (rw *Rewriter) Rewrite(ctx context.Context, text string, ownerID int64, contentOwnerType string) (string, error) {
	role, ok := model.Role(contentOwnerType)
	if !ok || !role.Content {
		return "", fmt.Errorf("%w: %q is not a content owner type", ErrValidation, contentOwnerType)
	}

	matches := assetRefPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	folder := storage.OwnerFolder(role.Kind, ownerID, true)
	replaced := make(map[string]string)
	adopted := make(map[string]bool)

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		key := unescapeKey(text[m[2]:m[3]])
		if dir := path.Dir(key); dir != storage.StagingFolder {
			if dir == folder && !adopted[key] {
				if err := rw.adopt(ctx, key, ownerID, role.Type); err != nil {
					return "", err
				}
				adopted[key] = true
			}
			continue
		}

		newURL, ok := replaced[key]
		if !ok {
			var err error
			newURL, err = rw.promoteRef(ctx, key, folder, ownerID, role.Type)
			if err != nil {
				return "", err
			}
			replaced[key] = newURL
		}

		b.WriteString(text[last:m[0]])
		b.WriteString(newURL)
		last = m[1]
	}
	b.WriteString(text[last:])

	return b.String(), nil
}

// promoteRef promotes one staged reference. A reference without a usable
// registry record is pointed at the location it would have been moved to.
func (rw *Rewriter) promoteRef(ctx context.Context, key, folder string, ownerID int64, ownerType string) (string, error) {
	target := folder + "/" + path.Base(key)
	fallback := storage.PublicURL(rw.baseURL, target)

	asset, err := rw.assets.ByStorageKey(key)
	if errors.Is(err, repository.ErrAssetNotFound) {
		// Moved by an earlier attempt or a concurrent save
		asset, err = rw.assets.ByStorageKey(target)
	}
	if errors.Is(err, repository.ErrAssetNotFound) {
		metrics.RecordRewriteFallback()
		return fallback, nil
	}
	if err != nil {
		return "", err
	}

	promoted, err := rw.promoter.Promote(ctx, asset.ID, ownerID, ownerType)
	if errors.Is(err, repository.ErrAssetNotFound) || errors.Is(err, ErrSourceMissing) {
		metrics.RecordRewriteFallback()
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return promoted.PublicURL, nil
}

// adopt reasserts ownership of an asset already in the owner's content
// folder, such as an image removed and then added back.
func (rw *Rewriter) adopt(ctx context.Context, key string, ownerID int64, ownerType string) error {
	asset, err := rw.assets.ByStorageKey(key)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if asset.OwnedBy(ownerID, ownerType) {
		return nil
	}

	_, err = rw.promoter.Promote(ctx, asset.ID, ownerID, ownerType)
	if errors.Is(err, repository.ErrAssetNotFound) || errors.Is(err, ErrSourceMissing) {
		return nil
	}
	return err
}

// ExtractKeys returns the storage keys of every asset reference in texts.
func ExtractKeys(texts ...string) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, text := range texts {
		for _, m := range assetRefPattern.FindAllStringSubmatch(text, -1) {
			keys[unescapeKey(m[1])] = struct{}{}
		}
	}
	return keys
}

func unescapeKey(raw string) string {
	key, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return key
}
