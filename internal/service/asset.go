package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vhu/portal/internal/metrics"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/storage"
)

// AssetService accepts uploads into the staging folder.
type AssetService struct {
	assets  repository.AssetRepository
	store   storage.Store
	baseURL string
	now     func() time.Time
}

func NewAssetService(assets repository.AssetRepository, store storage.Store, baseURL string) *AssetService {
	return &AssetService{
		assets:  assets,
		store:   store,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Stage writes body into the staging folder and records an unowned asset.
// The registry row is only created after the file is safely stored.
// Note: Type and size validation should be done by the caller
func (s *AssetService) Stage(ctx context.Context, body io.Reader, originalName, mimeType string) (*model.Asset, error) {
	counter := &countingReader{r: body}

	key, err := s.store.Put(ctx, storage.StagingFolder, originalName, counter)
	if err != nil {
		metrics.RecordStaged(0, false)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	asset := &model.Asset{
		StorageKey:   key,
		PublicURL:    storage.PublicURL(s.baseURL, key),
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         counter.n,
		CreatedAt:    s.now().UTC(),
	}

	err = s.assets.Create(asset)
	if err != nil {
		// If DB insert fails, remove the staged file
		s.store.Delete(ctx, key)
		metrics.RecordStaged(0, false)
		return nil, fmt.Errorf("failed to create asset record: %w", err)
	}

	metrics.RecordStaged(asset.Size, true)
	slog.Debug("asset staged", "asset_id", asset.ID, "storage_key", key, "size", asset.Size)
	return asset, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
