package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"

	"github.com/vhu/portal/internal/logger"
	"github.com/vhu/portal/internal/metrics"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/storage"
	"golang.org/x/sync/singleflight"
)

// Promoter moves assets into the permanent folder of their owner and
// records the ownership.
type Promoter struct {
	assets  repository.AssetRepository
	store   storage.Store
	baseURL string
	group   singleflight.Group
	log     *slog.Logger
}

func NewPromoter(assets repository.AssetRepository, store storage.Store, baseURL string) *Promoter {
	return &Promoter{
		assets:  assets,
		store:   store,
		baseURL: baseURL,
		log:     logger.Component("promoter"),
	}
}

// Promote attaches the asset to (ownerID, ownerType). Promoting an asset
// that already sits in the owner's folder only reasserts ownership.
// Identical concurrent calls share one execution.
func (p *Promoter) Promote(ctx context.Context, assetID, ownerID int64, ownerType string) (*model.Asset, error) {
	role, ok := model.Role(ownerType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown owner type %q", ErrValidation, ownerType)
	}

	key := fmt.Sprintf("%d:%d:%s", assetID, ownerID, ownerType)
	v, err, _ := p.group.Do(key, func() (any, error) {
		return p.promote(ctx, assetID, ownerID, role)
	})
	if err != nil {
		return nil, err
	}

	// Callers may mutate their copy
	asset := *v.(*model.Asset)
	return &asset, nil
}

func (p *Promoter) promote(ctx context.Context, assetID, ownerID int64, role model.OwnerRole) (*model.Asset, error) {
	asset, err := p.assets.ByID(assetID)
	if err != nil {
		return nil, err
	}

	sameOwner := model.RolesOfKind(role.Kind)
	if asset.Owned() && !(*asset.OwnerID == ownerID && slices.Contains(sameOwner, *asset.OwnerType)) {
		metrics.RecordPromotion(role.Type, "conflict")
		return nil, fmt.Errorf("%w: asset %d belongs to %s %d", ErrDuplicateOwnership, asset.ID, *asset.OwnerType, *asset.OwnerID)
	}

	// Rich text links a content asset by URL; moving it to a direct role
	// would leave those links pointing at the old folder
	if asset.Owned() && *asset.OwnerType != role.Type {
		if current, ok := model.Role(*asset.OwnerType); ok && current.Content {
			metrics.RecordPromotion(role.Type, "conflict")
			return nil, fmt.Errorf("%w: asset %d is embedded in the content of %s %d", ErrDuplicateOwnership, asset.ID, role.Kind, ownerID)
		}
	}

	folder := storage.OwnerFolder(role.Kind, ownerID, role.Content)
	prevKey := asset.StorageKey
	result := "in_place"

	if path.Dir(asset.StorageKey) != folder {
		newKey, err := p.store.Move(ctx, asset.StorageKey, folder)
		if err != nil {
			metrics.RecordPromotion(role.Type, "error")
			return nil, fmt.Errorf("failed to move asset %d: %w", asset.ID, err)
		}
		if newKey == "" {
			newKey, err = p.relocated(ctx, asset, folder)
			if err != nil {
				metrics.RecordPromotion(role.Type, "error")
				return nil, err
			}
		}

		if newKey != asset.StorageKey {
			publicURL := storage.PublicURL(p.baseURL, newKey)
			err := p.assets.UpdateLocation(asset.ID, newKey, publicURL)
			if err != nil {
				p.restore(ctx, asset.ID, newKey, prevKey, "")
				metrics.RecordPromotion(role.Type, "error")
				return nil, fmt.Errorf("failed to record location of asset %d: %w", asset.ID, err)
			}
			asset.StorageKey = newKey
			asset.PublicURL = publicURL
			result = "moved"
		}
	}

	err = p.assets.AssignOwner(asset.ID, ownerID, role.Type, sameOwner)
	if err != nil {
		if asset.StorageKey != prevKey {
			p.restore(ctx, asset.ID, asset.StorageKey, prevKey, storage.PublicURL(p.baseURL, prevKey))
		}
		if errors.Is(err, repository.ErrAssetOwned) {
			metrics.RecordPromotion(role.Type, "conflict")
			return nil, fmt.Errorf("%w: asset %d", ErrDuplicateOwnership, asset.ID)
		}
		metrics.RecordPromotion(role.Type, "error")
		return nil, fmt.Errorf("failed to assign owner of asset %d: %w", asset.ID, err)
	}

	ownerType := role.Type
	asset.OwnerID = &ownerID
	asset.OwnerType = &ownerType

	metrics.RecordPromotion(role.Type, result)
	p.log.Debug("asset promoted",
		"asset_id", asset.ID,
		"owner_id", ownerID,
		"owner_type", role.Type,
		"storage_key", asset.StorageKey,
		"result", result,
	)
	return asset, nil
}

// relocated explains a move whose source was already gone. Either a
// concurrent promotion for the same owner got there first, or the file
// is really missing.
func (p *Promoter) relocated(ctx context.Context, asset *model.Asset, folder string) (string, error) {
	current, err := p.assets.ByID(asset.ID)
	if err != nil {
		return "", err
	}
	if path.Dir(current.StorageKey) == folder {
		return current.StorageKey, nil
	}

	// Moved by another process that has not recorded the new key yet
	candidate := path.Join(folder, path.Base(asset.StorageKey))
	exists, err := p.store.Exists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if exists {
		return candidate, nil
	}

	if current.StorageKey != asset.StorageKey {
		return "", fmt.Errorf("%w: asset %d was moved to %s concurrently", ErrDuplicateOwnership, asset.ID, current.StorageKey)
	}
	return "", fmt.Errorf("%w: asset %d at %s", ErrSourceMissing, asset.ID, asset.StorageKey)
}

// restore moves a file back after a failed promotion. A non-empty
// prevURL also rolls the registry location back.
func (p *Promoter) restore(ctx context.Context, assetID int64, key, prevKey, prevURL string) {
	back, err := p.store.Move(ctx, key, path.Dir(prevKey))
	if err != nil || back == "" {
		p.log.Error("failed to restore asset after failed promotion",
			"asset_id", assetID,
			"storage_key", key,
			"previous_key", prevKey,
			"error", err,
		)
		return
	}
	if prevURL == "" {
		return
	}
	err = p.assets.UpdateLocation(assetID, prevKey, prevURL)
	if err != nil {
		p.log.Error("failed to restore asset location", "asset_id", assetID, "storage_key", prevKey, "error", err)
	}
}
