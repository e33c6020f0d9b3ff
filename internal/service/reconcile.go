package service

import (
	"fmt"
	"log/slog"

	"github.com/vhu/portal/internal/logger"
	"github.com/vhu/portal/internal/metrics"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
)

// Reconciler releases assets an owner no longer references. It never
// deletes; released assets are left for the janitor.
type Reconciler struct {
	assets repository.AssetRepository
	log    *slog.Logger
}

func NewReconciler(assets repository.AssetRepository) *Reconciler {
	return &Reconciler{
		assets: assets,
		log:    logger.Component("reconciler"),
	}
}

// Reconcile releases every asset owned by (ownerID, contentOwnerType) that
// none of texts references. Pass all language variants at once: an asset
// is kept if any of them mentions it. Failing to release one asset is
// logged and does not stop the others.
func (r *Reconciler) Reconcile(ownerID int64, contentOwnerType string, texts ...string) error {
	return r.release(ownerID, contentOwnerType, ExtractKeys(texts...))
}

// ReleaseOwner releases everything an owning record holds in any role.
// Used when the record is deleted.
func (r *Reconciler) ReleaseOwner(ownerID int64, kind string) error {
	for _, ownerType := range model.RolesOfKind(kind) {
		if err := r.release(ownerID, ownerType, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAsset clears the ownership of a single replaced asset.
func (r *Reconciler) ReleaseAsset(assetID, ownerID int64, ownerType string) error {
	err := r.assets.ClearOwner(assetID, ownerID, ownerType)
	if err != nil {
		return fmt.Errorf("failed to release asset %d: %w", assetID, err)
	}
	metrics.RecordOwnershipReleased(ownerType, 1)
	return nil
}

func (r *Reconciler) release(ownerID int64, ownerType string, keep map[string]struct{}) error {
	owned, err := r.assets.ByOwner(ownerID, ownerType)
	if err != nil {
		return fmt.Errorf("failed to list assets of %s %d: %w", ownerType, ownerID, err)
	}

	released := 0
	for _, asset := range owned {
		if _, ok := keep[asset.StorageKey]; ok {
			continue
		}
		err := r.assets.ClearOwner(asset.ID, ownerID, ownerType)
		if err != nil {
			r.log.Error("failed to release asset",
				"asset_id", asset.ID,
				"owner_id", ownerID,
				"owner_type", ownerType,
				"error", err,
			)
			continue
		}
		released++
	}

	if released > 0 {
		metrics.RecordOwnershipReleased(ownerType, released)
		r.log.Info("released unreferenced assets",
			"owner_id", ownerID,
			"owner_type", ownerType,
			"count", released,
		)
	}
	return nil
}
