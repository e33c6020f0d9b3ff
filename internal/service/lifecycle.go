package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vhu/portal/internal/logger"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
)

// Lifecycle runs the asset steps of saving an owning record, in order:
// promote direct references, rewrite rich text, persist, reconcile.
type Lifecycle struct {
	promoter   *Promoter
	rewriter   *Rewriter
	reconciler *Reconciler
	log        *slog.Logger
}

func NewLifecycle(promoter *Promoter, rewriter *Rewriter, reconciler *Reconciler) *Lifecycle {
	return &Lifecycle{
		promoter:   promoter,
		rewriter:   rewriter,
		reconciler: reconciler,
		log:        logger.Component("lifecycle"),
	}
}

// Attach promotes the asset behind a direct reference. A reference to a
// missing asset is a client error.
func (l *Lifecycle) Attach(ctx context.Context, assetID, ownerID int64, ownerType string) (*model.Asset, error) {
	asset, err := l.promoter.Promote(ctx, assetID, ownerID, ownerType)
	if errors.Is(err, repository.ErrAssetNotFound) {
		return nil, fmt.Errorf("%w: media %d does not exist", ErrValidation, assetID)
	}
	return asset, err
}

// RewriteAll rewrites every text in place. Texts are only replaced once
// all of them succeeded.
func (l *Lifecycle) RewriteAll(ctx context.Context, ownerID int64, contentOwnerType string, texts ...*string) error {
	rewritten := make([]string, len(texts))
	for i, text := range texts {
		out, err := l.rewriter.Rewrite(ctx, *text, ownerID, contentOwnerType)
		if err != nil {
			return err
		}
		rewritten[i] = out
	}
	for i, text := range texts {
		*text = rewritten[i]
	}
	return nil
}

// Reconcile releases content assets that texts no longer reference. The
// save has already been persisted, so failures are logged only.
func (l *Lifecycle) Reconcile(ownerID int64, contentOwnerType string, texts []string) {
	err := l.reconciler.Reconcile(ownerID, contentOwnerType, texts...)
	if err != nil {
		l.log.Error("reconciliation failed",
			"owner_id", ownerID,
			"owner_type", contentOwnerType,
			"error", err,
		)
	}
}

// Replace releases the previous direct asset once the record points at
// its successor.
func (l *Lifecycle) Replace(oldAssetID, newAssetID, ownerID int64, ownerType string) {
	if oldAssetID == 0 || oldAssetID == newAssetID {
		return
	}
	err := l.reconciler.ReleaseAsset(oldAssetID, ownerID, ownerType)
	if err != nil {
		l.log.Error("failed to release replaced asset",
			"asset_id", oldAssetID,
			"owner_id", ownerID,
			"owner_type", ownerType,
			"error", err,
		)
	}
}

// ReleaseAll releases every role of an owning record. Files stay for the
// janitor.
func (l *Lifecycle) ReleaseAll(ownerID int64, kind string) error {
	return l.reconciler.ReleaseOwner(ownerID, kind)
}

// Abandon undoes a create that failed after its row was inserted.
func (l *Lifecycle) Abandon(ownerID int64, kind string, deleteRow func(int64) error) {
	if err := l.ReleaseAll(ownerID, kind); err != nil {
		l.log.Error("failed to release assets of abandoned record", "owner_id", ownerID, "kind", kind, "error", err)
	}
	if err := deleteRow(ownerID); err != nil {
		l.log.Error("failed to delete abandoned record", "owner_id", ownerID, "kind", kind, "error", err)
	}
}
