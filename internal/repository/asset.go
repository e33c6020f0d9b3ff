package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vhu/portal/internal/model"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	// ErrAssetOwned is returned by AssignOwner when the asset belongs to
	// an owner outside the permitted set.
	ErrAssetOwned = errors.New("asset owned by another record")
)

// AssetRepository is the catalog of stored files and their owners.
// Every mutation touches a single row.
type AssetRepository interface {
	Create(asset *model.Asset) error
	ByID(id int64) (*model.Asset, error)
	ByStorageKey(key string) (*model.Asset, error)
	ByOwner(ownerID int64, ownerType string) ([]*model.Asset, error)
	Orphans(before time.Time, limit int) ([]*model.Asset, error)
	UpdateLocation(id int64, storageKey, publicURL string) error
	AssignOwner(id, ownerID int64, ownerType string, sameOwnerTypes []string) error
	ClearOwner(id, ownerID int64, ownerType string) error
	DeleteUnowned(id int64) error
}

type assetRepository struct {
	db *sqlx.DB
}

func NewAssetRepository(db *sqlx.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(asset *model.Asset) error {
	query := `INSERT INTO assets (storage_key, public_url, original_name, mime_type, size, owner_id, owner_type, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	return r.db.QueryRow(query,
		asset.StorageKey,
		asset.PublicURL,
		asset.OriginalName,
		asset.MimeType,
		asset.Size,
		asset.OwnerID,
		asset.OwnerType,
		asset.CreatedAt.UTC(),
	).Scan(&asset.ID)
}

func (r *assetRepository) ByID(id int64) (*model.Asset, error) {
	asset := &model.Asset{}
	query := `SELECT * FROM assets WHERE id = $1`

	err := r.db.Get(asset, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrAssetNotFound
	}

	return asset, err
}

func (r *assetRepository) ByStorageKey(key string) (*model.Asset, error) {
	asset := &model.Asset{}
	query := `SELECT * FROM assets WHERE storage_key = $1`

	err := r.db.Get(asset, query, key)
	if err == sql.ErrNoRows {
		return nil, ErrAssetNotFound
	}

	return asset, err
}

func (r *assetRepository) ByOwner(ownerID int64, ownerType string) ([]*model.Asset, error) {
	var assets []*model.Asset
	query := `SELECT * FROM assets WHERE owner_id = $1 AND owner_type = $2 ORDER BY id ASC`

	err := r.db.Select(&assets, query, ownerID, ownerType)
	if err != nil {
		return nil, err
	}

	return assets, nil
}

// Orphans returns unowned assets created before the cutoff, oldest first.
func (r *assetRepository) Orphans(before time.Time, limit int) ([]*model.Asset, error) {
	var assets []*model.Asset
	query := `SELECT * FROM assets
	          WHERE owner_id IS NULL AND created_at < $1
	          ORDER BY created_at ASC
	          LIMIT $2`

	err := r.db.Select(&assets, query, before.UTC(), limit)
	if err != nil {
		return nil, err
	}

	return assets, nil
}

func (r *assetRepository) UpdateLocation(id int64, storageKey, publicURL string) error {
	query := `UPDATE assets SET storage_key = $1, public_url = $2 WHERE id = $3`

	result, err := r.db.Exec(query, storageKey, publicURL, id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrAssetNotFound)
}

// AssignOwner sets the owner in one conditional update. The row is only
// touched when it is unowned or already owned by ownerID under one of
// sameOwnerTypes, so two records can never both claim the asset.
func (r *assetRepository) AssignOwner(id, ownerID int64, ownerType string, sameOwnerTypes []string) error {
	if len(sameOwnerTypes) == 0 {
		sameOwnerTypes = []string{ownerType}
	}

	query, args, err := sqlx.In(`UPDATE assets SET owner_id = ?, owner_type = ?
	          WHERE id = ? AND (owner_id IS NULL OR (owner_id = ? AND owner_type IN (?)))`,
		ownerID, ownerType, id, ownerID, sameOwnerTypes)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(r.db.Rebind(query), args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Nothing matched: tell a missing row apart from a foreign owner
	if _, err := r.ByID(id); err != nil {
		return err
	}
	return ErrAssetOwned
}

// ClearOwner releases the asset if it is still owned by (ownerID, ownerType).
// Releasing an asset that has moved on is a no-op.
func (r *assetRepository) ClearOwner(id, ownerID int64, ownerType string) error {
	query := `UPDATE assets SET owner_id = NULL, owner_type = NULL
	          WHERE id = $1 AND owner_id = $2 AND owner_type = $3`

	_, err := r.db.Exec(query, id, ownerID, ownerType)
	return err
}

// DeleteUnowned removes the asset only while it has no owner, so a
// promotion that lands first keeps its record.
func (r *assetRepository) DeleteUnowned(id int64) error {
	query := `DELETE FROM assets WHERE id = $1 AND owner_id IS NULL`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrAssetNotFound)
}

// requireRow maps an update or delete that matched nothing to notFound.
func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
