package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vhu/portal/internal/model"
)

var (
	ErrQuickLinkNotFound = errors.New("quick link not found")
)

type QuickLinkRepository interface {
	Create(link *model.QuickLink) error
	ByID(id int64) (*model.QuickLink, error)
	QuickLinks(activeOnly bool) ([]*model.QuickLink, error)
	Update(link *model.QuickLink) error
	Delete(id int64) error
}

type quickLinkRepository struct {
	db *sqlx.DB
}

func NewQuickLinkRepository(db *sqlx.DB) QuickLinkRepository {
	return &quickLinkRepository{db: db}
}

func (r *quickLinkRepository) Create(link *model.QuickLink) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO quick_links (icon_asset_id, link_url, display_order, active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	err = tx.QueryRow(query,
		link.IconAssetID,
		link.LinkURL,
		link.DisplayOrder,
		link.Active,
		link.CreatedAt.UTC(),
		link.UpdatedAt.UTC(),
	).Scan(&link.ID)
	if err != nil {
		return err
	}

	if err := insertQuickLinkTranslations(tx, link); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *quickLinkRepository) ByID(id int64) (*model.QuickLink, error) {
	link := &model.QuickLink{}
	query := `SELECT * FROM quick_links WHERE id = $1`

	err := r.db.Get(link, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrQuickLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	query = `SELECT * FROM quick_link_translations WHERE link_id = $1 ORDER BY language_code ASC`
	if err := r.db.Select(&link.Translations, query, id); err != nil {
		return nil, err
	}
	return link, nil
}

func (r *quickLinkRepository) QuickLinks(activeOnly bool) ([]*model.QuickLink, error) {
	var links []*model.QuickLink
	query := `SELECT * FROM quick_links WHERE ($1 = FALSE OR active = TRUE) ORDER BY display_order ASC, id ASC`

	if err := r.db.Select(&links, query, activeOnly); err != nil {
		return nil, err
	}

	for _, l := range links {
		err := r.db.Select(&l.Translations,
			`SELECT * FROM quick_link_translations WHERE link_id = $1 ORDER BY language_code ASC`, l.ID)
		if err != nil {
			return nil, err
		}
	}
	return links, nil
}

func (r *quickLinkRepository) Update(link *model.QuickLink) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	link.UpdatedAt = time.Now().UTC()
	query := `UPDATE quick_links SET icon_asset_id = $1, link_url = $2, display_order = $3, active = $4, updated_at = $5
	          WHERE id = $6`

	result, err := tx.Exec(query, link.IconAssetID, link.LinkURL, link.DisplayOrder, link.Active, link.UpdatedAt, link.ID)
	if err != nil {
		return err
	}
	if err := requireRow(result, ErrQuickLinkNotFound); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM quick_link_translations WHERE link_id = $1`, link.ID); err != nil {
		return err
	}
	if err := insertQuickLinkTranslations(tx, link); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *quickLinkRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM quick_links WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrQuickLinkNotFound)
}

func insertQuickLinkTranslations(tx *sqlx.Tx, link *model.QuickLink) error {
	query := `INSERT INTO quick_link_translations (link_id, language_code, title) VALUES ($1, $2, $3)`

	for _, t := range link.Translations {
		t.LinkID = link.ID
		if _, err := tx.Exec(query, t.LinkID, t.LanguageCode, t.Title); err != nil {
			return err
		}
	}
	return nil
}
