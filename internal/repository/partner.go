package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vhu/portal/internal/model"
)

var (
	ErrPartnerNotFound = errors.New("partner not found")
)

type PartnerRepository interface {
	Create(partner *model.Partner) error
	ByID(id int64) (*model.Partner, error)
	Partners() ([]*model.Partner, error)
	MaxDisplayOrder() (int, error)
	Update(partner *model.Partner) error
	Delete(id int64) error
}

type partnerRepository struct {
	db *sqlx.DB
}

func NewPartnerRepository(db *sqlx.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(partner *model.Partner) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO partners (logo_asset_id, website_url, display_order, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	err = tx.QueryRow(query,
		partner.LogoAssetID,
		partner.WebsiteURL,
		partner.DisplayOrder,
		partner.CreatedAt.UTC(),
		partner.UpdatedAt.UTC(),
	).Scan(&partner.ID)
	if err != nil {
		return err
	}

	if err := insertPartnerTranslations(tx, partner); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *partnerRepository) ByID(id int64) (*model.Partner, error) {
	partner := &model.Partner{}
	query := `SELECT * FROM partners WHERE id = $1`

	err := r.db.Get(partner, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}

	query = `SELECT * FROM partner_translations WHERE partner_id = $1 ORDER BY language_code ASC`
	if err := r.db.Select(&partner.Translations, query, id); err != nil {
		return nil, err
	}
	return partner, nil
}

func (r *partnerRepository) Partners() ([]*model.Partner, error) {
	var partners []*model.Partner
	query := `SELECT * FROM partners ORDER BY display_order ASC, id ASC`

	if err := r.db.Select(&partners, query); err != nil {
		return nil, err
	}

	for _, p := range partners {
		err := r.db.Select(&p.Translations,
			`SELECT * FROM partner_translations WHERE partner_id = $1 ORDER BY language_code ASC`, p.ID)
		if err != nil {
			return nil, err
		}
	}
	return partners, nil
}

// MaxDisplayOrder returns the highest display order in use, or 0.
func (r *partnerRepository) MaxDisplayOrder() (int, error) {
	var order int
	err := r.db.QueryRow(`SELECT COALESCE(MAX(display_order), 0) FROM partners`).Scan(&order)
	return order, err
}

func (r *partnerRepository) Update(partner *model.Partner) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	partner.UpdatedAt = time.Now().UTC()
	query := `UPDATE partners SET logo_asset_id = $1, website_url = $2, display_order = $3, updated_at = $4
	          WHERE id = $5`

	result, err := tx.Exec(query, partner.LogoAssetID, partner.WebsiteURL, partner.DisplayOrder, partner.UpdatedAt, partner.ID)
	if err != nil {
		return err
	}
	if err := requireRow(result, ErrPartnerNotFound); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM partner_translations WHERE partner_id = $1`, partner.ID); err != nil {
		return err
	}
	if err := insertPartnerTranslations(tx, partner); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *partnerRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM partners WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrPartnerNotFound)
}

func insertPartnerTranslations(tx *sqlx.Tx, partner *model.Partner) error {
	query := `INSERT INTO partner_translations (partner_id, language_code, name) VALUES ($1, $2, $3)`

	for _, t := range partner.Translations {
		t.PartnerID = partner.ID
		if _, err := tx.Exec(query, t.PartnerID, t.LanguageCode, t.Name); err != nil {
			return err
		}
	}
	return nil
}
