package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vhu/portal/internal/model"
)

var (
	ErrSlideNotFound = errors.New("slide not found")
)

type SlideRepository interface {
	Create(slide *model.Slide) error
	ByID(id int64) (*model.Slide, error)
	Slides(activeOnly bool) ([]*model.Slide, error)
	Update(slide *model.Slide) error
	Delete(id int64) error
}

type slideRepository struct {
	db *sqlx.DB
}

func NewSlideRepository(db *sqlx.DB) SlideRepository {
	return &slideRepository{db: db}
}

func (r *slideRepository) Create(slide *model.Slide) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO slides (image_asset_id, display_order, active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	err = tx.QueryRow(query,
		slide.ImageAssetID,
		slide.DisplayOrder,
		slide.Active,
		slide.CreatedAt.UTC(),
		slide.UpdatedAt.UTC(),
	).Scan(&slide.ID)
	if err != nil {
		return err
	}

	if err := insertSlideTranslations(tx, slide); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *slideRepository) ByID(id int64) (*model.Slide, error) {
	slide := &model.Slide{}
	query := `SELECT * FROM slides WHERE id = $1`

	err := r.db.Get(slide, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSlideNotFound
	}
	if err != nil {
		return nil, err
	}

	query = `SELECT * FROM slide_translations WHERE slide_id = $1 ORDER BY language_code ASC`
	if err := r.db.Select(&slide.Translations, query, id); err != nil {
		return nil, err
	}
	return slide, nil
}

func (r *slideRepository) Slides(activeOnly bool) ([]*model.Slide, error) {
	var slides []*model.Slide
	query := `SELECT * FROM slides WHERE ($1 = FALSE OR active = TRUE) ORDER BY display_order ASC, id ASC`

	err := r.db.Select(&slides, query, activeOnly)
	if err != nil {
		return nil, err
	}

	for _, s := range slides {
		err := r.db.Select(&s.Translations,
			`SELECT * FROM slide_translations WHERE slide_id = $1 ORDER BY language_code ASC`, s.ID)
		if err != nil {
			return nil, err
		}
	}
	return slides, nil
}

func (r *slideRepository) Update(slide *model.Slide) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	slide.UpdatedAt = time.Now().UTC()
	query := `UPDATE slides SET image_asset_id = $1, display_order = $2, active = $3, updated_at = $4
	          WHERE id = $5`

	result, err := tx.Exec(query, slide.ImageAssetID, slide.DisplayOrder, slide.Active, slide.UpdatedAt, slide.ID)
	if err != nil {
		return err
	}
	if err := requireRow(result, ErrSlideNotFound); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM slide_translations WHERE slide_id = $1`, slide.ID); err != nil {
		return err
	}
	if err := insertSlideTranslations(tx, slide); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *slideRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM slides WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrSlideNotFound)
}

func insertSlideTranslations(tx *sqlx.Tx, slide *model.Slide) error {
	query := `INSERT INTO slide_translations (slide_id, language_code, title, description)
	          VALUES ($1, $2, $3, $4)`

	for _, t := range slide.Translations {
		t.SlideID = slide.ID
		if _, err := tx.Exec(query, t.SlideID, t.LanguageCode, t.Title, t.Description); err != nil {
			return err
		}
	}
	return nil
}
