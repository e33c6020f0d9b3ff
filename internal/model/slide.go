package model

import (
	"time"
)

type Slide struct {
	ID           int64     `db:"id" json:"id"`
	ImageAssetID int64     `db:"image_asset_id" json:"mediaId"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	Translations []*SlideTranslation `db:"-" json:"translations"`
}

type SlideTranslation struct {
	SlideID      int64  `db:"slide_id" json:"-"`
	LanguageCode string `db:"language_code" json:"languageCode"`
	Title        string `db:"title" json:"title"`
	Description  string `db:"description" json:"description"`
}
