package model

import (
	"time"
)

type QuickLink struct {
	ID           int64     `db:"id" json:"id"`
	IconAssetID  *int64    `db:"icon_asset_id" json:"iconMediaId"` // Icon is optional
	LinkURL      string    `db:"link_url" json:"linkUrl"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	Translations []*QuickLinkTranslation `db:"-" json:"translations"`
}

type QuickLinkTranslation struct {
	LinkID       int64  `db:"link_id" json:"-"`
	LanguageCode string `db:"language_code" json:"languageCode"`
	Title        string `db:"title" json:"title"`
}
