package model

import (
	"time"
)

type Partner struct {
	ID           int64     `db:"id" json:"id"`
	LogoAssetID  int64     `db:"logo_asset_id" json:"logoMediaId"`
	WebsiteURL   string    `db:"website_url" json:"websiteUrl"`
	DisplayOrder int       `db:"display_order" json:"displayOrder"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	Translations []*PartnerTranslation `db:"-" json:"translations"`
}

type PartnerTranslation struct {
	PartnerID    int64  `db:"partner_id" json:"-"`
	LanguageCode string `db:"language_code" json:"languageCode"`
	Name         string `db:"name" json:"name"`
}
