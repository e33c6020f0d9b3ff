package model

import (
	"time"
)

const (
	ArticleStatusDraft     = "DRAFT"
	ArticleStatusPublished = "PUBLISHED"
)

const (
	ContentFormatHTML     = "html"
	ContentFormatMarkdown = "markdown"
)

type Article struct {
	ID               int64      `db:"id" json:"id"`
	AuthorID         int64      `db:"author_id" json:"authorId"`
	ThumbnailAssetID int64      `db:"thumbnail_asset_id" json:"thumbnailMediaId"`
	Status           string     `db:"status" json:"status"`
	Pinned           bool       `db:"pinned" json:"pinned"`
	PublishedAt      *time.Time `db:"published_at" json:"publishedAt"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`

	Translations []*ArticleTranslation `db:"-" json:"translations"`
}

type ArticleTranslation struct {
	ID           int64  `db:"id" json:"id"`
	ArticleID    int64  `db:"article_id" json:"-"`
	LanguageCode string `db:"language_code" json:"languageCode"`
	Title        string `db:"title" json:"title"`
	Excerpt      string `db:"excerpt" json:"excerpt"`
	Content      string `db:"content" json:"content"`
	Format       string `db:"format" json:"format"`
	Slug         string `db:"slug" json:"slug"`
}

// Contents returns the rich text of every language variant.
func (a *Article) Contents() []string {
	contents := make([]string, 0, len(a.Translations))
	for _, t := range a.Translations {
		contents = append(contents, t.Content)
	}
	return contents
}

// Translation returns the variant for lang, or nil.
func (a *Article) Translation(lang string) *ArticleTranslation {
	for _, t := range a.Translations {
		if t.LanguageCode == lang {
			return t
		}
	}
	return nil
}
