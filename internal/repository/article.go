package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vhu/portal/internal/model"
)

var (
	ErrArticleNotFound = errors.New("article not found")
)

type ArticleRepository interface {
	Create(article *model.Article) error
	ByID(id int64) (*model.Article, error)
	BySlug(slug string) (*model.Article, error)
	Articles(status string, limit, offset int) ([]*model.Article, error)
	SlugExists(slug string, excludeArticleID int64) (bool, error)
	Update(article *model.Article) error
	SetPinned(id int64, pinned bool) error
	Delete(id int64) error
}

type articleRepository struct {
	db *sqlx.DB
}

func NewArticleRepository(db *sqlx.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Create inserts the article and its translations in one transaction
// and sets article.ID.
func (r *articleRepository) Create(article *model.Article) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO articles (author_id, thumbnail_asset_id, status, pinned, published_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	err = tx.QueryRow(query,
		article.AuthorID,
		article.ThumbnailAssetID,
		article.Status,
		article.Pinned,
		article.PublishedAt,
		article.CreatedAt.UTC(),
		article.UpdatedAt.UTC(),
	).Scan(&article.ID)
	if err != nil {
		return err
	}

	if err := insertArticleTranslations(tx, article); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *articleRepository) ByID(id int64) (*model.Article, error) {
	article := &model.Article{}
	query := `SELECT * FROM articles WHERE id = $1`

	err := r.db.Get(article, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadTranslations([]*model.Article{article}); err != nil {
		return nil, err
	}
	return article, nil
}

func (r *articleRepository) BySlug(slug string) (*model.Article, error) {
	var id int64
	query := `SELECT article_id FROM article_translations WHERE slug = $1`

	err := r.db.Get(&id, query, slug)
	if err == sql.ErrNoRows {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}

	return r.ByID(id)
}

// Articles lists pinned articles first, then newest first. An empty status
// lists every article.
func (r *articleRepository) Articles(status string, limit, offset int) ([]*model.Article, error) {
	var articles []*model.Article
	query := `SELECT * FROM articles
	          WHERE ($1 = '' OR status = $1)
	          ORDER BY pinned DESC, created_at DESC, id DESC
	          LIMIT $2 OFFSET $3`

	err := r.db.Select(&articles, query, status, limit, offset)
	if err != nil {
		return nil, err
	}

	if err := r.loadTranslations(articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *articleRepository) SlugExists(slug string, excludeArticleID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM article_translations WHERE slug = $1 AND article_id <> $2`
	err := r.db.QueryRow(query, slug, excludeArticleID).Scan(&count)
	return count > 0, err
}

// Update rewrites the article row and replaces all of its translations.
func (r *articleRepository) Update(article *model.Article) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	article.UpdatedAt = time.Now().UTC()
	query := `UPDATE articles
	          SET thumbnail_asset_id = $1, status = $2, pinned = $3, published_at = $4, updated_at = $5
	          WHERE id = $6`

	result, err := tx.Exec(query,
		article.ThumbnailAssetID,
		article.Status,
		article.Pinned,
		article.PublishedAt,
		article.UpdatedAt,
		article.ID,
	)
	if err != nil {
		return err
	}
	if err := requireRow(result, ErrArticleNotFound); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM article_translations WHERE article_id = $1`, article.ID); err != nil {
		return err
	}
	if err := insertArticleTranslations(tx, article); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *articleRepository) SetPinned(id int64, pinned bool) error {
	query := `UPDATE articles SET pinned = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, pinned, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrArticleNotFound)
}

// Delete removes the article; translations cascade.
func (r *articleRepository) Delete(id int64) error {
	query := `DELETE FROM articles WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrArticleNotFound)
}

func insertArticleTranslations(tx *sqlx.Tx, article *model.Article) error {
	query := `INSERT INTO article_translations (article_id, language_code, title, excerpt, content, format, slug)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	for _, t := range article.Translations {
		t.ArticleID = article.ID
		err := tx.QueryRow(query,
			t.ArticleID,
			t.LanguageCode,
			t.Title,
			t.Excerpt,
			t.Content,
			t.Format,
			t.Slug,
		).Scan(&t.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *articleRepository) loadTranslations(articles []*model.Article) error {
	if len(articles) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Article, len(articles))
	ids := make([]int64, 0, len(articles))
	for _, a := range articles {
		a.Translations = nil
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	query, args, err := sqlx.In(`SELECT * FROM article_translations WHERE article_id IN (?) ORDER BY language_code ASC`, ids)
	if err != nil {
		return err
	}

	var translations []*model.ArticleTranslation
	if err := r.db.Select(&translations, r.db.Rebind(query), args...); err != nil {
		return err
	}

	for _, t := range translations {
		if a, ok := byID[t.ArticleID]; ok {
			a.Translations = append(a.Translations, t)
		}
	}
	return nil
}
