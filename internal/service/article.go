package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vhu/portal/internal/markdown"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/slug"
	"github.com/vhu/portal/internal/validation"
)

const maxSlugAttempts = 5

type ArticleInput struct {
	ThumbnailAssetID int64                     `json:"thumbnailMediaId"`
	Status           string                    `json:"status"`
	Pinned           bool                      `json:"pinned"`
	Translations     []ArticleTranslationInput `json:"translations"`
}

type ArticleTranslationInput struct {
	LanguageCode string `json:"languageCode"`
	Title        string `json:"title"`
	Excerpt      string `json:"excerpt"`
	Content      string `json:"content"`
	Format       string `json:"format"`
}

type ArticleService struct {
	repo      repository.ArticleRepository
	lifecycle *Lifecycle
	parser    *markdown.Parser
	now       func() time.Time
}

func NewArticleService(repo repository.ArticleRepository, lifecycle *Lifecycle, parser *markdown.Parser) *ArticleService {
	return &ArticleService{
		repo:      repo,
		lifecycle: lifecycle,
		parser:    parser,
		now:       time.Now,
	}
}

// Create inserts the article, then promotes its thumbnail and the images
// referenced from its content. Any failure after the insert removes the
// row again and releases what was claimed.
func (s *ArticleService) Create(ctx context.Context, authorID int64, in ArticleInput) (*model.Article, error) {
	err := validateArticle(in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	article := &model.Article{
		AuthorID:         authorID,
		ThumbnailAssetID: in.ThumbnailAssetID,
		Status:           articleStatus(in.Status),
		Pinned:           in.Pinned,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if article.Status == model.ArticleStatusPublished {
		article.PublishedAt = &now
	}

	article.Translations, err = s.translations(nil, in.Translations, 0)
	if err != nil {
		return nil, err
	}

	err = s.repo.Create(article)
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	err = s.attach(ctx, article)
	if err != nil {
		s.lifecycle.Abandon(article.ID, model.KindArticle, s.repo.Delete)
		return nil, err
	}

	s.lifecycle.Reconcile(article.ID, model.OwnerArticleContent, article.Contents())

	slog.Info("article created", "article_id", article.ID, "author_id", authorID)
	return article, nil
}

// attach promotes the assets of a freshly inserted article and persists
// the rewritten content.
func (s *ArticleService) attach(ctx context.Context, article *model.Article) error {
	_, err := s.lifecycle.Attach(ctx, article.ThumbnailAssetID, article.ID, model.OwnerArticleThumbnail)
	if err != nil {
		return err
	}

	err = s.lifecycle.RewriteAll(ctx, article.ID, model.OwnerArticleContent, contentRefs(article)...)
	if err != nil {
		return err
	}

	err = s.repo.Update(article)
	if err != nil {
		return fmt.Errorf("failed to save article content: %w", err)
	}
	return nil
}

// Update promotes the new thumbnail and content images before saving. The
// previous thumbnail is released only after the article points at the
// new one.
func (s *ArticleService) Update(ctx context.Context, id int64, in ArticleInput) (*model.Article, error) {
	err := validateArticle(in)
	if err != nil {
		return nil, err
	}

	article, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}
	previousThumbnail := article.ThumbnailAssetID
	previousContents := article.Contents()

	translations, err := s.translations(article, in.Translations, article.ID)
	if err != nil {
		return nil, err
	}

	_, err = s.lifecycle.Attach(ctx, in.ThumbnailAssetID, article.ID, model.OwnerArticleThumbnail)
	if err != nil {
		return nil, err
	}

	article.ThumbnailAssetID = in.ThumbnailAssetID
	article.Translations = translations
	article.Pinned = in.Pinned
	article.Status = articleStatus(in.Status)
	if article.Status == model.ArticleStatusPublished && article.PublishedAt == nil {
		now := s.now().UTC()
		article.PublishedAt = &now
	}

	err = s.lifecycle.RewriteAll(ctx, article.ID, model.OwnerArticleContent, contentRefs(article)...)
	if err == nil {
		err = s.repo.Update(article)
	}
	if err != nil {
		// Give back what this attempt claimed; the stored article is unchanged
		s.lifecycle.Replace(in.ThumbnailAssetID, previousThumbnail, article.ID, model.OwnerArticleThumbnail)
		s.lifecycle.Reconcile(article.ID, model.OwnerArticleContent, previousContents)
		return nil, err
	}

	s.lifecycle.Replace(previousThumbnail, article.ThumbnailAssetID, article.ID, model.OwnerArticleThumbnail)
	s.lifecycle.Reconcile(article.ID, model.OwnerArticleContent, article.Contents())

	return article, nil
}

// Delete releases every asset of the article and removes it. The files
// are reclaimed by the janitor.
func (s *ArticleService) Delete(_ context.Context, id int64) error {
	_, err := s.repo.ByID(id)
	if err != nil {
		return err
	}

	err = s.lifecycle.ReleaseAll(id, model.KindArticle)
	if err != nil {
		return err
	}

	return s.repo.Delete(id)
}

func (s *ArticleService) ByID(id int64) (*model.Article, error) {
	return s.repo.ByID(id)
}

func (s *ArticleService) BySlug(slug string) (*model.Article, error) {
	return s.repo.BySlug(slug)
}

func (s *ArticleService) Articles(status string, limit, offset int) ([]*model.Article, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.Articles(status, limit, offset)
}

// TogglePin flips the pinned flag and returns the updated article.
func (s *ArticleService) TogglePin(id int64) (*model.Article, error) {
	article, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}

	err = s.repo.SetPinned(id, !article.Pinned)
	if err != nil {
		return nil, err
	}

	article.Pinned = !article.Pinned
	return article, nil
}

// Render returns the HTML body of a translation.
func (s *ArticleService) Render(t *model.ArticleTranslation) (string, error) {
	if t.Format == model.ContentFormatMarkdown {
		return s.parser.Render(t.Content)
	}
	return t.Content, nil
}

// translations builds the stored variants from input. Slugs are kept for
// variants whose title did not change and made unique otherwise.
func (s *ArticleService) translations(existing *model.Article, in []ArticleTranslationInput, articleID int64) ([]*model.ArticleTranslation, error) {
	taken := make(map[string]bool)
	out := make([]*model.ArticleTranslation, 0, len(in))

	for _, t := range in {
		format := t.Format
		if format == "" {
			format = model.ContentFormatHTML
		}

		var slugValue string
		if existing != nil {
			if prev := existing.Translation(t.LanguageCode); prev != nil && prev.Title == strings.TrimSpace(t.Title) {
				slugValue = prev.Slug
			}
		}
		if slugValue == "" || taken[slugValue] {
			var err error
			slugValue, err = s.uniqueSlug(t.Title, articleID, taken)
			if err != nil {
				return nil, err
			}
		}
		taken[slugValue] = true

		out = append(out, &model.ArticleTranslation{
			LanguageCode: t.LanguageCode,
			Title:        strings.TrimSpace(t.Title),
			Excerpt:      t.Excerpt,
			Content:      t.Content,
			Format:       format,
			Slug:         slugValue,
		})
	}
	return out, nil
}

// uniqueSlug appends a millisecond timestamp when the plain slug is taken.
func (s *ArticleService) uniqueSlug(title string, articleID int64, taken map[string]bool) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "article"
	}

	candidate := base
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		if !taken[candidate] {
			exists, err := s.repo.SlugExists(candidate, articleID)
			if err != nil {
				return "", err
			}
			if !exists {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, s.now().UnixMilli()+int64(attempt))
	}
	return "", fmt.Errorf("%w: could not find a free slug for %q", ErrValidation, title)
}

func validateArticle(in ArticleInput) error {
	if in.ThumbnailAssetID <= 0 {
		return fmt.Errorf("%w: thumbnail is required", ErrValidation)
	}
	switch in.Status {
	case "", model.ArticleStatusDraft, model.ArticleStatusPublished:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	if len(in.Translations) == 0 {
		return fmt.Errorf("%w: at least one translation is required", ErrValidation)
	}

	seen := make(map[string]bool)
	for _, t := range in.Translations {
		if err := validation.ValidateLanguageCode(t.LanguageCode); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if seen[t.LanguageCode] {
			return fmt.Errorf("%w: duplicate translation %q", ErrValidation, t.LanguageCode)
		}
		seen[t.LanguageCode] = true

		if err := validation.ValidateRequired("title", t.Title, 255); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if len(t.Excerpt) > 1000 {
			return fmt.Errorf("%w: excerpt is too long (max 1000 characters)", ErrValidation)
		}
		switch t.Format {
		case "", model.ContentFormatHTML, model.ContentFormatMarkdown:
		default:
			return fmt.Errorf("%w: unknown content format %q", ErrValidation, t.Format)
		}
	}
	return nil
}

func articleStatus(status string) string {
	if status == "" {
		return model.ArticleStatusDraft
	}
	return status
}

func contentRefs(article *model.Article) []*string {
	refs := make([]*string, 0, len(article.Translations))
	for _, t := range article.Translations {
		refs = append(refs, &t.Content)
	}
	return refs
}
