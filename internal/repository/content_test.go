package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vhu/portal/internal/model"
)

func newArticle(slugs ...string) *model.Article {
	now := time.Now().UTC()
	a := &model.Article{
		AuthorID:         1,
		ThumbnailAssetID: 1,
		Status:           model.ArticleStatusDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for i, slug := range slugs {
		lang := []string{"vi", "en", "fr"}[i]
		a.Translations = append(a.Translations, &model.ArticleTranslation{
			LanguageCode: lang,
			Title:        slug,
			Content:      "<p>" + slug + "</p>",
			Format:       model.ContentFormatHTML,
			Slug:         slug,
		})
	}
	return a
}

func TestArticleCRUD(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	article := newArticle("tin-tuc", "news")
	require.NoError(t, repo.Create(article))
	assert.NotZero(t, article.ID)

	got, err := repo.ByID(article.ID)
	require.NoError(t, err)
	require.Len(t, got.Translations, 2)
	assert.Equal(t, "news", got.Translation("en").Slug)
	assert.Equal(t, []string{"<p>news</p>", "<p>tin-tuc</p>"}, got.Contents())

	bySlug, err := repo.BySlug("tin-tuc")
	require.NoError(t, err)
	assert.Equal(t, article.ID, bySlug.ID)

	got.Translations = got.Translations[:1]
	got.Translations[0].Content = "<p>edited</p>"
	got.Status = model.ArticleStatusPublished
	require.NoError(t, repo.Update(got))

	got, err = repo.ByID(article.ID)
	require.NoError(t, err)
	require.Len(t, got.Translations, 1)
	assert.Equal(t, "<p>edited</p>", got.Translations[0].Content)
	assert.Equal(t, model.ArticleStatusPublished, got.Status)

	require.NoError(t, repo.SetPinned(article.ID, true))
	got, err = repo.ByID(article.ID)
	require.NoError(t, err)
	assert.True(t, got.Pinned)

	require.NoError(t, repo.Delete(article.ID))
	_, err = repo.ByID(article.ID)
	assert.ErrorIs(t, err, ErrArticleNotFound)
	assert.ErrorIs(t, repo.Delete(article.ID), ErrArticleNotFound)
}

func TestArticleSlugExists(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	article := newArticle("tin-tuc")
	require.NoError(t, repo.Create(article))

	exists, err := repo.SlugExists("tin-tuc", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists("tin-tuc", article.ID)
	require.NoError(t, err)
	assert.False(t, exists, "own slug does not collide")

	assert.Error(t, repo.Create(newArticle("tin-tuc")))
}

func TestArticlesPinnedFirst(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	first := newArticle("first")
	require.NoError(t, repo.Create(first))
	second := newArticle("second")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.Create(second))
	require.NoError(t, repo.SetPinned(first.ID, true))

	articles, err := repo.Articles("", 10, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, first.ID, articles[0].ID)
	assert.Equal(t, "second", articles[1].Translations[0].Slug)

	published, err := repo.Articles(model.ArticleStatusPublished, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, published)
}

func TestSlideCRUD(t *testing.T) {
	repo := NewSlideRepository(newTestDB(t))

	slide := &model.Slide{
		ImageAssetID: 3,
		DisplayOrder: 1,
		Active:       true,
		Translations: []*model.SlideTranslation{{LanguageCode: "vi", Title: "Chào"}},
	}
	require.NoError(t, repo.Create(slide))

	hidden := &model.Slide{ImageAssetID: 4, DisplayOrder: 2}
	require.NoError(t, repo.Create(hidden))

	active, err := repo.Slides(true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Chào", active[0].Translations[0].Title)

	all, err := repo.Slides(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	slide.ImageAssetID = 5
	slide.Translations = append(slide.Translations, &model.SlideTranslation{LanguageCode: "en", Title: "Hello"})
	require.NoError(t, repo.Update(slide))

	got, err := repo.ByID(slide.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ImageAssetID)
	assert.Len(t, got.Translations, 2)

	require.NoError(t, repo.Delete(slide.ID))
	_, err = repo.ByID(slide.ID)
	assert.ErrorIs(t, err, ErrSlideNotFound)
}

func TestPartnerDisplayOrder(t *testing.T) {
	repo := NewPartnerRepository(newTestDB(t))

	order, err := repo.MaxDisplayOrder()
	require.NoError(t, err)
	assert.Equal(t, 0, order)

	partner := &model.Partner{
		LogoAssetID:  1,
		DisplayOrder: 4,
		Translations: []*model.PartnerTranslation{{LanguageCode: "en", Name: "Acme"}},
	}
	require.NoError(t, repo.Create(partner))

	order, err = repo.MaxDisplayOrder()
	require.NoError(t, err)
	assert.Equal(t, 4, order)

	got, err := repo.ByID(partner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Translations[0].Name)

	partners, err := repo.Partners()
	require.NoError(t, err)
	assert.Len(t, partners, 1)

	require.NoError(t, repo.Delete(partner.ID))
	assert.ErrorIs(t, repo.Delete(partner.ID), ErrPartnerNotFound)
}

func TestQuickLinkOptionalIcon(t *testing.T) {
	repo := NewQuickLinkRepository(newTestDB(t))

	link := &model.QuickLink{
		LinkURL:      "https://example.com",
		Active:       true,
		Translations: []*model.QuickLinkTranslation{{LanguageCode: "vi", Title: "Tuyển sinh"}},
	}
	require.NoError(t, repo.Create(link))

	got, err := repo.ByID(link.ID)
	require.NoError(t, err)
	assert.Nil(t, got.IconAssetID)

	icon := int64(9)
	got.IconAssetID = &icon
	require.NoError(t, repo.Update(got))

	got, err = repo.ByID(link.ID)
	require.NoError(t, err)
	require.NotNil(t, got.IconAssetID)
	assert.Equal(t, int64(9), *got.IconAssetID)

	links, err := repo.QuickLinks(true)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	require.NoError(t, repo.Delete(link.ID))
	_, err = repo.ByID(link.ID)
	assert.ErrorIs(t, err, ErrQuickLinkNotFound)
}
