package service

import (
	"context"
	"fmt"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
)

func TestSlideLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSlideService(repository.NewSlideRepository(env.db), env.lifecycle)
	ctx := context.Background()

	first := env.stage(t, "banner.png")
	in := SlideInput{
		ImageAssetID: first.ID,
		Active:       true,
		Translations: []SlideTranslationInput{{LanguageCode: "vi", Title: "Chào mừng"}},
	}

	slide, err := svc.Create(ctx, in)
	require.NoError(t, err)

	image := env.reload(t, first.ID)
	assert.Equal(t, fmt.Sprintf("slides/%d/%s", slide.ID, path.Base(first.StorageKey)), image.StorageKey)
	assert.True(t, image.OwnedBy(slide.ID, model.OwnerSlide))

	// Replace the image
	second := env.stage(t, "banner2.png")
	in.ImageAssetID = second.ID
	in.Active = false
	updated, err := svc.Update(ctx, slide.ID, in)
	require.NoError(t, err)
	assert.Equal(t, second.ID, updated.ImageAssetID)
	assert.True(t, env.reload(t, second.ID).OwnedBy(slide.ID, model.OwnerSlide))
	assert.False(t, env.reload(t, first.ID).Owned())

	active, err := svc.Slides(true)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, svc.Delete(ctx, slide.ID))
	assert.False(t, env.reload(t, second.ID).Owned())
	_, err = svc.ByID(slide.ID)
	assert.ErrorIs(t, err, repository.ErrSlideNotFound)
}

func TestSlideCreateRejectsUsedImage(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSlideService(repository.NewSlideRepository(env.db), env.lifecycle)
	ctx := context.Background()

	image := env.stage(t, "banner.png")
	in := SlideInput{ImageAssetID: image.ID, Active: true}

	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, ErrDuplicateOwnership)

	slides, err := svc.Slides(false)
	require.NoError(t, err)
	assert.Len(t, slides, 1)

	_, err = svc.Create(ctx, SlideInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPartnerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPartnerService(repository.NewPartnerRepository(env.db), env.lifecycle)
	ctx := context.Background()

	names := []PartnerTranslationInput{{LanguageCode: "vi", Name: "Đối tác"}}

	logo := env.stage(t, "logo.png")
	first, err := svc.Create(ctx, PartnerInput{LogoAssetID: logo.ID, WebsiteURL: "https://partner.example.com", Translations: names})
	require.NoError(t, err)
	assert.Equal(t, 1, first.DisplayOrder)

	second, err := svc.Create(ctx, PartnerInput{LogoAssetID: env.stage(t, "logo2.png").ID, Translations: names})
	require.NoError(t, err)
	assert.Equal(t, 2, second.DisplayOrder)

	stored := env.reload(t, logo.ID)
	assert.Equal(t, fmt.Sprintf("partners/%d/%s", first.ID, path.Base(logo.StorageKey)), stored.StorageKey)
	assert.True(t, stored.OwnedBy(first.ID, model.OwnerPartner))

	// Keeping the same logo is a no-op for ownership
	order := 5
	updated, err := svc.Update(ctx, first.ID, PartnerInput{LogoAssetID: logo.ID, DisplayOrder: &order, Translations: names})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.DisplayOrder)
	assert.True(t, env.reload(t, logo.ID).OwnedBy(first.ID, model.OwnerPartner))

	// Another partner cannot take it
	_, err = svc.Update(ctx, second.ID, PartnerInput{LogoAssetID: logo.ID, Translations: names})
	assert.ErrorIs(t, err, ErrDuplicateOwnership)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.False(t, env.reload(t, logo.ID).Owned())
	assert.True(t, env.fileExists(stored.StorageKey))

	partners, err := svc.Partners()
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, second.ID, partners[0].ID)
}

func TestPartnerValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPartnerService(repository.NewPartnerRepository(env.db), env.lifecycle)
	logo := env.stage(t, "logo.png")

	_, err := svc.Create(context.Background(), PartnerInput{LogoAssetID: logo.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), PartnerInput{
		LogoAssetID:  logo.ID,
		WebsiteURL:   "javascript:alert(1)",
		Translations: []PartnerTranslationInput{{LanguageCode: "vi", Name: "x"}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuickLinkOptionalIcon(t *testing.T) {
	env := newTestEnv(t)
	svc := NewQuickLinkService(repository.NewQuickLinkRepository(env.db), env.lifecycle)
	ctx := context.Background()

	titles := []QuickLinkTranslationInput{{LanguageCode: "vi", Title: "Tuyển sinh"}}

	link, err := svc.Create(ctx, QuickLinkInput{LinkURL: "https://vhu.edu.vn/tuyen-sinh", Active: true, Translations: titles})
	require.NoError(t, err)
	assert.Nil(t, link.IconAssetID)

	icon := env.stage(t, "icon.png")
	updated, err := svc.Update(ctx, link.ID, QuickLinkInput{IconAssetID: &icon.ID, LinkURL: link.LinkURL, Active: true, Translations: titles})
	require.NoError(t, err)
	require.NotNil(t, updated.IconAssetID)

	stored := env.reload(t, icon.ID)
	assert.Equal(t, fmt.Sprintf("quick_access/%d/%s", link.ID, path.Base(icon.StorageKey)), stored.StorageKey)
	assert.True(t, stored.OwnedBy(link.ID, model.OwnerQuickAccess))

	// Dropping the icon releases it
	_, err = svc.Update(ctx, link.ID, QuickLinkInput{LinkURL: link.LinkURL, Active: true, Translations: titles})
	require.NoError(t, err)
	assert.False(t, env.reload(t, icon.ID).Owned())

	reloaded, err := svc.ByID(link.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.IconAssetID)

	links, err := svc.QuickLinks(true)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	_, err = svc.Create(ctx, QuickLinkInput{LinkURL: "not a url", Translations: titles})
	assert.ErrorIs(t, err, ErrValidation)
}
