package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vhu/portal/internal/model"
)

func TestAssetCreateAndLookup(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))

	asset := stagedAsset("temp/u1_a.png", time.Now())
	require.NoError(t, repo.Create(asset))
	assert.NotZero(t, asset.ID)

	byID, err := repo.ByID(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "temp/u1_a.png", byID.StorageKey)
	assert.False(t, byID.Owned())

	byKey, err := repo.ByStorageKey("temp/u1_a.png")
	require.NoError(t, err)
	assert.Equal(t, asset.ID, byKey.ID)

	_, err = repo.ByID(asset.ID + 100)
	assert.ErrorIs(t, err, ErrAssetNotFound)

	_, err = repo.ByStorageKey("temp/missing.png")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestAssetStorageKeyIsUnique(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))

	require.NoError(t, repo.Create(stagedAsset("temp/u1_a.png", time.Now())))
	assert.Error(t, repo.Create(stagedAsset("temp/u1_a.png", time.Now())))
}

func TestAssetAssignOwner(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))
	articleRoles := model.RolesOfKind(model.KindArticle)

	asset := stagedAsset("temp/u1_a.png", time.Now())
	require.NoError(t, repo.Create(asset))

	require.NoError(t, repo.AssignOwner(asset.ID, 10, model.OwnerArticleThumbnail, articleRoles))

	got, err := repo.ByID(asset.ID)
	require.NoError(t, err)
	assert.True(t, got.OwnedBy(10, model.OwnerArticleThumbnail))

	// Reasserting is harmless
	require.NoError(t, repo.AssignOwner(asset.ID, 10, model.OwnerArticleThumbnail, articleRoles))

	// Switching role within the same record is allowed
	require.NoError(t, repo.AssignOwner(asset.ID, 10, model.OwnerArticleContent, articleRoles))

	// A different record cannot take it
	err = repo.AssignOwner(asset.ID, 11, model.OwnerArticleContent, articleRoles)
	assert.ErrorIs(t, err, ErrAssetOwned)

	// Same id in another kind is a different record
	err = repo.AssignOwner(asset.ID, 10, model.OwnerSlide, model.RolesOfKind(model.KindSlide))
	assert.ErrorIs(t, err, ErrAssetOwned)

	err = repo.AssignOwner(asset.ID+100, 10, model.OwnerArticleContent, articleRoles)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestAssetClearOwner(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))

	asset := stagedAsset("articles/10/u1_a.png", time.Now())
	require.NoError(t, repo.Create(asset))
	require.NoError(t, repo.AssignOwner(asset.ID, 10, model.OwnerArticleThumbnail, nil))

	// Wrong owner leaves the row alone
	require.NoError(t, repo.ClearOwner(asset.ID, 11, model.OwnerArticleThumbnail))
	got, err := repo.ByID(asset.ID)
	require.NoError(t, err)
	assert.True(t, got.Owned())

	require.NoError(t, repo.ClearOwner(asset.ID, 10, model.OwnerArticleThumbnail))
	got, err = repo.ByID(asset.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)
	assert.Nil(t, got.OwnerType)
	assert.Equal(t, model.AssetOrphaned, got.State("temp"))
}

func TestAssetByOwner(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))

	for _, key := range []string{"articles/10/images/u1_a.png", "articles/10/images/u2_b.png", "articles/10/u3_c.png"} {
		a := stagedAsset(key, time.Now())
		require.NoError(t, repo.Create(a))
		role := model.OwnerArticleContent
		if key == "articles/10/u3_c.png" {
			role = model.OwnerArticleThumbnail
		}
		require.NoError(t, repo.AssignOwner(a.ID, 10, role, nil))
	}

	content, err := repo.ByOwner(10, model.OwnerArticleContent)
	require.NoError(t, err)
	require.Len(t, content, 2)
	assert.Equal(t, "articles/10/images/u1_a.png", content[0].StorageKey)

	none, err := repo.ByOwner(99, model.OwnerArticleContent)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAssetOrphans(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))
	now := time.Now().UTC()

	old := stagedAsset("temp/u1_old.png", now.Add(-48*time.Hour))
	fresh := stagedAsset("temp/u2_fresh.png", now.Add(-time.Hour))
	owned := stagedAsset("slides/1/u3_owned.png", now.Add(-72*time.Hour))
	for _, a := range []*model.Asset{old, fresh, owned} {
		require.NoError(t, repo.Create(a))
	}
	require.NoError(t, repo.AssignOwner(owned.ID, 1, model.OwnerSlide, nil))

	orphans, err := repo.Orphans(now.Add(-24*time.Hour), 100)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, old.ID, orphans[0].ID)

	orphans, err = repo.Orphans(now, 1)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, old.ID, orphans[0].ID, "oldest first")
}

func TestAssetUpdateLocationAndDelete(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))

	asset := stagedAsset("temp/u1_a.png", time.Now())
	require.NoError(t, repo.Create(asset))

	require.NoError(t, repo.UpdateLocation(asset.ID, "partners/2/u1_a.png", "http://x/uploads/partners/2/u1_a.png"))
	got, err := repo.ByID(asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "partners/2/u1_a.png", got.StorageKey)
	assert.Equal(t, "http://x/uploads/partners/2/u1_a.png", got.PublicURL)

	assert.ErrorIs(t, repo.UpdateLocation(asset.ID+1, "x", "y"), ErrAssetNotFound)

	require.NoError(t, repo.DeleteUnowned(asset.ID))
	assert.ErrorIs(t, repo.DeleteUnowned(asset.ID), ErrAssetNotFound)
}

func TestAssetDeleteUnownedKeepsOwnedAsset(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))

	asset := stagedAsset("temp/u1_a.png", time.Now())
	require.NoError(t, repo.Create(asset))
	require.NoError(t, repo.AssignOwner(asset.ID, 4, model.OwnerSlide, nil))

	assert.ErrorIs(t, repo.DeleteUnowned(asset.ID), ErrAssetNotFound)

	got, err := repo.ByID(asset.ID)
	require.NoError(t, err)
	assert.True(t, got.OwnedBy(4, model.OwnerSlide))
}
