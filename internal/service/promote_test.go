package service

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/storage"
)

func TestPromoteMovesAndAssignsOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staged := env.stage(t, "a.png")

	asset, err := env.promoter.Promote(ctx, staged.ID, 10, model.OwnerArticleThumbnail)
	require.NoError(t, err)

	wantKey := "articles/10/" + path.Base(staged.StorageKey)
	assert.Equal(t, wantKey, asset.StorageKey)
	assert.Equal(t, testBaseURL+"/uploads/"+wantKey, asset.PublicURL)
	assert.True(t, asset.OwnedBy(10, model.OwnerArticleThumbnail))

	stored := env.reload(t, staged.ID)
	assert.Equal(t, wantKey, stored.StorageKey)
	assert.True(t, stored.OwnedBy(10, model.OwnerArticleThumbnail))

	assert.True(t, env.fileExists(wantKey))
	assert.False(t, env.fileExists(staged.StorageKey))
}

func TestPromoteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staged := env.stage(t, "logo.png")

	first, err := env.promoter.Promote(ctx, staged.ID, 20, model.OwnerPartner)
	require.NoError(t, err)

	second, err := env.promoter.Promote(ctx, staged.ID, 20, model.OwnerPartner)
	require.NoError(t, err)

	assert.Equal(t, first.StorageKey, second.StorageKey)
	assert.Equal(t, first.PublicURL, second.PublicURL)
	assert.True(t, env.fileExists(second.StorageKey))
}

func TestPromoteRejectsOtherOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staged := env.stage(t, "a.png")

	owned, err := env.promoter.Promote(ctx, staged.ID, 10, model.OwnerArticleThumbnail)
	require.NoError(t, err)

	_, err = env.promoter.Promote(ctx, staged.ID, 11, model.OwnerArticleThumbnail)
	assert.ErrorIs(t, err, ErrDuplicateOwnership)

	_, err = env.promoter.Promote(ctx, staged.ID, 10, model.OwnerSlide)
	assert.ErrorIs(t, err, ErrDuplicateOwnership)

	// Nothing moved
	stored := env.reload(t, staged.ID)
	assert.Equal(t, owned.StorageKey, stored.StorageKey)
	assert.True(t, stored.OwnedBy(10, model.OwnerArticleThumbnail))
	assert.True(t, env.fileExists(owned.StorageKey))
}

func TestPromoteWithinSameRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staged := env.stage(t, "a.png")

	_, err := env.promoter.Promote(ctx, staged.ID, 10, model.OwnerArticleThumbnail)
	require.NoError(t, err)

	// The article may move its own asset into its content folder
	asset, err := env.promoter.Promote(ctx, staged.ID, 10, model.OwnerArticleContent)
	require.NoError(t, err)
	assert.Equal(t, "articles/10/images/"+path.Base(staged.StorageKey), asset.StorageKey)
	assert.True(t, asset.OwnedBy(10, model.OwnerArticleContent))
	assert.True(t, env.fileExists(asset.StorageKey))

	// Content images stay where the rich text links them
	_, err = env.promoter.Promote(ctx, staged.ID, 10, model.OwnerArticleThumbnail)
	assert.ErrorIs(t, err, ErrDuplicateOwnership)

	stored := env.reload(t, staged.ID)
	assert.Equal(t, asset.StorageKey, stored.StorageKey)
	assert.True(t, stored.OwnedBy(10, model.OwnerArticleContent))
}

func TestPromoteErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.promoter.Promote(ctx, 999, 10, model.OwnerArticleThumbnail)
	assert.ErrorIs(t, err, repository.ErrAssetNotFound)

	staged := env.stage(t, "a.png")
	_, err = env.promoter.Promote(ctx, staged.ID, 10, "AVATAR")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPromoteSourceMissing(t *testing.T) {
	env := newTestEnv(t)
	staged := env.stage(t, "a.png")
	require.NoError(t, os.Remove(filepath.Join(env.root, filepath.FromSlash(staged.StorageKey))))

	_, err := env.promoter.Promote(context.Background(), staged.ID, 10, model.OwnerArticleThumbnail)
	assert.ErrorIs(t, err, ErrSourceMissing)

	stored := env.reload(t, staged.ID)
	assert.False(t, stored.Owned())
	assert.Equal(t, staged.StorageKey, stored.StorageKey)
}

func TestPromoteMoveFailureKeepsAssetStaged(t *testing.T) {
	env := newTestEnv(t)
	staged := env.stage(t, "a.png")
	env.block(t, "slides/5")

	_, err := env.promoter.Promote(context.Background(), staged.ID, 5, model.OwnerSlide)
	assert.ErrorIs(t, err, storage.ErrIO)

	stored := env.reload(t, staged.ID)
	assert.False(t, stored.Owned())
	assert.Equal(t, staged.StorageKey, stored.StorageKey)
	assert.True(t, env.fileExists(staged.StorageKey))
}

func TestPromoteConcurrentSameOwner(t *testing.T) {
	env := newTestEnv(t)
	staged := env.stage(t, "logo.png")

	const workers = 8
	var wg sync.WaitGroup
	keys := make([]string, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			asset, err := env.promoter.Promote(context.Background(), staged.ID, 20, model.OwnerPartner)
			errs[i] = err
			if err == nil {
				keys[i] = asset.StorageKey
			}
		}()
	}
	wg.Wait()

	want := "partners/20/" + path.Base(staged.StorageKey)
	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, want, keys[i])
	}

	stored := env.reload(t, staged.ID)
	assert.Equal(t, want, stored.StorageKey)
	assert.True(t, stored.OwnedBy(20, model.OwnerPartner))
	assert.True(t, env.fileExists(want))
}

func TestPromoteConcurrentDifferentOwners(t *testing.T) {
	env := newTestEnv(t)
	staged := env.stage(t, "logo.png")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.promoter.Promote(context.Background(), staged.ID, int64(30+i), model.OwnerPartner)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, isOwnershipConflict(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	// The winner owns a file that exists
	stored := env.reload(t, staged.ID)
	require.True(t, stored.Owned())
	assert.Equal(t, storage.OwnerFolder(model.KindPartner, *stored.OwnerID, false), path.Dir(stored.StorageKey))
	assert.True(t, env.fileExists(stored.StorageKey))
}

func isOwnershipConflict(err error) bool {
	return errors.Is(err, ErrDuplicateOwnership) || errors.Is(err, ErrSourceMissing)
}
