package service

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vhu/portal/internal/model"
)

func TestRewritePromotesStagedReferences(t *testing.T) {
	env := newTestEnv(t)
	staged := env.stage(t, "b.png")

	text := "<p>Xin chào</p>\n  " + img(staged.PublicURL) + "\n<p>hết</p>"
	out, err := env.rewriter.Rewrite(context.Background(), text, 10, model.OwnerArticleContent)
	require.NoError(t, err)

	wantKey := "articles/10/images/" + path.Base(staged.StorageKey)
	wantURL := testBaseURL + "/uploads/" + wantKey
	assert.Equal(t, strings.Replace(text, staged.PublicURL, wantURL, 1), out)

	asset := env.reload(t, staged.ID)
	assert.Equal(t, wantKey, asset.StorageKey)
	assert.True(t, asset.OwnedBy(10, model.OwnerArticleContent))
	assert.True(t, env.fileExists(wantKey))
}

func TestRewriteRepeatedReference(t *testing.T) {
	env := newTestEnv(t)
	staged := env.stage(t, "b.png")

	text := img(staged.PublicURL) + `<a href="` + staged.PublicURL + `">full size</a>`
	out, err := env.rewriter.Rewrite(context.Background(), text, 10, model.OwnerArticleContent)
	require.NoError(t, err)

	asset := env.reload(t, staged.ID)
	assert.Equal(t, 2, strings.Count(out, asset.PublicURL))
	assert.NotContains(t, out, "/uploads/temp/")
}

func TestRewriteRelativeReference(t *testing.T) {
	env := newTestEnv(t)
	staged := env.stage(t, "b.png")

	text := img("/uploads/" + staged.StorageKey)
	out, err := env.rewriter.Rewrite(context.Background(), text, 10, model.OwnerArticleContent)
	require.NoError(t, err)

	asset := env.reload(t, staged.ID)
	assert.Equal(t, img(asset.PublicURL), out)
	assert.True(t, asset.OwnedBy(10, model.OwnerArticleContent))
}

func TestRewriteKeepsTextBeforeReference(t *testing.T) {
	env := newTestEnv(t)
	label := env.stage(t, "b.png")
	link := env.stage(t, "c.pdf")

	text := "<p>Ảnh gốc:" + label.PublicURL + "</p>\n<a href=" + link.PublicURL + ">tải về</a>"
	out, err := env.rewriter.Rewrite(context.Background(), text, 10, model.OwnerArticleContent)
	require.NoError(t, err)

	labelURL := env.reload(t, label.ID).PublicURL
	linkURL := env.reload(t, link.ID).PublicURL
	assert.Equal(t, "<p>Ảnh gốc:"+labelURL+"</p>\n<a href="+linkURL+">tải về</a>", out)
}

func TestRewriteLeavesOtherTextAlone(t *testing.T) {
	env := newTestEnv(t)

	texts := []string{
		"",
		"plain text, no images",
		`<img src="https://cdn.example.com/a.png">`,
		img(testBaseURL + "/uploads/articles/99/images/u_other.png"),
		`<a href="/uploads/partners/3/u_logo.png">logo</a>`,
	}
	for _, text := range texts {
		out, err := env.rewriter.Rewrite(context.Background(), text, 10, model.OwnerArticleContent)
		require.NoError(t, err)
		assert.Equal(t, text, out)
	}
}

func TestRewriteFallsBackForUnknownStagedFile(t *testing.T) {
	env := newTestEnv(t)

	text := img(testBaseURL + "/uploads/temp/1234_gone.png")
	out, err := env.rewriter.Rewrite(context.Background(), text, 10, model.OwnerArticleContent)
	require.NoError(t, err)
	assert.Equal(t, img(testBaseURL+"/uploads/articles/10/images/1234_gone.png"), out)
}

func TestRewriteFallsBackForMissingFile(t *testing.T) {
	env := newTestEnv(t)
	staged := env.stage(t, "b.png")
	require.NoError(t, os.Remove(filepath.Join(env.root, filepath.FromSlash(staged.StorageKey))))

	out, err := env.rewriter.Rewrite(context.Background(), img(staged.PublicURL), 10, model.OwnerArticleContent)
	require.NoError(t, err)
	assert.Equal(t, img(testBaseURL+"/uploads/articles/10/images/"+path.Base(staged.StorageKey)), out)

	asset := env.reload(t, staged.ID)
	assert.False(t, asset.Owned())
}

func TestRewriteAfterEarlierAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staged := env.stage(t, "b.png")

	// A previous save moved the file but the text still has the staging URL
	moved, err := env.promoter.Promote(ctx, staged.ID, 10, model.OwnerArticleContent)
	require.NoError(t, err)
	require.NoError(t, env.assets.ClearOwner(staged.ID, 10, model.OwnerArticleContent))

	out, err := env.rewriter.Rewrite(ctx, img(staged.PublicURL), 10, model.OwnerArticleContent)
	require.NoError(t, err)
	assert.Equal(t, img(moved.PublicURL), out)

	asset := env.reload(t, staged.ID)
	assert.True(t, asset.OwnedBy(10, model.OwnerArticleContent))
}

func TestRewriteAdoptsOwnReleasedAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staged := env.stage(t, "b.png")

	promoted, err := env.promoter.Promote(ctx, staged.ID, 10, model.OwnerArticleContent)
	require.NoError(t, err)
	require.NoError(t, env.assets.ClearOwner(staged.ID, 10, model.OwnerArticleContent))

	// The image is pasted back in before the janitor ran
	text := img(promoted.PublicURL)
	out, err := env.rewriter.Rewrite(ctx, text, 10, model.OwnerArticleContent)
	require.NoError(t, err)
	assert.Equal(t, text, out)

	asset := env.reload(t, staged.ID)
	assert.True(t, asset.OwnedBy(10, model.OwnerArticleContent))
}

func TestRewriteRejectsDirectOwnerType(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rewriter.Rewrite(context.Background(), "text", 1, model.OwnerSlide)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExtractKeys(t *testing.T) {
	keys := ExtractKeys(
		img(testBaseURL+"/uploads/articles/10/images/u1_a.png"),
		img("/uploads/temp/u2_b.png")+img("https://other.host/uploads/articles/10/images/u3_c%20d.png?v=2"),
		`<img src="https://cdn.example.com/x.png">`,
	)

	assert.Equal(t, map[string]struct{}{
		"articles/10/images/u1_a.png":   {},
		"temp/u2_b.png":                 {},
		"articles/10/images/u3_c d.png": {},
	}, keys)
}
