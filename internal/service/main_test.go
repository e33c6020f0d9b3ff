package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/vhu/portal/internal/db"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/storage"
)

const testBaseURL = "http://localhost:8090"

// testEnv wires the asset engine onto a migrated SQLite database and a
// local store, both in a temp dir.
type testEnv struct {
	db         *sqlx.DB
	root       string
	store      *storage.LocalStore
	assets     repository.AssetRepository
	stager     *AssetService
	promoter   *Promoter
	rewriter   *Rewriter
	reconciler *Reconciler
	lifecycle  *Lifecycle
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	conn := filepath.Join(dir, "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	root := filepath.Join(dir, "uploads")
	store, err := storage.NewLocalStore(root)
	require.NoError(t, err)

	assets := repository.NewAssetRepository(database)
	promoter := NewPromoter(assets, store, testBaseURL)
	rewriter := NewRewriter(assets, promoter, testBaseURL)
	reconciler := NewReconciler(assets)

	return &testEnv{
		db:         database,
		root:       root,
		store:      store,
		assets:     assets,
		stager:     NewAssetService(assets, store, testBaseURL),
		promoter:   promoter,
		rewriter:   rewriter,
		reconciler: reconciler,
		lifecycle:  NewLifecycle(promoter, rewriter, reconciler),
	}
}

func (e *testEnv) stage(t *testing.T, name string) *model.Asset {
	t.Helper()
	asset, err := e.stager.Stage(context.Background(), strings.NewReader("png-bytes"), name, "image/png")
	require.NoError(t, err)
	return asset
}

func (e *testEnv) reload(t *testing.T, id int64) *model.Asset {
	t.Helper()
	asset, err := e.assets.ByID(id)
	require.NoError(t, err)
	return asset
}

func (e *testEnv) fileExists(key string) bool {
	info, err := os.Stat(filepath.Join(e.root, filepath.FromSlash(key)))
	return err == nil && !info.IsDir()
}

// block puts a regular file where folder should be created, so moves
// into it fail.
func (e *testEnv) block(t *testing.T, folder string) {
	t.Helper()
	full := filepath.Join(e.root, filepath.FromSlash(folder))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0644))
}

func img(url string) string {
	return `<img src="` + url + `" alt="">`
}
