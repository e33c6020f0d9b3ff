package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/vhu/portal/internal/db"
	"github.com/vhu/portal/internal/model"
)

// newTestDB opens a migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

func stagedAsset(key string, createdAt time.Time) *model.Asset {
	return &model.Asset{
		StorageKey:   key,
		PublicURL:    "http://localhost:8090/uploads/" + key,
		OriginalName: filepath.Base(key),
		MimeType:     "image/png",
		Size:         3,
		CreatedAt:    createdAt,
	}
}
