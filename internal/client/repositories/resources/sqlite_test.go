package resources

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE resources (
  object_type  TEXT NOT NULL,
  id           TEXT NOT NULL,
  upload_state TEXT NOT NULL DEFAULT '',
  title        TEXT NOT NULL DEFAULT '',
  data         BLOB NOT NULL,
  updated_at   INTEGER NOT NULL,
  PRIMARY KEY (object_type, id)
);`)
	require.NoError(t, err)
	return db
}

func TestSave_UpsertAndList(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	v := models.Resource{
		ID:          "v1",
		UploadState: models.UploadStatePending,
		Extra:       map[string]json.RawMessage{"urls": json.RawMessage(`{"mp4":{}}`)},
	}
	require.NoError(t, r.Save(ctx, models.ObjectTypeVideo, v))

	v.UploadState = models.UploadStateProcessing
	v.Title = "course.mp4"
	require.NoError(t, r.Save(ctx, models.ObjectTypeVideo, v))
	require.NoError(t, r.Save(ctx, models.ObjectTypeDocument, models.Resource{ID: "v1"}))

	got, err := r.List(ctx, models.ObjectTypeVideo)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.UploadStateProcessing, got[0].UploadState)
	assert.Equal(t, "course.mp4", got[0].Title)
	assert.JSONEq(t, `{"mp4":{}}`, string(got[0].Extra["urls"]))
}

func TestLoadAll_GroupsByKindAndSkipsUnknown(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, SaveSnapshot(ctx, db, map[models.ObjectType][]models.Resource{
		models.ObjectTypeVideo:     {{ID: "v2"}, {ID: "v1"}},
		models.ObjectTypeThumbnail: {{ID: "t1"}},
	}))
	_, err := db.Exec(`INSERT INTO resources (object_type, id, data, updated_at) VALUES ('podcasts', 'p1', '{}', 0)`)
	require.NoError(t, err)

	all, err := r.LoadAll(ctx)
	require.NoError(t, err)

	require.Len(t, all, 2)
	require.Len(t, all[models.ObjectTypeVideo], 2)
	assert.Equal(t, "v1", all[models.ObjectTypeVideo][0].ID)
	assert.Equal(t, "t1", all[models.ObjectTypeThumbnail][0].ID)
}

func TestDelete_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, models.ObjectTypeVideo, models.Resource{ID: "v1"}))
	require.NoError(t, r.Delete(ctx, models.ObjectTypeVideo, "v1"))
	require.NoError(t, r.Delete(ctx, models.ObjectTypeVideo, "v1"))

	got, err := r.List(ctx, models.ObjectTypeVideo)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSave_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	err := r.Save(context.Background(), models.ObjectTypeVideo, models.Resource{ID: "v1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save resource videos/v1")
}
