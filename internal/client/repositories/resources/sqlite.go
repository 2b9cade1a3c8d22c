package resources

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/dbx"
)

// SQLiteRepository stores each resource as its JSON encoding, with the id,
// state and title copied into columns for listing.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Save upserts res under kind.
func (r *SQLiteRepository) Save(ctx context.Context, kind models.ObjectType, res models.Resource) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode resource %s: %w", res.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO resources (object_type, id, upload_state, title, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(object_type, id) DO UPDATE SET
			upload_state = excluded.upload_state,
			title = excluded.title,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, string(kind), res.ID, string(res.UploadState), res.Title, data, r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save resource %s/%s: %w", kind, res.ID, err)
	}
	return nil
}

// List returns the resources of one kind ordered by id.
func (r *SQLiteRepository) List(ctx context.Context, kind models.ObjectType) ([]models.Resource, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM resources WHERE object_type = ? ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var result []models.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}
	return result, nil
}

// LoadAll returns every stored resource grouped by kind. Rows of kinds this
// build does not know are skipped.
func (r *SQLiteRepository) LoadAll(ctx context.Context) (map[models.ObjectType][]models.Resource, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT object_type, data FROM resources ORDER BY object_type, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}
	defer rows.Close()

	result := make(map[models.ObjectType][]models.Resource)
	for rows.Next() {
		var kind string
		var data []byte
		if err := rows.Scan(&kind, &data); err != nil {
			return nil, fmt.Errorf("failed to scan resource row: %w", err)
		}
		t, err := models.ParseObjectType(kind)
		if err != nil {
			continue
		}
		var res models.Resource
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("failed to decode resource: %w", err)
		}
		result[t] = append(result[t], res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}
	return result, nil
}

// Delete removes one resource. Deleting an absent resource is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, kind models.ObjectType, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE object_type = ? AND id = ?`, string(kind), id); err != nil {
		return fmt.Errorf("failed to delete resource %s/%s: %w", kind, id, err)
	}
	return nil
}

func scanResource(rows *sql.Rows) (models.Resource, error) {
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return models.Resource{}, fmt.Errorf("failed to scan resource row: %w", err)
	}
	var res models.Resource
	if err := json.Unmarshal(data, &res); err != nil {
		return models.Resource{}, fmt.Errorf("failed to decode resource: %w", err)
	}
	return res, nil
}

// SaveSnapshot writes a registry snapshot in one transaction.
func SaveSnapshot(ctx context.Context, db *sql.DB, snapshot map[models.ObjectType][]models.Resource) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for kind, items := range snapshot {
			for _, res := range items {
				if err := repo.Save(ctx, kind, res); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
