// Package resources persists uploadable resources in PostgreSQL.
package resources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/marsha-uploader/internal/common"
	"github.com/dmitrijs2005/marsha-uploader/internal/dbx"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/models"
)

const columns = `object_type, id, parent_id, title, filename, upload_state, storage_key, mimetype, size, extra, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scan(row *sql.Row) (*models.Resource, error) {
	r := &models.Resource{}
	var extra []byte
	err := row.Scan(&r.ObjectType, &r.ID, &r.ParentID, &r.Title, &r.Filename, &r.UploadState,
		&r.StorageKey, &r.Mimetype, &r.Size, &extra, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	r.Extra = extra
	return r, nil
}

func (p *PostgresRepository) Get(ctx context.Context, objectType, id string) (*models.Resource, error) {
	query := `SELECT ` + columns + ` FROM resources WHERE object_type = $1 AND id = $2`
	return scan(p.db.QueryRowContext(ctx, query, objectType, id))
}

func (p *PostgresRepository) UpsertPending(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	query := `
		INSERT INTO resources (object_type, id, parent_id, filename, upload_state, storage_key, mimetype, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (object_type, id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			filename = EXCLUDED.filename,
			upload_state = EXCLUDED.upload_state,
			storage_key = EXCLUDED.storage_key,
			mimetype = EXCLUDED.mimetype,
			size = EXCLUDED.size,
			updated_at = now()
		WHERE resources.parent_id = EXCLUDED.parent_id
		RETURNING ` + columns

	return scan(p.db.QueryRowContext(ctx, query, r.ObjectType, r.ID, r.ParentID, r.Filename,
		models.StatePending, r.StorageKey, r.Mimetype, r.Size))
}

func (p *PostgresRepository) Transition(ctx context.Context, objectType, id, from, to string) (*models.Resource, error) {
	query := `UPDATE resources SET upload_state = $4, updated_at = now()
		WHERE object_type = $1 AND id = $2 AND upload_state = $3
		RETURNING ` + columns
	return scan(p.db.QueryRowContext(ctx, query, objectType, id, from, to))
}

func (p *PostgresRepository) SetTitle(ctx context.Context, objectType, id, title string) (*models.Resource, error) {
	query := `UPDATE resources SET title = $3, updated_at = now()
		WHERE object_type = $1 AND id = $2
		RETURNING ` + columns
	return scan(p.db.QueryRowContext(ctx, query, objectType, id, title))
}

func (p *PostgresRepository) MarkReady(ctx context.Context, processingBefore time.Time) (int64, error) {
	query := `UPDATE resources SET upload_state = $1, updated_at = now()
		WHERE upload_state = $2 AND updated_at < $3`
	res, err := p.db.ExecContext(ctx, query, models.StateReady, models.StateProcessing, processingBefore)
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return res.RowsAffected()
}
