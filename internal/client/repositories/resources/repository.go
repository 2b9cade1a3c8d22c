// Package resources persists the resource stores between CLI runs.
package resources

import (
	"context"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
)

type Repository interface {
	Save(ctx context.Context, kind models.ObjectType, res models.Resource) error
	List(ctx context.Context, kind models.ObjectType) ([]models.Resource, error)
	LoadAll(ctx context.Context) (map[models.ObjectType][]models.Resource, error)
	Delete(ctx context.Context, kind models.ObjectType, id string) error
}
