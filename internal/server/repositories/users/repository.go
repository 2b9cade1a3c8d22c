package users

import (
	"context"

	"github.com/dmitrijs2005/marsha-uploader/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// Upsert creates the user or replaces the password hash of an existing one.
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
