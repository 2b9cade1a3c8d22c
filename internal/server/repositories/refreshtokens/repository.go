// Package refreshtokens declares the server-side repository contract for
// refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/marsha-uploader/internal/server/models"
)

// Repository issues and consumes refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Consume deletes the token and returns the row it held. A token can be
	// consumed once; later calls return common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)
	// DeleteExpired removes tokens that expired before now and reports how
	// many rows went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
